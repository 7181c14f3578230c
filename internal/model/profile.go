package model

// StudentProfile студент с опубликованными отзывами, которые он оставил
type StudentProfile struct {
	Student
	Reviews []ReviewView `json:"reviews"`
}

// TeacherProfile репетитор с предметами, аватаром и опубликованными отзывами о нём
type TeacherProfile struct {
	Teacher
	Reviews []ReviewView `json:"reviews"`
}

const (
	ProfileAgeMin = 1
	ProfileAgeMax = 149
	ProfileBioMax = 500
)
