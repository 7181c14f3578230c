package model

import "time"

const (
	ReviewRatingMin = 1
	ReviewRatingMax = 5
	ReviewTextMax   = 100
)

type ReviewAction string

const (
	ReviewActionPublish ReviewAction = "publish"
	ReviewActionReject  ReviewAction = "reject"
)

func (a ReviewAction) Valid() bool {
	return a == ReviewActionPublish || a == ReviewActionReject
}

type Review struct {
	ID          int64      `json:"id" db:"id"`
	StudentID   int64      `json:"student_id" db:"student_id"`
	TeacherID   int64      `json:"teacher_id" db:"teacher_id"`
	Rating      int        `json:"rating" db:"rating"`
	Text        string     `json:"text" db:"text"`
	IsPublished bool       `json:"is_published" db:"is_published"`
	ResolvedAt  *time.Time `json:"-" db:"resolved_at"` // решение модерации
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ReviewView опубликованный отзыв для профиля
type ReviewView struct {
	Review
	StudentName    string `json:"student_name" db:"student_name"`
	StudentSurname string `json:"student_surname" db:"student_surname"`
	TeacherName    string `json:"teacher_name" db:"teacher_name"`
	TeacherSurname string `json:"teacher_surname" db:"teacher_surname"`
}

type CreateReviewInput struct {
	StudentID int64
	TeacherID int64
	Rating    int
	Text      string
}
