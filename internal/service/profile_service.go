package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"go.uber.org/zap"
)

const teacherListLimit = 100

// ProfileService профили студентов и репетиторов
type ProfileService struct {
	tx       TxManager
	users    UserRepository
	students StudentRepository
	teachers TeacherRepository
	subjects SubjectRepository
	reviews  ReviewRepository
	matches  MatchRepository
	apps     ApplicationRepository
	tokens   TokenRepository
	avatars  AvatarStorage
	logger   *zap.Logger
}

type ProfileDeps struct {
	Tx       TxManager
	Users    UserRepository
	Students StudentRepository
	Teachers TeacherRepository
	Subjects SubjectRepository
	Reviews  ReviewRepository
	Matches  MatchRepository
	Apps     ApplicationRepository
	Tokens   TokenRepository
	Avatars  AvatarStorage
}

func NewProfileService(deps ProfileDeps, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		tx:       deps.Tx,
		users:    deps.Users,
		students: deps.Students,
		teachers: deps.Teachers,
		subjects: deps.Subjects,
		reviews:  deps.Reviews,
		matches:  deps.Matches,
		apps:     deps.Apps,
		tokens:   deps.Tokens,
		avatars:  deps.Avatars,
		logger:   logger,
	}
}

// ── Студент ─────────────────────────────────────────────────────────────

// GetStudent собственный профиль студента
func (s *ProfileService) GetStudent(ctx context.Context, studentID int64) (*model.StudentProfile, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, notFound("student %d", studentID)
	}

	reviews, err := s.reviews.ListPublishedByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &model.StudentProfile{Student: *student, Reviews: reviews}, nil
}

// GetStudentForTeacher профиль студента глазами репетитора.
// Username виден только при общем отклике.
func (s *ProfileService) GetStudentForTeacher(ctx context.Context, studentID, teacherID int64) (*model.StudentProfile, error) {
	profile, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	shared, err := s.matches.Shared(ctx, studentID, teacherID)
	if err != nil {
		return nil, err
	}
	if !shared {
		profile.TelegramUsername = nil
	}
	return profile, nil
}

// UpdateStudentNotifications меняет флаги уведомлений студента
func (s *ProfileService) UpdateStudentNotifications(ctx context.Context, studentID int64, in model.StudentNotificationsInput) error {
	return s.students.UpdateNotifications(ctx, studentID, in)
}

// DeleteStudent мягко удаляет студента и закрывает его заявки и отклики
func (s *ProfileService) DeleteStudent(ctx context.Context, studentID int64) error {
	var matches, apps int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.SoftDelete(ctx, studentID); err != nil {
			return err
		}
		if err := s.students.ClearHiddenTeachers(ctx, studentID); err != nil {
			return err
		}
		if err := s.tokens.DeleteByUser(ctx, studentID); err != nil {
			return err
		}

		var err error
		if matches, err = s.matches.ArchiveOpenByStudent(ctx, studentID); err != nil {
			return err
		}
		apps, err = s.apps.ArchiveActiveByStudent(ctx, studentID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Student deleted",
		zap.Int64("student_id", studentID),
		zap.Int64("archived_matches", matches),
		zap.Int64("archived_applications", apps),
	)
	return nil
}

// HideTeacher скрывает репетитора из каталога студента
func (s *ProfileService) HideTeacher(ctx context.Context, studentID, teacherID int64) error {
	teacher, err := s.teachers.Get(ctx, teacherID)
	if err != nil {
		return err
	}
	if teacher == nil {
		return notFound("teacher %d", teacherID)
	}
	return s.students.HideTeacher(ctx, studentID, teacherID)
}

// ── Репетитор ───────────────────────────────────────────────────────────

// GetTeacher профиль репетитора с аватаром, предметами и отзывами
func (s *ProfileService) GetTeacher(ctx context.Context, teacherID int64) (*model.TeacherProfile, error) {
	teacher, err := s.teachers.Get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, notFound("teacher %d", teacherID)
	}

	if teacher.Subjects, err = s.subjects.ListByTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	s.fillAvatar(ctx, teacher)

	reviews, err := s.reviews.ListPublishedByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return &model.TeacherProfile{Teacher: *teacher, Reviews: reviews}, nil
}

// GetTeacherForStudent профиль репетитора глазами студента.
// Telegram username виден только при общем отклике.
func (s *ProfileService) GetTeacherForStudent(ctx context.Context, teacherID, studentID int64) (*model.TeacherProfile, error) {
	profile, err := s.GetTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	shared, err := s.matches.Shared(ctx, studentID, teacherID)
	if err != nil {
		return nil, err
	}
	if !shared {
		profile.TelegramUsername = nil
	}
	return profile, nil
}

// DeleteTeacher мягко удаляет репетитора и закрывает его отклики
func (s *ProfileService) DeleteTeacher(ctx context.Context, teacherID int64) error {
	var matches int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.SoftDelete(ctx, teacherID); err != nil {
			return err
		}
		if err := s.tokens.DeleteByUser(ctx, teacherID); err != nil {
			return err
		}

		var err error
		matches, err = s.matches.ArchiveOpenByTeacher(ctx, teacherID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Teacher deleted",
		zap.Int64("teacher_id", teacherID),
		zap.Int64("archived_matches", matches),
	)
	return nil
}

// ListTeachers каталог репетиторов для студента
func (s *ProfileService) ListTeachers(ctx context.Context, f model.TeacherFilter) ([]model.Teacher, error) {
	if err := validateRange("rate", f.RateMin, f.RateMax, 0, model.ApplicationPriceMax); err != nil {
		return nil, err
	}
	if f.Offset < 0 {
		return nil, invalid("offset must not be negative")
	}
	if f.Limit <= 0 || f.Limit > teacherListLimit {
		f.Limit = teacherListLimit
	}

	teachers, err := s.teachers.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range teachers {
		s.fillAvatar(ctx, &teachers[i])
	}
	return teachers, nil
}

// UpdateTeacherNotifications меняет флаги уведомлений репетитора
func (s *ProfileService) UpdateTeacherNotifications(ctx context.Context, teacherID int64, in model.TeacherNotificationsInput) error {
	return s.teachers.UpdateNotifications(ctx, teacherID, in)
}

// ReplaceSubjects заменяет список предметов репетитора
func (s *ProfileService) ReplaceSubjects(ctx context.Context, teacherID int64, names []string) ([]model.Subject, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	var subjects []model.Subject
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if subjects, err = s.subjects.GetByNames(ctx, unique); err != nil {
			return err
		}
		if len(subjects) != len(unique) {
			return invalid("unknown subjects in %v", unique)
		}

		ids := make([]int64, 0, len(subjects))
		for _, subject := range subjects {
			ids = append(ids, subject.ID)
		}
		return s.subjects.ReplaceTeacherSubjects(ctx, teacherID, ids)
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// UploadAvatar загружает новый аватар и удаляет предыдущий
func (s *ProfileService) UploadAvatar(ctx context.Context, teacherID int64, name string, body io.Reader, size int64, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", invalid("avatar must be an image, got %q", contentType)
	}

	key, err := s.avatars.Upload(ctx, fmt.Sprintf("teacher-%d", teacherID), body, size, contentType)
	if err != nil {
		return "", err
	}

	previous, err := s.teachers.SetAvatar(ctx, teacherID, &key)
	if err != nil {
		s.dropObject(ctx, key)
		return "", err
	}
	if previous != nil {
		s.dropObject(ctx, *previous)
	}

	s.logger.Info("Avatar uploaded",
		zap.Int64("teacher_id", teacherID),
		zap.String("key", key),
		zap.String("file", name),
	)
	return s.avatars.PresignGet(ctx, key)
}

// DeleteAvatar убирает аватар репетитора
func (s *ProfileService) DeleteAvatar(ctx context.Context, teacherID int64) error {
	previous, err := s.teachers.SetAvatar(ctx, teacherID, nil)
	if err != nil {
		return err
	}
	if previous == nil {
		return notFound("avatar of teacher %d", teacherID)
	}
	s.dropObject(ctx, *previous)
	return nil
}

func (s *ProfileService) fillAvatar(ctx context.Context, teacher *model.Teacher) {
	if teacher.AvatarKey == nil {
		return
	}
	url, err := s.avatars.PresignGet(ctx, *teacher.AvatarKey)
	if err != nil {
		s.logger.Warn("Failed to presign avatar",
			zap.Int64("teacher_id", teacher.ID),
			zap.Error(err))
		return
	}
	teacher.AvatarURL = &url
}

func (s *ProfileService) dropObject(ctx context.Context, key string) {
	if err := s.avatars.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete avatar object",
			zap.String("key", key),
			zap.Error(err))
	}
}

// ── Общее ───────────────────────────────────────────────────────────────

// UpdateProfile меняет поля профиля. Ставка доступна только репетитору.
func (s *ProfileService) UpdateProfile(ctx context.Context, p auth.Principal, in model.UpdateProfileInput) error {
	if in.Rate != nil && !p.IsTeacher() {
		return invalid("rate is available only for teachers")
	}
	if err := validateProfile(in); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdateProfile(ctx, p.UserID, in); err != nil {
			return err
		}
		if in.Rate != nil {
			return s.teachers.UpdateRate(ctx, p.UserID, *in.Rate)
		}
		return nil
	})
}

// SetActive включает или выключает видимость профиля
func (s *ProfileService) SetActive(ctx context.Context, userID int64, active bool) error {
	return s.users.SetActive(ctx, userID, active)
}

func validateProfile(in model.UpdateProfileInput) error {
	if in.Surname != nil {
		if err := validateName("surname", *in.Surname); err != nil {
			return err
		}
	}
	if in.Name != nil {
		if err := validateName("name", *in.Name); err != nil {
			return err
		}
	}
	if in.Patronymic != nil {
		if err := validateName("patronymic", *in.Patronymic); err != nil {
			return err
		}
	}
	if in.Age != nil && (*in.Age < model.ProfileAgeMin || *in.Age > model.ProfileAgeMax) {
		return invalid("age must be in [%d, %d]", model.ProfileAgeMin, model.ProfileAgeMax)
	}
	if in.Bio != nil && utf8.RuneCountInString(*in.Bio) > model.ProfileBioMax {
		return invalid("bio longer than %d characters", model.ProfileBioMax)
	}
	if in.Rate != nil {
		if err := validatePrice(*in.Rate); err != nil {
			return err
		}
	}
	return nil
}
