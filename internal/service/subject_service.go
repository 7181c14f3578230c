package service

import (
	"context"

	"github.com/Freeeeeet/learnifyr/internal/model"
)

type SubjectService struct {
	subjects SubjectRepository
}

func NewSubjectService(subjects SubjectRepository) *SubjectService {
	return &SubjectService{subjects: subjects}
}

// List все предметы по алфавиту
func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	return s.subjects.List(ctx)
}
