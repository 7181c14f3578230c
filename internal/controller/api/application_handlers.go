package api

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/learnifyr/internal/model"
)

type createApplicationRequest struct {
	SubjectName  string  `json:"subject_name" validate:"required"`
	Price        int     `json:"price" validate:"required"`
	LessonsCount string  `json:"lessons_count" validate:"required,oneof=few medium many"`
	Description  *string `json:"description"`
}

type updateApplicationRequest struct {
	SubjectName  *string `json:"subject_name" validate:"omitempty,min=1"`
	Price        *int    `json:"price"`
	LessonsCount *string `json:"lessons_count" validate:"omitempty,oneof=few medium many"`
	Description  *string `json:"description"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type matchIDResponse struct {
	MatchID int64 `json:"match_id"`
}

func (s *Server) createApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.svc.Applications.Create(r.Context(), model.CreateApplicationInput{
		StudentID:    principal(r).UserID,
		SubjectName:  req.SubjectName,
		Price:        req.Price,
		LessonsCount: model.LessonsCount(req.LessonsCount),
		Description:  req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) updateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := model.UpdateApplicationInput{
		SubjectName: req.SubjectName,
		Price:       req.Price,
		Description: req.Description,
	}
	if req.LessonsCount != nil {
		lc := model.LessonsCount(*req.LessonsCount)
		in.LessonsCount = &lc
	}

	if err := s.svc.Applications.Update(r.Context(), id, principal(r).UserID, in); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listApplications лента активных заявок для репетитора
func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	f := model.ApplicationFilter{
		TeacherID: principal(r).UserID,
		Subjects:  queryList(r, "subjects"),
	}

	for key, dst := range map[string]**int{
		"price_min":       &f.PriceMin,
		"price_max":       &f.PriceMax,
		"student_age_min": &f.StudentAgeMin,
		"student_age_max": &f.StudentAgeMax,
	} {
		v, err := queryInt(r, key)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		*dst = v
	}

	for _, lc := range queryList(r, "lessons_counts") {
		f.LessonsCounts = append(f.LessonsCounts, model.LessonsCount(lc))
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit != nil {
		f.Limit = *limit
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if offset != nil {
		f.Offset = *offset
	}

	apps, err := s.svc.Applications.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(apps))
}

func (s *Server) listMyApplications(w http.ResponseWriter, r *http.Request) {
	archived, err := queryBool(r, "archived")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	apps, err := s.svc.Applications.ListMine(r.Context(), principal(r).UserID, archived)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(apps))
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.svc.Applications.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (s *Server) requestApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	matchID, err := s.svc.Applications.Request(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, matchIDResponse{MatchID: matchID})
}

func (s *Server) hideApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Applications.Hide(r.Context(), id, principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) acceptMatch(w http.ResponseWriter, r *http.Request) {
	s.decideMatch(w, r, s.svc.Applications.Accept)
}

func (s *Server) rejectMatch(w http.ResponseWriter, r *http.Request) {
	s.decideMatch(w, r, s.svc.Applications.Reject)
}

func (s *Server) decideMatch(
	w http.ResponseWriter,
	r *http.Request,
	decide func(ctx context.Context, applicationID, matchID, studentID int64) error,
) {
	appID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	matchID, err := pathID(r, "match_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := decide(r.Context(), appID, matchID, principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// emptyIfNil чтобы пустой список отдавался как [] а не null
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
