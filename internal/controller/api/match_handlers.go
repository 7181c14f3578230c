package api

import (
	"net/http"

	"github.com/Freeeeeet/learnifyr/internal/model"
)

type createReviewRequest struct {
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Text      string `json:"text" validate:"required"`
}

type reviewIDResponse struct {
	ReviewID int64 `json:"review_id"`
}

// listMatches отклики текущего пользователя; роль берётся из токена
func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	archived, err := queryBool(r, "archived")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rejected, err := queryBool(r, "rejected")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p := principal(r)
	matches, err := s.svc.Matches.List(r.Context(), model.MatchFilter{
		UserID:          p.UserID,
		Role:            p.Role,
		IncludeArchived: archived,
		IncludeRejected: rejected,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(matches))
}

func (s *Server) completeMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Matches.Complete(r.Context(), id, principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.svc.Reviews.Create(r.Context(), model.CreateReviewInput{
		StudentID: principal(r).UserID,
		TeacherID: req.TeacherID,
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewIDResponse{ReviewID: id})
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.svc.Subjects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(subjects))
}
