package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
)

type updateProfileRequest struct {
	Surname    *string `json:"surname" validate:"omitempty,min=1,max=64"`
	Name       *string `json:"name" validate:"omitempty,min=1,max=64"`
	Patronymic *string `json:"patronymic" validate:"omitempty,max=64"`
	Age        *int    `json:"age" validate:"omitempty,min=1,max=149"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
	Rate       *int    `json:"rate" validate:"omitempty,min=0"`
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type studentNotificationsRequest struct {
	RequestNotification         *bool `json:"request_notification"`
	ReviewPublishedNotification *bool `json:"review_published_notification"`
	ArchiveLessonsNotification  *bool `json:"archive_lessons_notification"`
}

type teacherNotificationsRequest struct {
	ApplicationNotification    *bool `json:"application_notification"`
	ReviewNotification         *bool `json:"review_notification"`
	ResponseNotification       *bool `json:"response_notification"`
	ArchiveLessonsNotification *bool `json:"archive_lessons_notification"`
}

type subjectsRequest struct {
	Subjects []string `json:"subjects" validate:"required,dive,required"`
}

type avatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

func (s *Server) getMyStudent(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profiles.GetStudent(r.Context(), principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// getStudent профиль студента глазами репетитора
func (s *Server) getStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, err := s.svc.Profiles.GetStudentForTeacher(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Profiles.DeleteStudent(r.Context(), principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setCookie(w, s.cfg.AccessCookie, "", -1)
	s.setCookie(w, s.cfg.RefreshCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateStudentNotifications(w http.ResponseWriter, r *http.Request) {
	var req studentNotificationsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.svc.Profiles.UpdateStudentNotifications(r.Context(), principal(r).UserID, model.StudentNotificationsInput{
		RequestNotification:         req.RequestNotification,
		ReviewPublishedNotification: req.ReviewPublishedNotification,
		ArchiveLessonsNotification:  req.ArchiveLessonsNotification,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) hideTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Profiles.HideTeacher(r.Context(), principal(r).UserID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTeachers(w http.ResponseWriter, r *http.Request) {
	f := model.TeacherFilter{StudentID: principal(r).UserID}
	if subject := r.URL.Query().Get("subject"); subject != "" {
		f.Subject = &subject
	}

	var err error
	if f.RateMin, err = queryInt(r, "rate_min"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.RateMax, err = queryInt(r, "rate_max"); err != nil {
		s.writeError(w, r, err)
		return
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

	teachers, err := s.svc.Profiles.ListTeachers(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(teachers))
}

func (s *Server) getMyTeacher(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profiles.GetTeacher(r.Context(), principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) getTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, err := s.svc.Profiles.GetTeacherForStudent(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) deleteTeacher(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Profiles.DeleteTeacher(r.Context(), principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setCookie(w, s.cfg.AccessCookie, "", -1)
	s.setCookie(w, s.cfg.RefreshCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateTeacherNotifications(w http.ResponseWriter, r *http.Request) {
	var req teacherNotificationsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.svc.Profiles.UpdateTeacherNotifications(r.Context(), principal(r).UserID, model.TeacherNotificationsInput{
		ApplicationNotification:    req.ApplicationNotification,
		ReviewNotification:         req.ReviewNotification,
		ResponseNotification:       req.ResponseNotification,
		ArchiveLessonsNotification: req.ArchiveLessonsNotification,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) replaceSubjects(w http.ResponseWriter, r *http.Request) {
	var req subjectsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	subjects, err := s.svc.Profiles.ReplaceSubjects(r.Context(), principal(r).UserID, req.Subjects)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(subjects))
}

// uploadAvatar принимает multipart поле file
func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, avatarMaxBytes)
	if err := r.ParseMultipartForm(avatarMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("avatar exceeds %d bytes: %w", avatarMaxBytes, errdefs.ErrValidation))
			return
		}
		s.writeError(w, r, fmt.Errorf("invalid multipart form: %w", errdefs.ErrValidation))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("missing file field: %w", errdefs.ErrValidation))
		return
	}
	defer file.Close()

	url, err := s.svc.Profiles.UploadAvatar(r.Context(), principal(r).UserID, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avatarResponse{AvatarURL: url})
}

func (s *Server) deleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Profiles.DeleteAvatar(r.Context(), principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateProfile общий для /students/me и /teachers/me
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.svc.Profiles.UpdateProfile(r.Context(), principal(r), model.UpdateProfileInput{
		Surname:    req.Surname,
		Name:       req.Name,
		Patronymic: req.Patronymic,
		Age:        req.Age,
		Bio:        req.Bio,
		Rate:       req.Rate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Profiles.SetActive(r.Context(), principal(r).UserID, *req.Active); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
