package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
)

type registerRequest struct {
	Role       string  `json:"role" validate:"required,oneof=student teacher"`
	Surname    string  `json:"surname" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,max=64"`
	Patronymic *string `json:"patronymic" validate:"omitempty,max=64"`
}

type registerResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
}

type loginVerifyRequest struct {
	Username string `json:"username" validate:"required"`
	Token    string `json:"token" validate:"required,len=6,numeric"`
}

type loginVerifyResponse struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
}

// register создаёт пользователя и возвращает одноразовый токен для привязки telegram
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, token, err := s.svc.Auth.Register(r.Context(), model.RegisterInput{
		Role:       model.Role(req.Role),
		Surname:    req.Surname,
		Name:       req.Name,
		Patronymic: req.Patronymic,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{UserID: user.ID, Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Auth.RequestLoginCode(r.Context(), req.Username); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loginVerify(w http.ResponseWriter, r *http.Request) {
	var req loginVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.svc.Auth.VerifyLogin(r.Context(), req.Username, req.Token, clientIP(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setCookie(w, s.cfg.AccessCookie, session.AccessToken, s.cfg.AccessTTL)
	s.setCookie(w, s.cfg.RefreshCookie, session.RefreshToken, s.cfg.RefreshTTL)
	writeJSON(w, http.StatusOK, loginVerifyResponse{UserID: session.User.ID, Role: session.User.Role})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.cfg.RefreshCookie)
	if err != nil || cookie.Value == "" {
		s.writeError(w, r, fmt.Errorf("missing refresh token: %w", errdefs.ErrUnauthorized))
		return
	}

	access, err := s.svc.Auth.Refresh(r.Context(), cookie.Value, clientIP(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setCookie(w, s.cfg.AccessCookie, access, s.cfg.AccessTTL)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.Logout(r.Context(), principal(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setCookie(w, s.cfg.AccessCookie, "", -1)
	s.setCookie(w, s.cfg.RefreshCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// setCookie с отрицательным ttl удаляет cookie
func (s *Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
