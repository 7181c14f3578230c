package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// logRequests проставляет X-Request-Id, пишет access лог и метрики
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, err := uuid.NewV7()
		if err != nil {
			requestID = uuid.New()
		}
		w.Header().Set(requestIDHeader, requestID.String())

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// шаблон маршрута известен только после роутинга
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())

		s.logger.Info("request completed",
			zap.String("request_id", requestID.String()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", elapsed),
		)
	})
}

// authenticate кладёт Principal из access cookie в контекст
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cfg.AccessCookie)
		if err != nil || cookie.Value == "" {
			s.writeError(w, r, fmt.Errorf("missing access token: %w", errdefs.ErrUnauthorized))
			return
		}

		p, err := s.authn.Principal(cookie.Value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func requireRole(role model.Role, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				onError(w, r, fmt.Errorf("no principal: %w", errdefs.ErrUnauthorized))
				return
			}
			if p.Role != role {
				onError(w, r, fmt.Errorf("%s only: %w", role, errdefs.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
