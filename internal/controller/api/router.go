package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	loginRateLimit  = 5
	loginRateWindow = time.Minute
	avatarMaxBytes  = 5 << 20
)

type Config struct {
	CORSOrigins   []string
	CookieSecure  bool
	AccessCookie  string
	RefreshCookie string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Server struct {
	cfg    Config
	svc    Services
	authn  Authenticator
	logger *zap.Logger
}

func NewServer(cfg Config, svc Services, authn Authenticator, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, svc: svc, authn: authn, logger: logger}
}

// Router собирает chi роутер со всеми маршрутами API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.With(httprate.LimitByIP(loginRateLimit, loginRateWindow)).Post("/login", s.login)
		r.Post("/login/verify", s.loginVerify)
		r.Post("/refresh", s.refresh)
		r.With(s.authenticate).Post("/logout", s.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		student := requireRole(model.RoleStudent, s.writeError)
		teacher := requireRole(model.RoleTeacher, s.writeError)

		r.Get("/subjects", s.listSubjects)

		r.Route("/applications", func(r chi.Router) {
			r.With(teacher).Get("/", s.listApplications)
			r.With(student).Get("/my", s.listMyApplications)
			r.With(student).Post("/", s.createApplication)
			r.Get("/{id}", s.getApplication)
			r.With(student).Patch("/{id}", s.updateApplication)
			r.With(teacher).Post("/{id}/request", s.requestApplication)
			r.With(teacher).Post("/{id}/hide", s.hideApplication)
			r.With(student).Post("/{id}/matches/{match_id}/accept", s.acceptMatch)
			r.With(student).Post("/{id}/matches/{match_id}/reject", s.rejectMatch)
		})

		r.Get("/matches", s.listMatches)
		r.Post("/matches/{id}/complete", s.completeMatch)

		r.With(student).Post("/reviews", s.createReview)

		r.Route("/students", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(student)
				r.Get("/me", s.getMyStudent)
				r.Patch("/me", s.updateProfile)
				r.Delete("/me", s.deleteStudent)
				r.Patch("/me/active", s.setActive)
				r.Patch("/me/notifications", s.updateStudentNotifications)
			})
			r.With(teacher).Get("/{id}", s.getStudent)
		})

		r.Route("/teachers", func(r chi.Router) {
			r.With(student).Get("/", s.listTeachers)
			r.With(student).Get("/{id}", s.getTeacher)
			r.With(student).Post("/{id}/hide", s.hideTeacher)
			r.Group(func(r chi.Router) {
				r.Use(teacher)
				r.Get("/me", s.getMyTeacher)
				r.Patch("/me", s.updateProfile)
				r.Delete("/me", s.deleteTeacher)
				r.Patch("/me/active", s.setActive)
				r.Patch("/me/notifications", s.updateTeacherNotifications)
				r.Put("/me/subjects", s.replaceSubjects)
				r.Put("/me/avatar", s.uploadAvatar)
				r.Delete("/me/avatar", s.deleteAvatar)
			})
		})
	})

	return r
}
