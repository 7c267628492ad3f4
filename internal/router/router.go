package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"student-records/internal/config"
	"student-records/internal/handler"
	"student-records/internal/middleware"
)

const authPrefix = "/api/auth"

type Handlers struct {
	Auth    *handler.AuthHandler
	Query   *handler.QueryHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, metrics *middleware.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, authPrefix)

	r.Use(middleware.Diagnostics(!cfg.IsProduction()))
	r.Use(middleware.Sentry)
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(metrics.Handler)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/signin", h.Auth.Signin)
			auth.Post("/refresh", h.Auth.Refresh)

			auth.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", h.Auth.Me)
				protected.Get("/sessions", h.Auth.Sessions)
				protected.Post("/logout", h.Auth.Logout)
				protected.Post("/logout-all", h.Auth.LogoutAll)
			})
		})

		api.Route("/queries", func(q chi.Router) {
			q.Get("/top-courses", h.Query.TopCourses)
			q.Get("/top-students", h.Query.TopStudents)
			q.Get("/institute-performance", h.Query.InstitutePerformance)
			q.Get("/course-grades/{courseId}", h.Query.CourseGrades)
			q.Get("/institute-results/{instituteId}", h.Query.InstituteResults)
		})
	})

	return r
}
