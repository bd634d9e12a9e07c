package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mergington/activities/internal/registry"
)

// RouterConfig carries the collaborators mounted next to the activity API.
type RouterConfig struct {
	// StaticDir is served under /static/. Empty disables static files.
	StaticDir string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter builds the chi router for the whole service.
func NewRouter(reg *registry.Registry, log *slog.Logger, cfg RouterConfig) http.Handler {
	activities := NewActivityHandler(reg, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/", Root)
	r.Get("/health", HealthCheck)

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", activities.ListActivities)
		r.Post("/{activity_name}/signup", activities.Signup)
		r.Post("/{activity_name}/unregister", activities.Unregister)
		r.Get("/{activity_name}/history", activities.History)
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if cfg.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.Handle("/static/*", fs)
	}

	return r
}
