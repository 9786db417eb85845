package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/oversteer-dev/pitwall/internal/api/handler"
	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/lap"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/team"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Authenticator middleware.Authenticator
	Teams         *team.Service
	Sessions      *session.Service
	Laps          *lap.Service
	DBPinger      handler.DBPinger
	StorageProber handler.StorageProber
	RawBucket     string
	Version       string
	WebhookSecret string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.StorageProber, deps.RawBucket, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	teamHandler := handler.NewTeamHandler(deps.Teams)
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	uploadHandler := handler.NewUploadHandler(deps.Sessions)
	lapHandler := handler.NewLapHandler(deps.Laps)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Authenticator))

		r.Post("/teams", teamHandler.Create)
		r.Get("/teams", teamHandler.List)
		r.Post("/members", teamHandler.AddMember)
		r.Post("/upload-url", uploadHandler.Create)
		r.Get("/sessions", sessionHandler.List)
		r.Get("/sessions/{id}", sessionHandler.Get)
		r.Get("/sessions/{id}/laps/{lap}", lapHandler.Fetch)
	})

	workerHandler := handler.NewWorkerHandler(deps.Sessions)
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.WorkerAuth(deps.WebhookSecret))

		r.Post("/sessions/{id}/status", workerHandler.Update)
	})

	return r
}
