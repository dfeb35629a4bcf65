package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/smartcam/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	sessionsHandler := handlers.NewSessionsHandler(s.manager)
	archiveHandler := handlers.NewArchiveHandler(s.manager)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Live session lifecycle
		r.Post("/session", sessionsHandler.Start)
		r.Delete("/session", sessionsHandler.Stop)
		r.Get("/session", sessionsHandler.Report)

		// Live session ingest and control
		r.Post("/session/frames", sessionsHandler.SubmitFrame)
		r.Post("/session/audio", sessionsHandler.SubmitAudio)
		r.Post("/session/names", sessionsHandler.AssignName)
		r.Post("/session/identities/reset", sessionsHandler.ResetIdentities)
		r.Get("/session/identities", sessionsHandler.Identities)

		// Archived sessions
		r.Get("/sessions", archiveHandler.List)
		r.Get("/sessions/{id}", archiveHandler.Get)
		r.Delete("/sessions/{id}", archiveHandler.Delete)
		r.Get("/sessions/{id}/export", archiveHandler.Export)

		// Cross-session face lookup
		r.Post("/faces/search", archiveHandler.Search)
	})
}
