package server

import (
	"github.com/domainscout/domainscout/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Health endpoints
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/healthz", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Availability endpoints
	s.router.Get("/v1/availability", s.availability.ResolveHandler)
	s.router.Post("/v1/availability/batch", s.availability.BatchHandler)
}
