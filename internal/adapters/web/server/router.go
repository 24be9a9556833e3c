package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes builds the router. ctx bounds the rate limiter's sweeper.
func SetupRoutes(ctx context.Context, s *Server) http.Handler {
	r := mux.NewRouter()

	ingestLimiter := middleware.NewRateLimiter(ctx, s.Options.IngestLimit, 1*time.Minute)
	limited := middleware.RateLimitMiddleware(ingestLimiter)
	admin := middleware.AdminMiddleware(s.Options.AdminTokenHash)
	protect := func(h http.HandlerFunc) http.Handler {
		return admin(h)
	}

	r.HandleFunc("/", s.PetHandler.HandleRoot).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()

	// Pet
	api.HandleFunc("/pet-state", s.PetHandler.HandleGetState).Methods(http.MethodGet)
	api.Handle("/security-event", limited(http.HandlerFunc(s.PetHandler.HandleSecurityEvent))).Methods(http.MethodPost)
	api.HandleFunc("/good-behavior", s.PetHandler.HandleGoodBehavior).Methods(http.MethodPost)
	api.HandleFunc("/events/recent", s.PetHandler.HandleRecentEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/archive", s.PetHandler.HandleArchivedEvents).Methods(http.MethodGet)

	// Monitoring
	api.Handle("/monitoring/start", protect(s.MonitorHandler.HandleStart)).Methods(http.MethodPost)
	api.Handle("/monitoring/stop", protect(s.MonitorHandler.HandleStop)).Methods(http.MethodPost)
	api.HandleFunc("/monitoring/status", s.MonitorHandler.HandleStatus).Methods(http.MethodGet)

	// Manual testing
	api.HandleFunc("/test/url", s.TestHandler.HandleURL).Methods(http.MethodPost)
	api.HandleFunc("/test/password", s.TestHandler.HandlePassword).Methods(http.MethodPost)
	api.HandleFunc("/test/screenshot", s.TestHandler.HandleScreenshot).Methods(http.MethodPost)
	api.HandleFunc("/test/trigger-threat", s.TestHandler.HandleTriggerThreat).Methods(http.MethodPost)

	// Demo controls
	api.Handle("/demo/reset-pet", protect(s.AdminHandler.HandleReset)).Methods(http.MethodPost)
	api.Handle("/demo/set-health", protect(s.AdminHandler.HandleSetHealth)).Methods(http.MethodPost)
	api.Handle("/audit-logs", protect(s.AdminHandler.HandleAuditLogs)).Methods(http.MethodGet)

	api.HandleFunc("/report", s.ReportHandler.HandleReport).Methods(http.MethodGet)

	return r
}
