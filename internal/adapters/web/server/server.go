// Package server wires the HTTP handlers into a router and runs the listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options tune the HTTP surface.
type Options struct {
	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty
	// leaves admin endpoints open.
	AdminTokenHash string
	// IngestLimit caps security events per client per minute.
	IngestLimit    int
	AllowedOrigins []string
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr    string
	Service ports.GuardianService
	Options Options

	WSManager      *websocket.WSManager
	PetHandler     *handlers.PetHandler
	MonitorHandler *handlers.MonitorHandler
	TestHandler    *handlers.TestHandler
	AdminHandler   *handlers.AdminHandler
	ReportHandler  *handlers.ReportHandler
	srv            *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, service ports.GuardianService, hub websocket.Registry, renderer handlers.ReportRenderer, opts Options) *Server {
	if opts.IngestLimit <= 0 {
		opts.IngestLimit = 60
	}
	return &Server{
		Addr:    addr,
		Service: service,
		Options: opts,

		WSManager:      websocket.NewWSManager(hub, opts.AllowedOrigins...),
		PetHandler:     handlers.NewPetHandler(service),
		MonitorHandler: handlers.NewMonitorHandler(service),
		TestHandler:    handlers.NewTestHandler(service),
		AdminHandler:   handlers.NewAdminHandler(service),
		ReportHandler:  handlers.NewReportHandler(service, renderer),
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler(ctx context.Context) http.Handler {
	return otelhttp.NewHandler(SetupRoutes(ctx, s), "cyberpet-server")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Web server shutdown error", "error", err)
		}
	}()

	slog.Info("Web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
