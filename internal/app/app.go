package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lcalzada-xor/cyberpet/internal/adapters/alerting"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/oracle"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/reporting"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/screen"
	"github.com/lcalzada-xor/cyberpet/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/cyberpet/internal/adapters/web/server"
	"github.com/lcalzada-xor/cyberpet/internal/config"
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/audit"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/broadcast"
	grpcserver "github.com/lcalzada-xor/cyberpet/internal/core/services/grpc"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/guardian"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/heuristics"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/monitor"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/persistence"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/pet"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
)

const (
	archiveBuffer    = 1000
	subscriberWait   = 5 * time.Second
	stopMonitorGrace = 2 * time.Minute
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config     *config.Config
	Guardian   *guardian.Service
	Scheduler  *monitor.Scheduler
	Hub        *broadcast.Hub
	Archiver   *persistence.EventArchiver
	WebServer  *webserver.Server
	GrpcServer *grpcserver.GrpcServer

	db      *storage.SQLiteAdapter
	closers []io.Closer
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		app.closeAll()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}

	store, err := app.initSnapshotStore()
	if err != nil {
		return err
	}

	rules, err := heuristics.LoadRules(app.Config.RulesPath)
	if err != nil {
		slog.Warn("Could not load heuristics rules, using defaults", "path", app.Config.RulesPath, "error", err)
	}

	// 2. Domain Services
	app.Archiver = persistence.NewEventArchiver(app.db, archiveBuffer)

	petMachine := pet.NewMachine(context.Background(), store)
	petMachine.SetArchive(app.Archiver)

	app.Hub = broadcast.NewHub(subscriberWait)

	// 3. Monitoring
	source, err := app.initScreenSource()
	if err != nil {
		return err
	}

	if app.Config.GoogleAPIKey == "" {
		slog.Warn("GOOGLE_API_KEY is not set; screen analysis will fail until it is configured")
	}
	gemini := oracle.NewGemini(app.Config.OracleURL, app.Config.GoogleAPIKey, app.Config.OracleModel, app.Config.OracleTimeout)

	alerts, err := app.initAlerts()
	if err != nil {
		return err
	}

	app.Scheduler = monitor.NewScheduler(monitor.Config{
		Interval:      app.Config.Interval,
		ErrorBackoff:  app.Config.ErrorBackoff,
		OracleTimeout: app.Config.OracleTimeout,
	}, source, gemini, petMachine, app.Hub, alerts)

	app.Guardian = guardian.NewService(guardian.Deps{
		Pet:        petMachine,
		Hub:        app.Hub,
		Classifier: heuristics.NewClassifier(rules),
		Sampler:    app.Scheduler,
		Monitor:    app.Scheduler,
		Alerts:     alerts,
		Audit:      audit.NewAuditService(app.db),
		Archive:    app.Archiver,
	})

	// 4. Servers
	app.initServers()
	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init system storage: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)
	return nil
}

func (app *Application) initSnapshotStore() (ports.SnapshotStore, error) {
	switch app.Config.Store {
	case config.StoreFile:
		return storage.NewFileStore(app.Config.StatePath), nil
	case config.StoreSQLite:
		return app.db, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: app.Config.RedisAddr})
		store := storage.NewRedisStore(client, app.Config.RedisKey)
		app.closers = append(app.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", app.Config.Store)
	}
}

func (app *Application) initScreenSource() (ports.ScreenshotSource, error) {
	switch app.Config.Capture {
	case config.CaptureChrome:
		src := screen.NewChromeSource(app.Config.CaptureURL)
		app.closers = append(app.closers, src)
		return src, nil
	case config.CaptureFile:
		return screen.NewFileSource(app.Config.CaptureFile), nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", app.Config.Capture)
	}
}

func (app *Application) initAlerts() (ports.AlertSink, error) {
	fileSink, err := alerting.NewFileSink(app.Config.PopupFile)
	if err != nil {
		return nil, fmt.Errorf("popup trigger: %w", err)
	}
	if app.Config.WebhookURL == "" {
		return fileSink, nil
	}

	webhook, err := alerting.NewWebhookSink(app.Config.WebhookURL, 0)
	if err != nil {
		return nil, fmt.Errorf("alert webhook: %w", err)
	}
	return alerting.MultiSink{fileSink, webhook}, nil
}

func (app *Application) initServers() {
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Guardian, app.Hub, reporting.NewPDFExporter(), webserver.Options{
		AdminTokenHash: app.Config.AdminTokenHash,
	})

	app.GrpcServer = grpcserver.NewGrpcServer()
	app.Scheduler.SetStateObserver(app.GrpcServer.OnMonitorState)
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting CyberPet components...")

	// The archiver outlives ctx so events from the final cycle are kept.
	archiveCtx, stopArchiver := context.WithCancel(context.Background())
	defer stopArchiver()
	app.Archiver.Start(archiveCtx)

	errChan := make(chan error, 2)

	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	go func() {
		slog.Info("gRPC health server listening", "port", app.Config.GRPCPort)
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", app.Config.GRPCPort))
		if err != nil {
			errChan <- fmt.Errorf("grpc listen error: %w", err)
			return
		}

		go func() {
			<-ctx.Done()
			app.GrpcServer.GracefulStop()
		}()

		if err := app.GrpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	if app.Config.AutoStart {
		slog.Info("Monitoring autostart", "result", app.Scheduler.Start(), "interval", app.Config.Interval)
	}

	slog.Info("CyberPet Ready. Press Ctrl+C to terminate.")

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case runErr = <-errChan:
	}

	return errors.Join(runErr, app.cleanup(stopArchiver))
}

// cleanup stops the loop, waiting for an in-flight cycle, then flushes the
// archive and releases storage.
func (app *Application) cleanup(stopArchiver context.CancelFunc) error {
	slog.Info("Cleaning up resources...")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopMonitorGrace)
	defer cancel()
	if result := app.Scheduler.Stop(stopCtx); result != domain.StatusNotRunning {
		slog.Info("Monitoring stopped", "result", result)
	}

	app.Hub.Close()

	stopArchiver()
	<-app.Archiver.Done()

	return app.closeAll()
}

func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
