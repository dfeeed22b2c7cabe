package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/checkin/internal/checkin/http"
	"github.com/aussiebroadwan/checkin/internal/checkin/report"
	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/postgres"
	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/sqlite"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the checkin services to their two HTTP servers.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	registry *prometheus.Registry
	metrics  *service.Metrics

	keys          *service.KeyRotator
	bindings      *service.BindingStore
	attendance    *service.AttendanceTracker
	sessions      *service.SessionAuthorizer
	reportService *service.ReportService

	server    *http.Server
	keyServer *http.Server
}

// New creates an Application, connecting to the database and loading the
// persisted bindings.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "checkin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = service.NewMetrics(app.registry)

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts both servers and the background workers and blocks until a
// shutdown signal or a server failure.
func (app *Application) Run() error {
	app.keys.Start()
	app.reportService.Start()

	app.logger.Info("checkin service starting",
		"port", app.cfg.Port,
		"key_port", app.cfg.KeyPort,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 2)
	for _, srv := range []*http.Server{app.server, app.keyServer} {
		go func() {
			serverErrors <- srv.ListenAndServe()
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the servers, then the workers, then closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down checkin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	for _, srv := range []*http.Server{app.server, app.keyServer} {
		if err := srv.Shutdown(ctx); err != nil {
			app.logger.Error("graceful server shutdown failed", "addr", srv.Addr, "error", err)
			if err := srv.Close(); err != nil {
				app.logger.Error("error closing server", "addr", srv.Addr, "error", err)
			}
		}
	}

	app.reportService.Stop()
	app.keys.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("checkin service stopped")
	return nil
}

// initDatabase opens the configured store, retrying at a constant interval
// while the database is unreachable, and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	open := func() (store.Store, error) {
		switch app.cfg.DatabaseDriver {
		case "postgres":
			if app.cfg.DatabaseURL == "" {
				return nil, backoff.Permanent(errors.New("DATABASE_URL is required for the postgres driver"))
			}
			return postgres.NewStore(ctx, app.cfg.DatabaseURL)
		case "sqlite", "":
			return sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
		default:
			return nil, backoff.Permanent(fmt.Errorf("unknown DATABASE_DRIVER %q", app.cfg.DatabaseDriver))
		}
	}

	retries := max(app.cfg.DBConnectRetries, 0)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(app.cfg.DBConnectDelay), uint64(retries)),
		ctx,
	)

	var db store.Store
	err := backoff.RetryNotify(func() error {
		var err error
		db, err = open()
		return err
	}, policy, func(err error, next time.Duration) {
		app.logger.Warn("database unavailable, retrying", "driver", app.cfg.DatabaseDriver, "error", err, "retry_in", next)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices builds the key rotator, the binding index and the attendance
// services, and selects the report sink.
func (app *Application) initServices(ctx context.Context) error {
	source, err := app.codeSource()
	if err != nil {
		return err
	}

	keys, err := service.NewKeyRotator(source, app.cfg.KeyRotationInterval, app.cfg.KeyValidity, app.logger)
	if err != nil {
		return fmt.Errorf("failed to issue first rotating key: %w", err)
	}
	keys.Metrics = app.metrics
	app.keys = keys

	bindings, err := service.NewBindingStore(ctx, app.db, app.logger, app.metrics)
	if err != nil {
		return fmt.Errorf("failed to load device bindings: %w", err)
	}
	app.bindings = bindings

	app.attendance = &service.AttendanceTracker{
		Store:    app.db,
		Bindings: bindings,
		Location: app.cfg.Location,
		Logger:   app.logger,
		Metrics:  app.metrics,
	}

	app.sessions = &service.SessionAuthorizer{
		Keys:       keys,
		Bindings:   bindings,
		Attendance: app.attendance,
		Logger:     app.logger,
		Metrics:    app.metrics,
	}

	sink, err := app.reportSink(ctx)
	if err != nil {
		return err
	}
	app.reportService = service.NewReportService(app.attendance, sink, app.cfg.Location, app.logger)
	app.reportService.Metrics = app.metrics

	return nil
}

func (app *Application) codeSource() (service.CodeSource, error) {
	switch app.cfg.KeySource {
	case "totp":
		src, err := service.NewTOTPSource(app.cfg.KeyRotationInterval)
		if err != nil {
			return nil, err
		}
		app.logger.Info("rotating keys derived from a per-process totp secret")
		return src, nil
	case "random", "":
		return service.RandomSource{}, nil
	default:
		return nil, fmt.Errorf("unknown KEY_SOURCE %q", app.cfg.KeySource)
	}
}

func (app *Application) reportSink(ctx context.Context) (report.Sink, error) {
	s3cfg := app.cfg.ReportS3
	if s3cfg.Bucket == "" {
		app.logger.Info("weekly reports written to directory", "dir", app.cfg.ReportDir)
		return report.FileSink{Dir: app.cfg.ReportDir}, nil
	}

	sink, err := report.NewS3Sink(ctx, report.S3Config{
		Bucket:    s3cfg.Bucket,
		Prefix:    s3cfg.Prefix,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		AccessKey: s3cfg.AccessKey,
		SecretKey: s3cfg.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure s3 report sink: %w", err)
	}
	app.logger.Info("weekly reports written to s3", "bucket", s3cfg.Bucket, "prefix", s3cfg.Prefix)
	return sink, nil
}

// initHTTP builds the attendance and key routers and their servers.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger, app.cfg.TrustProxyHeaders)
	router.Keys = app.keys
	router.Sessions = app.sessions
	router.Attendance = app.attendance
	router.Location = app.cfg.Location
	router.Gatherer = app.registry
	router.ApplyRoutes()

	keyRouter := httpapi.NewKeyRouter(BuildVersion, app.keys, app.logger)
	keyRouter.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	app.keyServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.KeyPort),
		Handler:           keyRouter,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
