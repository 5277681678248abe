// Package server wires the sessionkeeper server together: configuration,
// the Postgres connection and migrations, the session service, audit sinks,
// the metrics endpoint and the gRPC server, and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/audit"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

const auditBuffer = 1024

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	metrics  *metrics.Metrics
	// archive is nil unless S3 auditing is enabled.
	archive *audit.AsyncSink
}

// NewApp connects to the database, applies migrations and builds every
// component. Configuration errors surface here, before anything listens.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env, os.Stdout)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, rm)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	tokens, err := auth.NewTokenIssuer(c.TokenConfig())
	if err != nil {
		return nil, err
	}

	passwords, err := auth.NewPasswordHasher(c.PasswordCost, 0)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}

	sink, err := app.auditSink(ctx)
	if err != nil {
		return nil, err
	}

	app.sessions = services.NewSessionService(dbx.NewTransactor(db), rm, tokens, passwords, c.OwnerRoleID,
		services.WithLogger(logger),
		services.WithAuditSink(sink),
	)

	return app, nil
}

// auditSink fans session events out to the log and the metrics, plus an
// asynchronous S3 archive when enabled.
func (app *App) auditSink(ctx context.Context) (audit.Sink, error) {
	sinks := []audit.Sink{audit.NewLoggerSink(app.logger), app.metrics}

	if app.config.AuditS3Enabled {
		client, err := audit.NewS3Client(ctx, audit.S3Settings{
			Region:       app.config.S3Region,
			AccessKey:    app.config.S3RootUser,
			SecretKey:    app.config.S3RootPassword,
			Bucket:       app.config.S3Bucket,
			BaseEndpoint: app.config.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.archive = audit.NewAsyncSink(audit.NewS3Sink(client, app.config.S3Bucket, app.logger), auditBuffer, app.logger)
		sinks = append(sinks, app.archive)
	}

	return audit.Multi(sinks...), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions,
		gs.WithRequestObserver(app.metrics),
		gs.WithRequestTimeout(app.config.RequestTimeout),
	)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.metrics.Serve(ctx, app.config.MetricsAddr, app.logger); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// drains the audit archive and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	if app.archive != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.archive.Run(ctx)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
