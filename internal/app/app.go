package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/cron"
	"github.com/medigate/medigate-cli/internal/devserver"
	"github.com/medigate/medigate-cli/internal/fixtures"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/securestore"
	"github.com/medigate/medigate-cli/internal/services"
	"github.com/medigate/medigate-cli/internal/session"
	"github.com/medigate/medigate-cli/internal/store"
	"go.uber.org/zap"
)

type App struct {
	Config      *config.Config
	Store       *store.Store
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Dataset     *fixtures.Dataset
	Credentials *securestore.Store
	Client      *api.Client
	Services    *services.Services
	Session     *session.Aggregator
	CronRunner  *cron.Runner
	Version     string

	watcher *fixtures.Watcher
}

// New wires the client stack on top of an opened store.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dataset, err := LoadDataset(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	creds := securestore.New(st, logger)
	client := api.New(cfg, dataset, creds, m, logger)
	svc := services.New(client, st, services.Options{
		CollectorURL:     cfg.Feedback.CollectorURL,
		CollectorTimeout: cfg.Timeout(),
	}, logger)

	app := &App{
		Config:      cfg,
		Store:       st,
		Logger:      logger,
		Metrics:     m,
		Dataset:     dataset,
		Credentials: creds,
		Client:      client,
		Services:    svc,
		Session:     session.New(svc, m, logger),
		Version:     version,
	}

	if cfg.Feedback.CollectorURL != "" {
		runner, err := cron.NewRunner(cron.Config{
			Schedule: cfg.Feedback.SyncSchedule,
			Timeout:  cfg.Timeout(),
		}, svc.Feedback, logger)
		if err != nil {
			return nil, err
		}
		app.CronRunner = runner
	}

	if cfg.Fixtures.Watch && cfg.Fixtures.Path != "" {
		app.watcher = fixtures.NewWatcher(cfg.Fixtures.Path, dataset, logger)
	}

	return app, nil
}

// LoadDataset reads the configured fixture file, or the bundled one when
// no path is set.
func LoadDataset(cfg *config.Config, logger *zap.Logger) (*fixtures.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Fixtures.Path == "" {
		data, err := fixtures.Bundled()
		if err != nil {
			logger.Warn("Bundled fixtures unreadable, using empty dataset", zap.Error(err))
			data = fixtures.Fallback()
		}
		return fixtures.NewDataset(data), nil
	}

	data, err := fixtures.LoadFile(cfg.Fixtures.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	return fixtures.NewDataset(data), nil
}

// Start launches the background workers: the fixture watcher and the
// feedback resync schedule.
func (app *App) Start(ctx context.Context) error {
	if app.watcher != nil {
		if err := app.watcher.Start(ctx); err != nil {
			return err
		}
	}
	if app.CronRunner != nil {
		if err := app.CronRunner.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the workers, waits for in-flight feedback deliveries and
// closes the store.
func (app *App) Close() error {
	if app.CronRunner != nil {
		app.CronRunner.Stop()
	}
	if app.watcher != nil {
		app.watcher.Stop()
	}
	app.Services.Feedback.Wait()

	if app.Store == nil {
		return nil
	}
	return app.Store.Close()
}

// NewDevServer builds a fixture server over the app's dataset.
func (app *App) NewDevServer() *devserver.Server {
	backend := api.NewFixtureBackend(app.Dataset, api.FixtureOptions{
		Latency: app.Config.FixtureLatency(),
		Secret:  []byte(app.Config.DevServer.JWTSecret),
	}, app.Logger)
	return devserver.New(app.Config, backend, app.Metrics, app.Logger)
}

// RunServer serves the fixture API until SIGINT or SIGTERM.
func (app *App) RunServer() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	server := app.NewDevServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	app.Logger.Info("Server started",
		zap.String("address", server.Addr()),
		zap.Int("doctors", len(app.Dataset.Snapshot().Doctors)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	app.Logger.Info("Shutting down...")
	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
	return nil
}
