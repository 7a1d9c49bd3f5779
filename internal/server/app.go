// Package server wires the niceweather components together: storage,
// session handling, push providers, the weather job, and the gRPC and
// metrics listeners. It also handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/cryptox"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/config"
	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/niceweather/internal/server/services"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"

	gs "github.com/dmitrijs2005/niceweather/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	sessions   *services.SessionService
	registry   *services.PushTokenRegistry
	locations  *services.LocationService
	dispatcher *services.Dispatcher
	job        *services.WeatherJob
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	db, dialect, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewSQLRepositoryManager(db, dialect)
	if err := rm.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, dt := range []models.DeviceType{models.DeviceTypeIOS, models.DeviceTypeWeb} {
		if _, ok := providers[dt]; !ok {
			logger.Warn(ctx, "push provider disabled, credentials not configured", "device_type", dt)
		}
	}

	c := clock.Real{}
	registry := services.NewPushTokenRegistry(db, rm, c, logger)
	dispatcher := services.NewDispatcher(registry, providers, cfg.DispatchConcurrency, logger)
	forecaster := weather.NewOpenMeteo(cfg.OpenMeteoBaseURL, cfg.ForecastCacheTTL, &http.Client{Timeout: 10 * time.Second})

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		sessions:   services.NewSessionService(db, rm, cfg, cryptox.ScryptHasher{}, c, logger),
		registry:   registry,
		locations:  services.NewLocationService(db, rm, c),
		dispatcher: dispatcher,
		job: services.NewWeatherJob(db, rm, forecaster, dispatcher, c, logger, services.WeatherJobConfig{
			Interval:        cfg.WeatherJobInterval,
			NiceTemperature: cfg.NiceTemperature,
			Cooldown:        cfg.NotifyCooldown,
		}),
	}, nil
}

// buildProviders returns a provider per device type whose credentials are
// configured.
func buildProviders(cfg *config.Config) (map[models.DeviceType]push.Provider, error) {
	providers := make(map[models.DeviceType]push.Provider)

	if cfg.APNSKeyFile != "" {
		p, err := push.NewAPNSProvider(push.APNSConfig{
			KeyFile:    cfg.APNSKeyFile,
			KeyID:      cfg.APNSKeyID,
			TeamID:     cfg.APNSTeamID,
			Topic:      cfg.APNSTopic,
			Production: cfg.APNSProduction,
		})
		if err != nil {
			return nil, fmt.Errorf("apns init error: %w", err)
		}
		providers[models.DeviceTypeIOS] = p
	}

	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		providers[models.DeviceTypeWeb] = push.NewWebPushProvider(push.WebPushConfig{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubscriber,
		})
	}

	return providers, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger,
		app.sessions, app.registry, app.locations, app.dispatcher, app.job)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a listener fails, then
// stops the weather job and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "session_mode", app.config.SessionMode)

	app.initSignalHandler(cancelFunc)

	if err := app.job.Start(ctx); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("weather job start error: %w", err)
	}

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

	wg.Wait()

	app.logger.Info(ctx, "Stopping app...")
	app.job.Stop()
	return app.db.Close()
}
