// @title                       Parcel Tracker API
// @version                     1.0
// @description                 Simulated parcel progress, live tracking and reconciliation.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/api"
	"github.com/99minutos/parcel-tracker/internal/api/handler"
	"github.com/99minutos/parcel-tracker/internal/core/service"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/config"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/db/mongo"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/db/redis"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/queue"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/scheduler"
	"github.com/99minutos/parcel-tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "parcel-tracker",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	parcelRepo := mongo.NewParcelRepository(db)
	eventRepo := mongo.NewEventRepository(db)
	authRepo := mongo.NewAuthRepository(db)
	if err := mongo.EnsureIndexes(ctx, parcelRepo, eventRepo, authRepo); err != nil {
		return err
	}

	notifier := redis.NewNotifier(redisClient, logger.Component("notifier"))
	dispatcher := queue.NewDispatcher(cfg.Progress.NotifyWorkers, notifier, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	engine := service.NewProgressService(
		parcelRepo,
		eventRepo,
		dispatcher,
		redis.NewPassLock(redisClient, cfg.Progress.LockTTL),
		service.ProgressConfig{Concurrency: cfg.Progress.Concurrency},
		logger.Component("progress"),
	)
	parcels := service.NewParcelService(parcelRepo, eventRepo, notifier, logger.Component("parcels"))
	auth := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)

	go scheduler.NewTicker(engine, cfg.Progress.Interval, cfg.Progress.PassTimeout(), logger.Component("scheduler")).Run(ctx)

	e := api.NewRouter(api.Dependencies{
		Parcels: parcels,
		Auth:    auth,
		Engine:  engine,
		Health: map[string]handler.Pinger{
			"mongodb": mongo.Pinger{Client: mongoClient},
			"redis":   redis.Pinger{Client: redisClient},
		},
		JWTSecret: cfg.JWTSecret,
		APIKey:    cfg.ReconcileAPIKey,
		Log:       logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
