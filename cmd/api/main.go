package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/drivelane/appraisal-backend/api/routes"
	"github.com/drivelane/appraisal-backend/internal/evaluations"
	"github.com/drivelane/appraisal-backend/internal/notifications"
	"github.com/drivelane/appraisal-backend/internal/photos"
	"github.com/drivelane/appraisal-backend/internal/pricing"
	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/db"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/migrate"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/redis"
	"github.com/drivelane/appraisal-backend/pkg/storage/gcs"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	priceSource, err := pricing.NewFipeClient(pricing.FipeClientParams{
		Config: cfg.Pricing,
		Cache:  redisClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing client", err)
		os.Exit(1)
	}

	engine, err := valuation.NewEngine(priceSource)
	if err != nil {
		logg.Error(context.Background(), "failed to build valuation engine", err)
		os.Exit(1)
	}

	valuationConfig, err := valuation.ConfigFromEnv(cfg.Valuation)
	if err != nil {
		logg.Error(context.Background(), "invalid valuation config", err)
		os.Exit(1)
	}

	evaluationsRepo := evaluations.NewRepository(dbClient.DB())
	evaluationsService, err := evaluations.NewService(evaluations.ServiceParams{
		Repo:             evaluationsRepo,
		Tx:               dbClient,
		Outbox:           outboxService,
		Engine:           engine,
		ValuationConfig:  valuationConfig,
		ApprovalValidity: cfg.Valuation.ApprovalValidity(),
		Logger:           logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create evaluations service", err)
		os.Exit(1)
	}

	photosService, err := photos.NewService(photos.ServiceParams{
		Repo:        photos.NewRepository(dbClient.DB()),
		Evaluations: evaluationsRepo,
		Tx:          dbClient,
		Outbox:      outboxService,
		GCS:         gcsClient,
		GCSConfig:   cfg.GCS,
		PhotoConfig: cfg.Photos,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create photos service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, gcsClient, evaluationsService, photosService, notificationsService),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		ctx = logg.WithField(ctx, "signal", sig.String())
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
