package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drivelane/appraisal-backend/internal/cron"
	"github.com/drivelane/appraisal-backend/internal/evaluations"
	"github.com/drivelane/appraisal-backend/internal/pricing"
	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/db"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/metrics"
	"github.com/drivelane/appraisal-backend/pkg/migrate"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/redis"
)

const (
	lockKeyFormat = "appraisal:cron-worker:lock:%s"
	cronInterval  = time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

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

	evaluationsService, err := evaluations.NewService(evaluations.ServiceParams{
		Repo:             evaluations.NewRepository(dbClient.DB()),
		Tx:               dbClient,
		Outbox:           outboxService,
		Engine:           engine,
		ValuationConfig:  valuationConfig,
		ApprovalValidity: cfg.Valuation.ApprovalValidity(),
		Logger:           logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build evaluations service", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewEvaluationExpiryJob(cron.EvaluationExpiryJobParams{
		Logger:      logg,
		Evaluations: evaluationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build evaluation expiry job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		Repository:    outboxRepo,
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(expiryJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
