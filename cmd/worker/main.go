package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	billingapp "github.com/sikka-software/Tanad-sub009/internal/application/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/cache"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/persistence"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/queue"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    "tanad-worker",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if !cfg.Queue.Enabled {
		log.Fatal("Queue is disabled; set queue.enabled and redis.enabled to run the worker")
	}

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry,
		telemetry.Process{Component: "worker", Environment: cfg.App.Env}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	dbOpts := persistence.Options{
		Logger: logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh)),
	}
	if tracerProvider.Enabled() && cfg.Telemetry.DBTraceEnabled {
		dbOpts.Plugins = []gorm.Plugin{telemetry.NewDBTracingPlugin(cfg.Telemetry, "postgresql")}
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// The worker shares the deduplication store with the API so an event
	// applied here is not applied again by a synchronous delivery
	store, err := cache.NewWebhookEventStore(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(false))
	if err != nil {
		log.Fatal("Failed to initialize webhook event store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing webhook event store", zap.Error(err))
		}
	}()

	webhooks := billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceConfig{
		Profiles: persistence.NewGormProfileRepository(db.DB),
		Store:    store,
		Logger:   log,
	})

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeStripeWebhook, queue.WebhookHandler(webhooks))

	srv := queue.NewServer(cfg.Redis, cfg.Queue, log)
	if err := srv.Start(registry.Mux()); err != nil {
		log.Fatal("Failed to start worker", zap.Error(err))
	}
	log.Info("Worker started",
		zap.String("redis", cfg.Redis.Addr()),
		zap.Int("concurrency", cfg.Queue.Concurrency),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")
	srv.Shutdown()
	log.Info("Worker exited gracefully")
}
