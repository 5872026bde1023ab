package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/sikka-software/Tanad-sub009/internal/application/billing"
	identityapp "github.com/sikka-software/Tanad-sub009/internal/application/identity"
	"github.com/sikka-software/Tanad-sub009/internal/application/media"
	partnerapp "github.com/sikka-software/Tanad-sub009/internal/application/partner"
	puklaapp "github.com/sikka-software/Tanad-sub009/internal/application/pukla"
	tradeapp "github.com/sikka-software/Tanad-sub009/internal/application/trade"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/auth"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/cache"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/persistence"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/printing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/queue"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/storage"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/telemetry"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/handler"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/middleware"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

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
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Tanad API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing is registered before the database so query spans nest under
	// request spans
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry,
		telemetry.Process{Component: "api", Version: version, Environment: cfg.App.Env}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
	dbOpts := persistence.Options{Logger: gormLog}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
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
	log.Info("Database connected")

	// Repositories and resource services
	enterpriseRepo := persistence.NewGormEnterpriseRepository(db.DB)
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	resources, err := router.NewResources(db.DB, log)
	if err != nil {
		log.Fatal("Failed to build resource services", zap.Error(err))
	}

	// Object storage for logos and avatars
	var objects storage.ObjectStorage
	var objectsBaseURL string
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(context.Background(), cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err))
		}
		objects, objectsBaseURL = s3Store, s3Store.BaseURL()
		log.Info("Object storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		memStore := storage.NewMemoryObjectStorage(cfg.App.URL + "/uploads")
		objects, objectsBaseURL = memStore, memStore.BaseURL
		log.Warn("Object storage disabled, uploads are kept in memory")
	}
	uploader := media.NewUploader(objects, objectsBaseURL, cfg.Storage.MaxFileSize, log)

	// Invoice PDFs
	var renderer printing.PDFRenderer = printing.DisabledRenderer{}
	if cfg.Chrome.Enabled {
		chrome := printing.NewChromedpRenderer(cfg.Chrome, log)
		defer func() {
			if err := chrome.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		renderer = chrome
	}

	// Application services
	tokens := auth.NewJWTService(cfg.Supabase)
	profileService := identityapp.NewProfileService(profileRepo, enterpriseRepo, log)
	puklaService := puklaapp.NewService(resources.Puklas, resources.PuklaRepo, uploader, cfg.App.URL, log)
	documentService := tradeapp.NewDocumentService(resources.Invoices, enterpriseRepo, renderer, cfg.Stripe.DefaultCurrency, log)
	logoService := partnerapp.NewLogoService(resources.Companies, uploader, log)

	handlers := router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, version, db),
		Profile:   handler.NewProfileHandler(profileService),
		Pukla:     handler.NewPuklaHandler(puklaService, cfg.Storage.MaxFileSize),
		Invoices:  handler.NewInvoiceDocumentHandler(documentService),
		Companies: handler.NewCompanyLogoHandler(logoService, cfg.Storage.MaxFileSize),
		Resources: resources.Handlers,
	}

	// Billing is mounted only with a Stripe key
	if cfg.Stripe.Enabled() {
		stripeCfg := billing.FromConfig(cfg.Stripe)
		gateway, err := billing.NewStripeAdapter(stripeCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe", zap.Error(err))
		}

		webhookStore, err := cache.NewWebhookEventStore(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
		)
		if err != nil {
			log.Fatal("Failed to initialize webhook event store", zap.Error(err))
		}
		defer func() {
			if err := webhookStore.Close(); err != nil {
				log.Error("Error closing webhook event store", zap.Error(err))
			}
		}()

		webhookCfg := billingapp.StripeWebhookServiceConfig{
			Parser:   stripeCfg,
			Profiles: profileRepo,
			Store:    webhookStore,
			Logger:   log,
		}
		if cfg.Queue.Enabled {
			queueClient := queue.NewClient(cfg.Redis)
			defer func() {
				if err := queueClient.Close(); err != nil {
					log.Error("Error closing queue client", zap.Error(err))
				}
			}()
			webhookCfg.Queue = queueClient
			log.Info("Stripe webhooks are processed by the worker")
		}

		handlers.Billing = handler.NewBillingHandler(
			billingapp.NewSubscriptionService(gateway, profileRepo, log),
			billingapp.NewStripeWebhookService(webhookCfg),
		)
		log.Info("Billing enabled", zap.Bool("test_mode", cfg.Stripe.IsTestMode()))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start the request span
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(middleware.BodyLimitConfig{
		MaxBytes:       cfg.HTTP.MaxBodySize,
		MaxUploadBytes: cfg.Storage.MaxFileSize,
	}))

	r := router.NewRouter(engine, router.WithSession(
		middleware.SessionAuth(middleware.SessionConfig{
			Tokens:   tokens,
			Profiles: profileService,
			Logger:   log,
		}),
		middleware.SpanAttributes(),
	))
	router.Mount(r, handlers)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
