package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/ecommerce/backend/docs"
	"github.com/ecommerce/backend/internal/application/catalog"
	"github.com/ecommerce/backend/internal/application/identity"
	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/cache"
	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/notification"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/internal/infrastructure/scheduler"
	"github.com/ecommerce/backend/internal/infrastructure/storage"
	"github.com/ecommerce/backend/internal/infrastructure/telemetry"
	"github.com/ecommerce/backend/internal/interfaces/http/handler"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
	"github.com/ecommerce/backend/internal/interfaces/http/router"
)

//	@title			E-commerce Backend API
//	@version		1.0
//	@description	Accounts, organizations and the product catalog.

//	@contact.name	API Support

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if providers.Logs.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		otlpCore := providers.Logs.ZapCore(level)
		log = log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, otlpCore)
		}))
	}

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		return fmt.Errorf("start profiler: %w", err)
	}
	defer func() { _ = profiler.Stop() }()
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		providers.Tracer.EnableSpanProfiles()
	}

	log.Info("Starting backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
			logger.WithSlowThreshold(cfg.Database.SlowThreshold))))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:     cfg.Database.DBName,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		SlowQuery:  cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		return fmt.Errorf("register db tracing: %w", err)
	}
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(ctx); err != nil {
			return err
		}
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	log.Info("Database connected")

	promRegistry := telemetry.NewRegistry()
	if err := promRegistry.WatchDB(sqlDB, cfg.Database.DBName); err != nil {
		return fmt.Errorf("register db stats: %w", err)
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(promRegistry.Registerer())
	if err != nil {
		return err
	}
	gatewayMetrics, err := telemetry.NewGatewayMetrics(providers.Meter.Meter("github.com/ecommerce/backend/persistence"))
	if err != nil {
		return err
	}

	registry, err := models.NewRegistry()
	if err != nil {
		return fmt.Errorf("resolve schema registry: %w", err)
	}
	store, err := persistence.NewStore(db.DB, registry,
		persistence.WithLogger(log),
		persistence.WithObserver(gatewayMetrics),
		persistence.WithTransactionTimeout(cfg.Workflow.TransactionTimeout),
	)
	if err != nil {
		return err
	}

	var (
		notifier  notification.Notifier = notification.NewLogNotifier(log)
		blacklist auth.TokenBlacklist   = auth.NewInMemoryTokenBlacklist()
		idem      middleware.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		notifier = notification.NewRedisNotifier(client, cfg.Redis.NotificationQueue)
		blacklist = auth.NewRedisTokenBlacklist(client)
		idem = cache.NewRedisIdempotencyStore(client, "")
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Address()))
	} else {
		log.Warn("Redis disabled: notifications are only logged, token revocation and idempotency keys are per process")
		mem := cache.NewInMemoryIdempotencyStore(5 * time.Minute)
		defer func() { _ = mem.Close() }()
		idem = mem
	}

	var objects catalog.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			return err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return err
		}
		objects = s3
	} else {
		log.Warn("Object storage disabled: image URLs point at a local stub")
		objects = storage.NewStubObjectStorage("http://localhost:" + cfg.App.Port + "/storage")
	}

	jwtService, err := auth.NewJWTService(cfg.JWT)
	if err != nil {
		return err
	}
	users := identity.NewUserService(identity.NewPasswordPolicy(cfg.Password), cfg.Password.BcryptCost, log)
	authService := identity.NewAuthService(store, users, jwtService, blacklist, notifier, log)
	orgService := organization.NewService(store, users, notifier, cfg.Workflow, log)

	jobs := scheduler.New(log)
	if err := jobs.Add(scheduler.Task{
		Name:     "purge-expired-tokens",
		Interval: cfg.Workflow.PurgeInterval,
		Run: func(ctx context.Context) error {
			_, err := orgService.PurgeExpired(ctx)
			return err
		},
	}); err != nil {
		return err
	}
	jobs.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := jobs.Stop(stopCtx); err != nil {
			log.Warn("Scheduler did not stop in time", zap.Error(err))
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Deps{
		Config:         cfg,
		Logger:         log,
		JWT:            jwtService,
		Blacklist:      blacklist,
		Idempotency:    idem,
		Metrics:        httpMetrics,
		MetricsHandler: promRegistry.Handler(),
		Users:          handler.NewUserHandler(authService),
		Products: handler.NewProductHandler(
			catalog.NewProductService(store, log),
			catalog.NewImageService(store, objects, log),
		),
		Organizations: handler.NewOrganizationHandler(orgService),
		System:        handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, sqlDB),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}
