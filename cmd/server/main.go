package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	app "github.com/classsync/backend/internal/application/reconcile"
	domain "github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/infrastructure/cache"
	"github.com/classsync/backend/internal/infrastructure/config"
	"github.com/classsync/backend/internal/infrastructure/logger"
	"github.com/classsync/backend/internal/infrastructure/persistence"
	"github.com/classsync/backend/internal/infrastructure/scheduler"
	"github.com/classsync/backend/internal/infrastructure/shop"
	"github.com/classsync/backend/internal/interfaces/http/handler"
	"github.com/classsync/backend/internal/interfaces/http/middleware"
	"github.com/classsync/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ClassSync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database with zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs the best-effort detail cache only; the app runs degraded
	// without it
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()

	// Repositories
	recordRepo := persistence.NewGormOrderRecordRepository(db.DB)
	historyRepo := persistence.NewGormStatusHistoryRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)
	scheduleRepo := persistence.NewGormStoreScheduleRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)

	// Shop API client behind the credential coordinator
	tokenClient := shop.NewTokenClient(cfg.Shop)
	coordinator := shop.NewCredentialCoordinator(credentialRepo, tokenClient, cfg.Shop, log)
	shopClient := shop.NewClient(cfg.Shop, coordinator)
	details := cache.NewRedisDetailCache(shopClient, redisClient, cfg.Redis.CacheTTL, log)

	// Application services
	workflow := domain.NewWorkflow(domain.DefaultRuleSet())
	plannerConfig := app.DefaultWindowPlannerConfig()
	plannerConfig.Overlap = time.Duration(cfg.Sync.OverlapHours) * time.Hour
	plannerConfig.DefaultRangeDays = cfg.Sync.DefaultRangeDays
	plannerConfig.MaxRangeDays = cfg.Sync.MaxRangeDays
	planner := app.NewWindowPlanner(plannerConfig)

	merger := app.NewMerger(recordRepo, details, workflow, log)
	syncService := app.NewSyncService(
		shopClient, planner, merger,
		runRepo, recordRepo, historyRepo,
		workflow, nil, details, log,
		app.SyncConfig{
			PageSize:       cfg.Sync.PageSize,
			PageInterval:   cfg.Sync.PageInterval,
			StaleThreshold: cfg.Sync.StaleThreshold,
		},
	)
	statusService := app.NewStatusService(recordRepo, historyRepo, workflow, nil, log)
	scheduleService := app.NewScheduleService(scheduleRepo, coordinator, log)
	recordService := app.NewRecordService(recordRepo, log)

	// Scheduler loop
	loop := scheduler.NewLoop(syncService, scheduleService, cfg.Scheduler, log)
	if cfg.Scheduler.Enabled {
		loop.Start(context.Background())
		defer loop.Stop()
	} else {
		log.Info("Scheduler loop disabled by configuration")
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithOrigins(cfg.HTTP.CORSAllowOrigins))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db, version))
	r.Register(handler.NewSyncHandler(syncService))
	r.Register(handler.NewScheduleHandler(scheduleService))
	r.Register(handler.NewRecordHandler(recordService, statusService))
	r.Register(handler.NewSchedulerHandler(loop.Feed()))
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
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
