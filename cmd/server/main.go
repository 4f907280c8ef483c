package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskmirror/backend/api/handler"
	"github.com/taskmirror/backend/internal/config"
	"github.com/taskmirror/backend/internal/infrastructure/monitor"
	"github.com/taskmirror/backend/internal/infrastructure/outbox"
	pgInfra "github.com/taskmirror/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskmirror/backend/internal/infrastructure/redis"
	"github.com/taskmirror/backend/internal/infrastructure/reminders"
	"github.com/taskmirror/backend/internal/middleware"
	"github.com/taskmirror/backend/internal/router"
	"github.com/taskmirror/backend/internal/services"
	"github.com/taskmirror/backend/internal/services/lifecycle"
	"github.com/taskmirror/backend/pkg/httpcontext"
	"github.com/taskmirror/backend/pkg/logger"
	"github.com/taskmirror/backend/repository/postgres"
	redisRepo "github.com/taskmirror/backend/repository/redis"
	"github.com/taskmirror/backend/usecase/reconcile"
	"github.com/taskmirror/backend/usecase/series"
	settingsUC "github.com/taskmirror/backend/usecase/settings"
	taskUC "github.com/taskmirror/backend/usecase/task"
	"github.com/taskmirror/backend/usecase/undo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	taskRepo := postgres.NewTaskRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	registryRepo := redisRepo.NewExternalIDRegistry(redisClient)

	reminderClient := reminders.NewClient(cfg.Reminders, zapLogger)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		reminderClient,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.DrainInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHrs) * time.Hour,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	exportBridge := services.NewExportBridge(outboxProcessor)

	seriesManager := series.New(taskRepo, zapLogger)
	undoManager := undo.New(taskRepo, zapLogger)
	engine := reconcile.New(taskRepo, settingsRepo, registryRepo, reportRepo, reminderClient, nil, zapLogger)

	taskUseCase := taskUC.New(taskRepo, settingsRepo, seriesManager, undoManager, exportBridge, zapLogger)
	settingsUseCase := settingsUC.New(settingsRepo, reminderClient, zapLogger)

	// Self-heal recurring series before serving traffic. A crash between
	// completion and spawn leaves a series without a pending occurrence;
	// this pass puts one back.
	if err := seriesManager.Bootstrap(appCtx); err != nil {
		zapLogger.Error("series bootstrap failed", zap.Error(err))
	}

	if cfg.Sync.Enabled {
		if cfg.Sync.RunOnStartup {
			go func() {
				if _, err := engine.RunCycle(appCtx, reconcile.TriggerStartup, cfg.Sync.MarkExternalComplete); err != nil {
					zapLogger.Error("startup reconciliation failed", zap.Error(err))
				}
			}()
		}

		syncRunner := services.NewSyncRunner(engine, zapLogger, services.SyncRunnerConfig{
			Interval:             cfg.Sync.Interval,
			MarkExternalComplete: cfg.Sync.MarkExternalComplete,
		})
		syncRunner.Start()
		manager.Register("sync_runner", func(ctx context.Context) error {
			syncRunner.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Sync:     apiHandler.NewSyncHandler(engine, settingsRepo, reportRepo, ctxAdapter, zapLogger),
		Settings: apiHandler.NewSettingsHandler(settingsUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
