package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/ledger/internal/bootstrap"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/scheduler"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting GST ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", bootstrap.Version),
		zap.String("home_state", cfg.Ledger.CompanyHomeState),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()
	log = app.Logger

	var rateLimiter *limiter.Limiter
	if cfg.HTTP.RateLimitEnabled {
		if rateLimiter, err = middleware.NewRateLimiter(cfg.HTTP.RateLimit); err != nil {
			log.Fatal("Invalid rate limit", zap.Error(err))
		}
	}

	// a nil *cache.JobLock must not become a non-nil handler.JobRunner
	var jobs handler.JobRunner
	if app.Jobs != nil {
		jobs = app.Jobs
	}

	engine, err := router.New(router.Handlers{
		Documents: handler.NewDocumentHandler(app.Gateway),
		Payments:  handler.NewPaymentHandler(app.Gateway),
		Stock:     handler.NewStockHandler(app.Gateway, app.Gateway.Stock(), jobs),
		Parties:   handler.NewPartyHandler(app.Gateway),
		System:    handler.NewSystemHandler(app.DB, bootstrap.Version),
	}, router.Options{
		Logger:         log,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RateLimiter:    rateLimiter,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var trigger *scheduler.ReconcileTrigger
	if cfg.Ledger.ReconcileSchedule != "" {
		hour, minute, err := scheduler.ParseDailySchedule(cfg.Ledger.ReconcileSchedule)
		if err != nil {
			log.Fatal("Invalid ledger.reconcile_schedule", zap.Error(err))
		}
		trigger = scheduler.NewReconcileTrigger(scheduler.ReconcileTriggerConfig{
			Hour:          hour,
			Minute:        minute,
			CheckInterval: time.Minute,
		}, app.Gateway.Stock(), jobs, log.Named("scheduler"))
		trigger.Start(ctx)
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Reconcile trigger did not stop", zap.Error(err))
		}
	}
	log.Info("Server exited gracefully")
}
