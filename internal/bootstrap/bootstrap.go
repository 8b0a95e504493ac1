// Package bootstrap wires configuration, storage, caches and telemetry into
// a ready ledger gateway for the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with
// -ldflags "-X github.com/erp/ledger/internal/bootstrap.Version=..."
var Version = "dev"

// App holds the long-lived dependencies of a ledger process
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Gateway *ledger.Gateway
	// Jobs is nil when Redis is disabled or unreachable
	Jobs *cache.JobLock
	// Archive is nil when object storage is disabled
	Archive *storage.S3ObjectStorage

	tracer      *telemetry.TracerProvider
	meter       *telemetry.MeterProvider
	logs        *telemetry.LoggerProvider
	profiler    *telemetry.Profiler
	idempotency shared.IdempotencyStore
	cache       *cache.Backend
}

// GatewayConfig maps the ledger section of the configuration
func GatewayConfig(cfg *config.Config) ledger.Config {
	return ledger.Config{
		HomeState: cfg.Ledger.CompanyHomeState,
		Series: trade.SeriesConfig{
			InvoicePrefix:  cfg.Ledger.InvoicePrefix,
			PurchasePrefix: cfg.Ledger.PurchasePrefix,
		},
		AllowBackorders:  cfg.Ledger.AllowBackorders,
		AllowOverpayment: cfg.Ledger.AllowOverpayment,
		AllowVoidPaid:    cfg.Ledger.AllowVoidPaid,
		VerifyOnRecord:   cfg.Ledger.VerifyOnRecord,
		Retry: ledger.RetryPolicy{
			MaxAttempts: cfg.Ledger.MaxConflictRetries,
			Backoff:     cfg.Ledger.RetryBackoff,
		},
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
	}
}

// TelemetryConfig maps the telemetry section of the configuration
func TelemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}
}

// ProfilerConfig maps the profiling section of the configuration
func ProfilerConfig(cfg *config.Config) telemetry.ProfilerConfig {
	return telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		Contention:        cfg.Profiling.Contention,
	}
}

// New opens the database and builds the gateway. On error everything opened
// so far is closed again.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	if app.tracer, err = telemetry.NewTracerProvider(ctx, TelemetryConfig(cfg), log); err != nil {
		return nil, err
	}
	if app.meter, err = telemetry.NewMeterProvider(ctx, TelemetryConfig(cfg), log); err != nil {
		return nil, err
	}
	if app.logs, err = telemetry.NewLoggerProvider(ctx, TelemetryConfig(cfg), log); err != nil {
		return nil, err
	}
	level, lerr := zapcore.ParseLevel(cfg.Log.Level)
	if lerr != nil {
		level = zapcore.InfoLevel
	}
	log = app.logs.Bridge(log, cfg.Telemetry.ServiceName, level)
	app.Logger = log

	if app.profiler, err = telemetry.NewProfiler(ProfilerConfig(cfg), log); err != nil {
		return nil, err
	}
	if cfg.Profiling.Enabled && cfg.Telemetry.SpanProfiles {
		app.tracer.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	if app.DB, err = persistence.NewDatabase(&cfg.Database, gormLog); err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("dbname", cfg.Database.DBName))

	if err = telemetry.RegisterDBTracing(app.DB.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		return nil, err
	}

	scope := persistence.NewGormTransactionScope(app.DB.DB, persistence.WithLockTimeout(cfg.Database.LockTimeout))
	app.Gateway = ledger.NewGateway(scope, GatewayConfig(cfg), log.Named("ledger"))

	metrics, err := telemetry.NewLedgerMetrics(app.meter.Meter("ledger"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger metrics: %w", err)
	}
	app.Gateway.SetRecorder(metrics)

	if app.cache, err = cache.Connect(ctx, cfg.Redis, cache.WithLogger(log)); err != nil {
		return nil, err
	}
	app.idempotency = app.cache.IdempotencyStore()
	app.Gateway.SetIdempotencyStore(app.idempotency)
	if app.Jobs = app.cache.JobLock(cfg.Ledger.ReconcileLockTTL); app.Jobs == nil {
		log.Warn("Maintenance jobs run without a cross-process lock")
	}

	if cfg.Storage.Enabled {
		if app.Archive, err = storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log)); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Close releases everything New opened, in reverse order. It is safe on a
// nil or partially built App.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.idempotency != nil {
		errs = append(errs, a.idempotency.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.profiler != nil {
		errs = append(errs, a.profiler.Stop())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Shutdown(ctx))
	}
	if a.meter != nil {
		errs = append(errs, a.meter.Shutdown(ctx))
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
