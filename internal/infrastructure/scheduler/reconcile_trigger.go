// Package scheduler runs ledger maintenance on a daily schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// Reconciler recomputes every product's cached stock from its ledger
type Reconciler interface {
	ReconcileAll(ctx context.Context) ([]ledger.ReconcileResult, error)
}

// JobRunner runs fn at most once at a time across replicas
type JobRunner interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// ReconcileTriggerConfig holds the daily schedule
type ReconcileTriggerConfig struct {
	Hour   int
	Minute int
	// CheckInterval is how often the clock is compared to the schedule
	CheckInterval time.Duration
}

// DefaultReconcileTriggerConfig runs at 02:00 and checks every minute
func DefaultReconcileTriggerConfig() ReconcileTriggerConfig {
	return ReconcileTriggerConfig{Hour: 2, Minute: 0, CheckInterval: time.Minute}
}

// ReconcileTrigger runs stock reconciliation once a day
type ReconcileTrigger struct {
	config     ReconcileTriggerConfig
	reconciler Reconciler
	jobs       JobRunner
	logger     *zap.Logger
	now        func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewReconcileTrigger creates a trigger. jobs may be nil, in which case the
// job runs without a cross-replica lock.
func NewReconcileTrigger(config ReconcileTriggerConfig, reconciler Reconciler, jobs JobRunner, logger *zap.Logger) *ReconcileTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileTrigger{
		config:     config,
		reconciler: reconciler,
		jobs:       jobs,
		logger:     logger,
		now:        time.Now,
	}
}

// Start launches the check loop. Calling it twice is a no-op.
func (c *ReconcileTrigger) Start(ctx context.Context) {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Reconcile trigger started",
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (c *ReconcileTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Reconcile trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ReconcileTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the job when the clock matches and it has not run today.
// It reports whether a run was started.
func (c *ReconcileTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	if now.Hour() != c.config.Hour || now.Minute() != c.config.Minute {
		return false
	}

	today := now.Format("2006-01-02")
	c.mu.Lock()
	if c.lastRunDate == today {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	c.mu.Unlock()

	c.RunOnce(ctx)
	return true
}

// RunOnce reconciles all products now. A run held by another replica is
// skipped.
func (c *ReconcileTrigger) RunOnce(ctx context.Context) {
	job := func(ctx context.Context) error {
		results, err := c.reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		repaired := 0
		for _, r := range results {
			if r.Repaired {
				repaired++
			}
		}
		c.logger.Info("Scheduled stock reconciliation finished",
			zap.Int("checked", len(results)),
			zap.Int("repaired", repaired),
		)
		return nil
	}

	var err error
	if c.jobs != nil {
		err = c.jobs.Run(ctx, ledger.ReconcileJobName, job)
	} else {
		err = job(ctx)
	}
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrJobLocked):
		c.logger.Info("Scheduled stock reconciliation skipped, held by another process")
	default:
		c.logger.Error("Scheduled stock reconciliation failed", zap.Error(err))
	}
}

// ParseDailySchedule reads the minute and hour fields of a cron expression
// such as "30 2 * * *". An empty expression means 02:00.
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return 2, 0, nil
	}
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("schedule %q needs minute and hour fields", expr)
	}
	if minute, err = strconv.Atoi(parts[0]); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute must be 0-59, got %q", parts[0])
	}
	if hour, err = strconv.Atoi(parts[1]); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour must be 0-23, got %q", parts[1])
	}
	return hour, minute, nil
}
