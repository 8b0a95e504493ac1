package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func sqlFn(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error is logged", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn("INSERT INTO payments"), errors.New("boom"))
		assert.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("lock timeout warns with sql state", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Warn)
		err := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
		l.Trace(context.Background(), time.Now(), sqlFn("SELECT ... FOR UPDATE"), err)
		entries := logs.FilterMessage("SQL lock_not_available").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, zap.WarnLevel, entries[0].Level)
			assert.Equal(t, "55P03", entries[0].ContextMap()["sql_state"])
		}
	})

	t.Run("other postgres errors stay errors", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn("INSERT"), &pgconn.PgError{Code: "23503"})
		assert.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn("SELECT"), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("slow query warns", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("SELECT ... FOR UPDATE"), nil)
		assert.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), sqlFn("SELECT"), errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("request id is attached", func(t *testing.T) {
		l, logs := newObservedGorm(gormlogger.Info)
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1"), nil)
		assert.Equal(t, "req-9", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
