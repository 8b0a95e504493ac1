package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.records))
	for i, r := range e.records {
		out[i] = r.Body().AsString()
	}
	return out
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	for _, cfg := range []Config{
		{Enabled: false, LogsEnabled: true},
		{Enabled: true, LogsEnabled: false},
	} {
		lp, err := NewLoggerProvider(context.Background(), cfg, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.NoError(t, lp.Shutdown(context.Background()))
	}
}

func TestLoggerProvider_BridgeDisabledReturnsBase(t *testing.T) {
	lp := &LoggerProvider{logger: zap.NewNop()}
	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, "ledger", zapcore.InfoLevel))
}

func TestLoggerProvider_BridgeTeesAboveLevel(t *testing.T) {
	exp := &recordingExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp))),
		logger:   zap.NewNop(),
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core, observed := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(core), "ledger", zapcore.InfoLevel)

	log.Debug("series locked")
	log.Info("invoice committed", zap.String("number", "INV-2026-00001"))
	log.With(zap.String("product_id", "p-1")).Warn("stock cache repaired")

	assert.Equal(t, 3, observed.Len(), "base core keeps every entry")
	assert.Equal(t, []string{"invoice committed", "stock cache repaired"}, exp.bodies())
}
