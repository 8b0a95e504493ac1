package telemetry_test

import (
	"testing"

	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "gst-ledger",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     telemetry.ProfilerConfig
		wantErr string
	}{
		{
			name:    "missing server",
			cfg:     telemetry.ProfilerConfig{Enabled: true, ApplicationName: "gst-ledger"},
			wantErr: "server address is required",
		},
		{
			name:    "missing application",
			cfg:     telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"},
			wantErr: "application name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := telemetry.NewProfiler(tt.cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTracerProvider_EnableSpanProfilesDisabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(t.Context(), telemetry.Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	tp.EnableSpanProfiles()
	assert.False(t, tp.IsEnabled())
}
