package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func TestLedgerAttributes(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		got  attribute.KeyValue
		key  attribute.Key
		want string
	}{
		{"document type", telemetry.DocumentType("invoice"), telemetry.DocumentTypeKey, "invoice"},
		{"document id", telemetry.DocumentID(id), telemetry.DocumentIDKey, id.String()},
		{"document number", telemetry.DocumentNumber("INV-2026-00001"), telemetry.DocumentNumberKey, "INV-2026-00001"},
		{"party id", telemetry.PartyID(id), telemetry.PartyIDKey, id.String()},
		{"product id", telemetry.ProductID(id), telemetry.ProductIDKey, id.String()},
		{"payment id", telemetry.PaymentID(id), telemetry.PaymentIDKey, id.String()},
		{"amount is fixed to paise", telemetry.Amount(decimal.RequireFromString("500.5")), telemetry.AmountKey, "500.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.got.Key)
			assert.Equal(t, tt.want, tt.got.Value.AsString())
		})
	}

	q := telemetry.Quantity(-3)
	assert.Equal(t, telemetry.QuantityKey, q.Key)
	assert.Equal(t, int64(-3), q.Value.AsInt64())
}

func TestStartOperation(t *testing.T) {
	sr := setupTestTracer(t)
	docID := uuid.MustParse("0b6f3c1e-3a52-4d7e-9a8f-5b1a2c3d4e5f")
	paymentID := uuid.New()

	ctx, span := telemetry.StartOperation(context.Background(), "add_payment",
		telemetry.DocumentType("invoice"),
		telemetry.DocumentID(docID),
		telemetry.Amount(decimal.RequireFromString("1180")),
	)
	assert.NotEmpty(t, telemetry.TraceID(ctx))
	span.SetAttributes(telemetry.PaymentID(paymentID), telemetry.Quantity(-5))
	telemetry.Replayed(span, paymentID)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.add_payment", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "invoice", attrs[string(telemetry.DocumentTypeKey)])
	assert.Equal(t, docID.String(), attrs[string(telemetry.DocumentIDKey)])
	assert.Equal(t, "1180.00", attrs[string(telemetry.AmountKey)])
	assert.Equal(t, "-5", attrs[string(telemetry.QuantityKey)])
	assert.Equal(t, paymentID.String(), attrs[string(telemetry.PaymentIDKey)])
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "idempotent_replay", spans[0].Events()[0].Name)
}

func TestFail(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartOperation(context.Background(), "void_document")
	telemetry.Fail(span, errors.New("connection reset"))
	telemetry.Fail(span, nil)
	span.End()

	_, rejected := telemetry.StartOperation(context.Background(), "add_payment")
	telemetry.Fail(rejected, shared.NewDomainError(shared.CodeInvalidAmount, "payment amount must be greater than zero"))
	rejected.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection reset", spans[0].Status().Description)

	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Equal(t, shared.CodeInvalidAmount, spanAttrs(spans[1])[string(telemetry.ErrorCodeKey)])
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", telemetry.TraceID(context.Background()))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestLedgerMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.DocumentCreated(ctx, trade.DocumentTypeInvoice, decimal.RequireFromString("1180.50"))
	m.PaymentAllocated(ctx, trade.DocumentTypeInvoice, decimal.RequireFromString("500"))
	m.DocumentVoided(ctx, trade.DocumentTypeInvoice)
	m.StockDriftRepaired(ctx, -3)
	m.ConflictRetried(ctx, "add_payment")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			switch data := metric.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					totals[metric.Name] += dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					totals[metric.Name] += dp.Sum
				}
			default:
				t.Fatalf("unexpected data for %s", metric.Name)
			}
		}
	}
	assert.Equal(t, int64(1), totals["ledger_documents_created_total"])
	assert.Equal(t, int64(118050), totals["ledger_document_amount_total"])
	assert.Equal(t, int64(50000), totals["ledger_payment_amount_total"])
	assert.Equal(t, int64(1), totals["ledger_stock_cache_repairs_total"])
	assert.Equal(t, int64(1), totals["ledger_conflict_retries_total"])
	assert.Equal(t, int64(3), totals["ledger_stock_drift_units"])
}

func TestLedgerMetrics_NoopMeter(t *testing.T) {
	m, err := telemetry.NewLedgerMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.DocumentCreated(context.Background(), trade.DocumentTypePurchase, decimal.NewFromInt(10))
	})
}
