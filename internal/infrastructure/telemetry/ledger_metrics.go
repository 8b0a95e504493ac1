package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attrDocumentType = attribute.Key("document_type")
	attrOperation    = attribute.Key("operation")
)

// LedgerMetrics records ledger business counters. Amounts are in paise.
type LedgerMetrics struct {
	documentsCreated metric.Int64Counter
	documentAmount   metric.Int64Counter
	documentsVoided  metric.Int64Counter
	payments         metric.Int64Counter
	paymentAmount    metric.Int64Counter
	stockRepairs     metric.Int64Counter
	conflictRetries  metric.Int64Counter
	stockDrift       metric.Int64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &LedgerMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.documentsCreated, "ledger_documents_created_total", "Documents committed", "{documents}"},
		{&m.documentAmount, "ledger_document_amount_total", "Grand total of committed documents", "{paise}"},
		{&m.documentsVoided, "ledger_documents_voided_total", "Documents voided", "{documents}"},
		{&m.payments, "ledger_payments_total", "Payments allocated", "{payments}"},
		{&m.paymentAmount, "ledger_payment_amount_total", "Amount of allocated payments", "{paise}"},
		{&m.stockRepairs, "ledger_stock_cache_repairs_total", "Stock cache drift repairs", "{repairs}"},
		{&m.conflictRetries, "ledger_conflict_retries_total", "Retries after concurrency conflicts", "{retries}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	drift, err := meter.Int64Histogram("ledger_stock_drift_units",
		metric.WithDescription("Absolute difference between cached and ledger stock at repair"),
		metric.WithUnit("{units}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 50, 100, 1000),
	)
	if err != nil {
		return nil, fmt.Errorf("histogram ledger_stock_drift_units: %w", err)
	}
	m.stockDrift = drift
	return m, nil
}

func paise(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// DocumentCreated counts a committed document
func (m *LedgerMetrics) DocumentCreated(ctx context.Context, docType trade.DocumentType, grandTotal decimal.Decimal) {
	attr := attrDocumentType.String(string(docType))
	m.documentsCreated.Add(ctx, 1, metric.WithAttributes(attr))
	m.documentAmount.Add(ctx, paise(grandTotal), metric.WithAttributes(attr))
}

// DocumentVoided counts a voided document
func (m *LedgerMetrics) DocumentVoided(ctx context.Context, docType trade.DocumentType) {
	m.documentsVoided.Add(ctx, 1, metric.WithAttributes(attrDocumentType.String(string(docType))))
}

// PaymentAllocated counts an allocated payment
func (m *LedgerMetrics) PaymentAllocated(ctx context.Context, docType trade.DocumentType, amount decimal.Decimal) {
	attr := attrDocumentType.String(string(docType))
	m.payments.Add(ctx, 1, metric.WithAttributes(attr))
	m.paymentAmount.Add(ctx, paise(amount), metric.WithAttributes(attr))
}

// StockDriftRepaired counts a repaired stock cache and records how far off
// it was
func (m *LedgerMetrics) StockDriftRepaired(ctx context.Context, drift int64) {
	m.stockRepairs.Add(ctx, 1)
	if drift < 0 {
		drift = -drift
	}
	m.stockDrift.Record(ctx, drift)
}

// ConflictRetried counts a retried transaction
func (m *LedgerMetrics) ConflictRetried(ctx context.Context, operation string) {
	m.conflictRetries.Add(ctx, 1, metric.WithAttributes(attrOperation.String(operation)))
}
