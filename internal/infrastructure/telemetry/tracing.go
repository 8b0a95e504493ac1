package telemetry

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for ledger business spans
const TracerName = "gst-ledger"

// Attribute keys on ledger spans
const (
	DocumentIDKey     = attribute.Key("ledger.document.id")
	DocumentTypeKey   = attribute.Key("ledger.document.type")
	DocumentNumberKey = attribute.Key("ledger.document.number")
	PartyIDKey        = attribute.Key("ledger.party.id")
	ProductIDKey      = attribute.Key("ledger.product.id")
	QuantityKey       = attribute.Key("ledger.stock.delta")
	PaymentIDKey      = attribute.Key("ledger.payment.id")
	AmountKey         = attribute.Key("ledger.payment.amount")
	ErrorCodeKey      = attribute.Key("ledger.error.code")
)

// DocumentType tags a span with the document type (invoice or purchase)
func DocumentType(t string) attribute.KeyValue {
	return DocumentTypeKey.String(t)
}

// DocumentID tags a span with the document ID
func DocumentID(id uuid.UUID) attribute.KeyValue {
	return DocumentIDKey.String(id.String())
}

// DocumentNumber tags a span with the series number, e.g. INV-2026-00042
func DocumentNumber(n string) attribute.KeyValue {
	return DocumentNumberKey.String(n)
}

// PartyID tags a span with the customer or vendor ID
func PartyID(id uuid.UUID) attribute.KeyValue {
	return PartyIDKey.String(id.String())
}

// ProductID tags a span with the product ID
func ProductID(id uuid.UUID) attribute.KeyValue {
	return ProductIDKey.String(id.String())
}

// Quantity tags a span with a signed stock delta
func Quantity(delta int64) attribute.KeyValue {
	return QuantityKey.Int64(delta)
}

// PaymentID tags a span with the payment ID
func PaymentID(id uuid.UUID) attribute.KeyValue {
	return PaymentIDKey.String(id.String())
}

// Amount tags a span with a payment amount, fixed to 2 places
func Amount(a decimal.Decimal) attribute.KeyValue {
	return AmountKey.String(a.StringFixed(2))
}

// StartOperation starts an internal span named "ledger.<op>". The caller
// must End it.
func StartOperation(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "ledger."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// Fail records err on span. A DomainError is a rejected request, not a
// fault: it is tagged with its code and the span status stays unset.
func Fail(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.SetAttributes(ErrorCodeKey.String(de.Code))
		span.AddEvent("rejected", trace.WithAttributes(ErrorCodeKey.String(de.Code)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Replayed marks a payment answered from an earlier request with the same
// idempotency key
func Replayed(span trace.Span, paymentID uuid.UUID) {
	span.AddEvent("idempotent_replay", trace.WithAttributes(PaymentID(paymentID)))
}

// TraceID returns the trace ID in ctx, or ""
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
