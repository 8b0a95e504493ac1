package trade

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType is either an invoice (sale to a customer) or a purchase
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypePurchase DocumentType = "purchase"
)

// IsValid returns true for known document types
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypePurchase
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// PartyType returns the counterparty kind this document requires
func (t DocumentType) PartyType() partner.PartyType {
	if t == DocumentTypePurchase {
		return partner.PartyTypeVendor
	}
	return partner.PartyTypeCustomer
}

// StockReason returns the movement reason recorded for each line
func (t DocumentType) StockReason() inventory.MovementReason {
	if t == DocumentTypePurchase {
		return inventory.ReasonPurchase
	}
	return inventory.ReasonSale
}

// StockDelta converts a line quantity into a signed stock delta
func (t DocumentType) StockDelta(qty int64) int64 {
	if t == DocumentTypePurchase {
		return qty
	}
	return -qty
}

// DocumentStatus represents where a document is in its payment lifecycle
type DocumentStatus string

const (
	DocumentStatusDraft         DocumentStatus = "draft"
	DocumentStatusUnpaid        DocumentStatus = "unpaid"
	DocumentStatusPartiallyPaid DocumentStatus = "partially_paid"
	DocumentStatusPaid          DocumentStatus = "paid"
	DocumentStatusVoid          DocumentStatus = "void"
)

// IsValid checks if the status is known
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusUnpaid, DocumentStatusPartiallyPaid, DocumentStatusPaid, DocumentStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the lifecycle allows s -> target.
// Paid -> Void is only reachable through an explicit reversal policy and
// is checked by Document.Void.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case DocumentStatusDraft:
		return target == DocumentStatusUnpaid || target == DocumentStatusPaid || target == DocumentStatusVoid
	case DocumentStatusUnpaid:
		return target == DocumentStatusPartiallyPaid || target == DocumentStatusPaid || target == DocumentStatusVoid
	case DocumentStatusPartiallyPaid:
		return target == DocumentStatusPaid || target == DocumentStatusVoid
	case DocumentStatusPaid, DocumentStatusVoid:
		return false
	}
	return false
}

// DeriveStatus computes status from the document's totals. It is the only
// source of a document's status; the stored column is a projection of it.
func DeriveStatus(grandTotal, amountPaid decimal.Decimal, voided bool) DocumentStatus {
	if voided {
		return DocumentStatusVoid
	}
	balance := valueobject.RoundMoney(grandTotal.Sub(amountPaid))
	switch {
	case !balance.IsPositive():
		return DocumentStatusPaid
	case amountPaid.IsPositive():
		return DocumentStatusPartiallyPaid
	default:
		return DocumentStatusUnpaid
	}
}

// Document is an invoice or purchase with its line items.
// Totals are exact sums of the per-line rounded values.
type Document struct {
	shared.BaseAggregateRoot
	Type               DocumentType
	Number             string
	Date               time.Time
	DueDate            time.Time
	PartyID            uuid.UUID
	PlaceOfSupplyState string
	GSTEnabled         bool
	SameState          bool
	TaxableValue       decimal.Decimal
	CGST               decimal.Decimal
	SGST               decimal.Decimal
	IGST               decimal.Decimal
	GrandTotal         decimal.Decimal
	AmountPaid         decimal.Decimal
	BalanceDue         decimal.Decimal
	Status             DocumentStatus
	VoidedAt           *time.Time
	Notes              string
	Lines              []LineItem
}

// IsVoid reports whether the document has been voided
func (d *Document) IsVoid() bool {
	return d.VoidedAt != nil
}

// Refresh recomputes header totals from lines and the status from totals
func (d *Document) Refresh() {
	taxable, cgst, sgst, igst, amount := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range d.Lines {
		taxable = taxable.Add(l.TaxableValue)
		cgst = cgst.Add(l.CGST)
		sgst = sgst.Add(l.SGST)
		igst = igst.Add(l.IGST)
		amount = amount.Add(l.Amount)
	}
	d.TaxableValue = taxable
	d.CGST = cgst
	d.SGST = sgst
	d.IGST = igst
	d.GrandTotal = amount
	d.applyPaid(d.AmountPaid)
}

// SetAmountPaid replaces the paid total with Σ payments and re-derives
// balance and status. A paid total that would move the status backwards
// (for example Paid -> PartiallyPaid) is rejected and leaves d unchanged.
func (d *Document) SetAmountPaid(paid decimal.Decimal) error {
	next := DeriveStatus(d.GrandTotal, paid, d.IsVoid())
	if next != d.Status && !d.Status.CanTransitionTo(next) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("document %s cannot move from %s to %s", d.Number, d.Status, next))
	}
	d.applyPaid(paid)
	d.MarkChanged()
	return nil
}

func (d *Document) applyPaid(paid decimal.Decimal) {
	d.AmountPaid = paid
	d.BalanceDue = d.GrandTotal.Sub(paid)
	d.Status = DeriveStatus(d.GrandTotal, paid, d.IsVoid())
}

// CanAcceptPayment reports whether a payment may be allocated
func (d *Document) CanAcceptPayment() error {
	if d.IsVoid() {
		return shared.NewDomainError(shared.CodeInvalidState, "cannot pay a void document")
	}
	if d.Status == DocumentStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "cannot pay a draft document")
	}
	return nil
}

// Void marks the document void. A second void returns ErrAlreadyVoid.
// A fully paid document may only be voided when allowPaid is set.
func (d *Document) Void(allowPaid bool) error {
	if d.IsVoid() {
		return shared.NewDomainError(shared.CodeAlreadyVoid, "document "+d.Number+" is already void")
	}
	reversal := d.Status == DocumentStatusPaid && allowPaid
	if !d.Status.CanTransitionTo(DocumentStatusVoid) && !reversal {
		return shared.NewDomainError(shared.CodeInvalidState, "document "+d.Number+" is "+d.Status.String()+" and cannot be voided")
	}
	now := time.Now().UTC()
	d.VoidedAt = &now
	d.Status = DocumentStatusVoid
	d.MarkChanged()
	return nil
}
