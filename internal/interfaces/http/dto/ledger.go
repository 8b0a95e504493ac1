package dto

import (
	"time"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// LineRequest is one requested document line
type LineRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Qty       int64           `json:"qty"`
	Rate      decimal.Decimal `json:"rate"`
	Discount  decimal.Decimal `json:"discount"`
}

// CreateDocumentRequest is the body of POST /invoices and POST /purchases
type CreateDocumentRequest struct {
	PartyID            string        `json:"party_id" binding:"required,uuid"`
	PlaceOfSupplyState string        `json:"place_of_supply_state"`
	Date               string        `json:"date" binding:"omitempty,datetime=2006-01-02"`
	DueDate            string        `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Notes              string        `json:"notes"`
	Lines              []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PaymentRequest is the body of POST /api/invoices/:id/payments
type PaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	ReferenceNo    string          `json:"reference_no"`
	Date           string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// PurchasePaymentRequest is the body of POST /api/purchase-payments
type PurchasePaymentRequest struct {
	PurchaseID string `json:"purchase_id" binding:"required,uuid"`
	PaymentRequest
}

// StockAdjustmentRequest is the body of POST /api/stock/adjustments
type StockAdjustmentRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Delta     int64  `json:"delta"`
	Note      string `json:"note"`
}

// MovementHistoryQuery binds GET /api/stock/movement-history
type MovementHistoryQuery struct {
	ProductID string `form:"product_id" binding:"required,uuid"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Format    string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// PartyListQuery binds GET /api/parties
type PartyListQuery struct {
	Type            string `form:"type"`
	IncludeInactive bool   `form:"include_inactive"`
	Search          string `form:"search"`
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
}

// LineResponse is a priced line in a document response
type LineResponse struct {
	LineNo       int    `json:"line_no"`
	ProductID    string `json:"product_id"`
	Qty          int64  `json:"qty"`
	Rate         string `json:"rate"`
	Discount     string `json:"discount"`
	GSTRate      string `json:"gst_rate"`
	TaxableValue string `json:"taxable_value"`
	CGST         string `json:"cgst"`
	SGST         string `json:"sgst"`
	IGST         string `json:"igst"`
	Amount       string `json:"amount"`
}

// DocumentResponse is a committed invoice or purchase
type DocumentResponse struct {
	ID                 string            `json:"id"`
	Type               string            `json:"type"`
	Number             string            `json:"number"`
	Date               string            `json:"date"`
	DueDate            string            `json:"due_date"`
	PartyID            string            `json:"party_id"`
	PlaceOfSupplyState string            `json:"place_of_supply_state"`
	GSTEnabled         bool              `json:"gst_enabled"`
	SameState          bool              `json:"same_state"`
	TaxableValue       string            `json:"taxable_value"`
	CGST               string            `json:"cgst"`
	SGST               string            `json:"sgst"`
	IGST               string            `json:"igst"`
	GrandTotal         string            `json:"grand_total"`
	AmountPaid         string            `json:"amount_paid"`
	BalanceDue         string            `json:"balance_due"`
	Status             string            `json:"status"`
	VoidedAt           *time.Time        `json:"voided_at,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	Lines              []LineResponse    `json:"lines"`
	Payments           []PaymentResponse `json:"payments,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// PaymentResponse is a recorded payment
type PaymentResponse struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	DocumentType   string    `json:"document_type"`
	Amount         string    `json:"amount"`
	Date           string    `json:"date"`
	Method         string    `json:"method"`
	ReferenceNo    string    `json:"reference_no,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StockMovementResponse is one stock ledger entry
type StockMovementResponse struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	Delta            int64     `json:"delta"`
	Reason           string    `json:"reason"`
	SourceType       string    `json:"source_type,omitempty"`
	SourceDocumentID string    `json:"source_document_id,omitempty"`
	Sequence         int64     `json:"sequence"`
	BalanceAfter     int64     `json:"balance_after"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// StockBalanceResponse is a product's current on-hand quantity
type StockBalanceResponse struct {
	ProductID string `json:"product_id"`
	Balance   int64  `json:"balance"`
}

// PartyResponse is a party directory entry
type PartyResponse struct {
	ID                    string `json:"id"`
	Type                  string `json:"type"`
	Name                  string `json:"name"`
	GSTIN                 string `json:"gstin,omitempty"`
	GSTEnabled            bool   `json:"gst_enabled"`
	GSTRegistrationStatus string `json:"gst_registration_status"`
	HomeState             string `json:"home_state"`
	CreditDays            int    `json:"credit_days"`
	IsActive              bool   `json:"is_active"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NewDocumentResponse maps a document and, when given, its payments
func NewDocumentResponse(doc *trade.Document, payments []finance.Payment) DocumentResponse {
	resp := DocumentResponse{
		ID:                 doc.ID.String(),
		Type:               string(doc.Type),
		Number:             doc.Number,
		Date:               doc.Date.Format(DateLayout),
		DueDate:            doc.DueDate.Format(DateLayout),
		PartyID:            doc.PartyID.String(),
		PlaceOfSupplyState: doc.PlaceOfSupplyState,
		GSTEnabled:         doc.GSTEnabled,
		SameState:          doc.SameState,
		TaxableValue:       money(doc.TaxableValue),
		CGST:               money(doc.CGST),
		SGST:               money(doc.SGST),
		IGST:               money(doc.IGST),
		GrandTotal:         money(doc.GrandTotal),
		AmountPaid:         money(doc.AmountPaid),
		BalanceDue:         money(doc.BalanceDue),
		Status:             string(doc.Status),
		VoidedAt:           doc.VoidedAt,
		Notes:              doc.Notes,
		Lines:              make([]LineResponse, len(doc.Lines)),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	for i, l := range doc.Lines {
		resp.Lines[i] = LineResponse{
			LineNo:       l.LineNo,
			ProductID:    l.ProductID.String(),
			Qty:          l.Qty,
			Rate:         money(l.Rate),
			Discount:     money(l.Discount),
			GSTRate:      l.GSTRate.String(),
			TaxableValue: money(l.TaxableValue),
			CGST:         money(l.CGST),
			SGST:         money(l.SGST),
			IGST:         money(l.IGST),
			Amount:       money(l.Amount),
		}
	}
	if len(payments) > 0 {
		resp.Payments = make([]PaymentResponse, len(payments))
		for i := range payments {
			resp.Payments[i] = NewPaymentResponse(&payments[i])
		}
	}
	return resp
}

// NewDocumentViewResponse maps a document read with its payment history
func NewDocumentViewResponse(view *ledger.DocumentView) DocumentResponse {
	return NewDocumentResponse(view.Document, view.Payments)
}

// NewPaymentResponse maps a payment
func NewPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID.String(),
		DocumentID:     p.DocumentID.String(),
		DocumentType:   string(p.DocumentType),
		Amount:         money(p.Amount),
		Date:           p.Date.Format(DateLayout),
		Method:         string(p.Method),
		ReferenceNo:    p.ReferenceNo,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
	}
}

// NewStockMovementResponse maps a stock ledger entry
func NewStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	resp := StockMovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		Delta:        m.Delta,
		Reason:       string(m.Reason),
		SourceType:   m.SourceType,
		Sequence:     m.Sequence,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
	}
	if m.SourceDocumentID != nil {
		resp.SourceDocumentID = m.SourceDocumentID.String()
	}
	return resp
}

// NewStockMovementResponses maps a history page
func NewStockMovementResponses(entries []inventory.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, len(entries))
	for i := range entries {
		out[i] = NewStockMovementResponse(&entries[i])
	}
	return out
}

// NewPartyResponses maps a party listing
func NewPartyResponses(parties []partner.Party) []PartyResponse {
	out := make([]PartyResponse, len(parties))
	for i, p := range parties {
		out[i] = PartyResponse{
			ID:                    p.ID.String(),
			Type:                  string(p.Type),
			Name:                  p.Name,
			GSTIN:                 p.GSTIN,
			GSTEnabled:            p.GSTEnabled,
			GSTRegistrationStatus: string(p.GSTRegistrationStatus),
			HomeState:             p.HomeState,
			CreditDays:            p.CreditDays,
			IsActive:              p.IsActive,
		}
	}
	return out
}
