package handler

import (
	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader may carry the payment idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment allocation endpoints
type PaymentHandler struct {
	BaseHandler
	ledger LedgerService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(svc LedgerService) *PaymentHandler {
	return &PaymentHandler{ledger: svc}
}

// AddInvoicePayment handles POST /api/invoices/:id/payments
func (h *PaymentHandler) AddInvoicePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid invoice id")
		return
	}
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.allocate(c, trade.DocumentTypeInvoice, id, req)
}

// AddPurchasePayment handles POST /api/purchase-payments
func (h *PaymentHandler) AddPurchasePayment(c *gin.Context) {
	var req dto.PurchasePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.allocate(c, trade.DocumentTypePurchase, uuid.MustParse(req.PurchaseID), req.PaymentRequest)
}

func (h *PaymentHandler) allocate(c *gin.Context, docType trade.DocumentType, documentID uuid.UUID, req dto.PaymentRequest) {
	date, err := parseDate(req.Date)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader(IdempotencyKeyHeader)
	}

	payment, err := h.ledger.AddPayment(c.Request.Context(), ledger.AddPaymentCommand{
		DocumentType:   docType,
		DocumentID:     documentID,
		Amount:         req.Amount,
		Date:           date,
		Method:         finance.ParsePaymentMethod(req.Method),
		ReferenceNo:    req.ReferenceNo,
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	view, err := h.ledger.GetDocument(c.Request.Context(), docType, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, PaymentResult{
		Payment:  dto.NewPaymentResponse(payment),
		Document: dto.NewDocumentViewResponse(view),
	})
}

// PaymentResult is the response of a payment allocation: the recorded payment
// and the document as it stands after it
type PaymentResult struct {
	Payment  dto.PaymentResponse  `json:"payment"`
	Document dto.DocumentResponse `json:"document"`
}
