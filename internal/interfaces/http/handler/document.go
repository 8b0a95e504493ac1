package handler

import (
	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles invoice and purchase endpoints
type DocumentHandler struct {
	BaseHandler
	ledger LedgerService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(svc LedgerService) *DocumentHandler {
	return &DocumentHandler{ledger: svc}
}

// CreateInvoice handles POST /invoices
func (h *DocumentHandler) CreateInvoice(c *gin.Context) {
	h.create(c, trade.DocumentTypeInvoice)
}

// CreatePurchase handles POST /purchases
func (h *DocumentHandler) CreatePurchase(c *gin.Context) {
	h.create(c, trade.DocumentTypePurchase)
}

// GetInvoice handles GET /api/invoices/:id
func (h *DocumentHandler) GetInvoice(c *gin.Context) {
	h.get(c, trade.DocumentTypeInvoice)
}

// GetPurchase handles GET /api/purchases/:id
func (h *DocumentHandler) GetPurchase(c *gin.Context) {
	h.get(c, trade.DocumentTypePurchase)
}

// VoidInvoice handles POST /api/invoices/:id/void
func (h *DocumentHandler) VoidInvoice(c *gin.Context) {
	h.void(c, trade.DocumentTypeInvoice)
}

// VoidPurchase handles POST /api/purchases/:id/void
func (h *DocumentHandler) VoidPurchase(c *gin.Context) {
	h.void(c, trade.DocumentTypePurchase)
}

func (h *DocumentHandler) create(c *gin.Context, docType trade.DocumentType) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cmd, err := createDocumentCommand(docType, req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.ledger.CreateDocument(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewDocumentResponse(doc, nil))
}

func (h *DocumentHandler) get(c *gin.Context, docType trade.DocumentType) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid document id")
		return
	}
	view, err := h.ledger.GetDocument(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewDocumentViewResponse(view))
}

func (h *DocumentHandler) void(c *gin.Context, docType trade.DocumentType) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid document id")
		return
	}
	doc, err := h.ledger.VoidDocument(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewDocumentResponse(doc, nil))
}

func createDocumentCommand(docType trade.DocumentType, req dto.CreateDocumentRequest) (ledger.CreateDocumentCommand, error) {
	cmd := ledger.CreateDocumentCommand{
		Type:               docType,
		PartyID:            uuid.MustParse(req.PartyID),
		PlaceOfSupplyState: req.PlaceOfSupplyState,
		Notes:              req.Notes,
		Lines:              make([]ledger.LineCommand, len(req.Lines)),
	}

	var err error
	if cmd.Date, err = parseDate(req.Date); err != nil {
		return cmd, err
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return cmd, err
		}
		cmd.DueDate = &due
	}
	for i, l := range req.Lines {
		cmd.Lines[i] = ledger.LineCommand{
			ProductID: uuid.MustParse(l.ProductID),
			Qty:       l.Qty,
			Rate:      l.Rate,
			Discount:  l.Discount,
		}
	}
	return cmd, nil
}
