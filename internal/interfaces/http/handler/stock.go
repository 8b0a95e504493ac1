package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/export"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockHandler handles stock ledger endpoints
type StockHandler struct {
	BaseHandler
	ledger LedgerService
	stock  StockService
	jobs   JobRunner
}

// NewStockHandler creates a new StockHandler. jobs may be nil, in which case
// reconciliation runs without a cross-replica lock.
func NewStockHandler(svc LedgerService, stock StockService, jobs JobRunner) *StockHandler {
	return &StockHandler{ledger: svc, stock: stock, jobs: jobs}
}

// MovementHistory handles GET /api/stock/movement-history.
// format=xlsx returns a spreadsheet instead of JSON.
func (h *StockHandler) MovementHistory(c *gin.Context) {
	var q dto.MovementHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := inventory.HistoryFilter{ProductID: uuid.MustParse(q.ProductID)}
	from, err := parseDate(q.From)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	to, err := parseDate(q.To)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter.From = from
	if !to.IsZero() {
		// to is inclusive of the whole day
		filter.To = to.AddDate(0, 0, 1).Add(-1)
	}

	entries, err := h.stock.History(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if q.Format == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteStockHistory(&buf, entries); err != nil {
			h.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.StockHistoryFilename(q.ProductID)+`"`)
		c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
		return
	}
	h.Success(c, dto.NewStockMovementResponses(entries))
}

// ProductStock handles GET /api/products/:id/stock
func (h *StockHandler) ProductStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}
	balance, err := h.stock.Balance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.StockBalanceResponse{ProductID: id.String(), Balance: balance})
}

// Adjust handles POST /api/stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	m, err := h.ledger.AdjustStock(c.Request.Context(), ledger.AdjustStockCommand{
		ProductID: uuid.MustParse(req.ProductID),
		Delta:     req.Delta,
		Note:      req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewStockMovementResponse(m))
}

// ReconcileSummary is the response of POST /api/stock/reconcile
type ReconcileSummary struct {
	Checked  int                      `json:"checked"`
	Repaired int                      `json:"repaired"`
	Results  []ledger.ReconcileResult `json:"results"`
}

// Reconcile handles POST /api/stock/reconcile. With ?product_id only that
// product is checked; otherwise every product is.
func (h *StockHandler) Reconcile(c *gin.Context) {
	var productID uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "invalid product id")
			return
		}
		productID = id
	}

	var results []ledger.ReconcileResult
	run := func(ctx context.Context) error {
		if productID != uuid.Nil {
			r, err := h.stock.Reconcile(ctx, productID)
			if err != nil {
				return err
			}
			results = []ledger.ReconcileResult{*r}
			return nil
		}
		var err error
		results, err = h.stock.ReconcileAll(ctx)
		return err
	}

	var err error
	if h.jobs != nil {
		err = h.jobs.Run(c.Request.Context(), ledger.ReconcileJobName, run)
	} else {
		err = run(c.Request.Context())
	}
	if errors.Is(err, cache.ErrJobLocked) {
		err = shared.NewDomainError(shared.CodeConcurrencyConflict, "stock reconciliation is already running")
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary := ReconcileSummary{Checked: len(results), Results: results}
	for _, r := range results {
		if r.Repaired {
			summary.Repaired++
		}
	}
	if summary.Repaired > 0 {
		logger.L(c.Request.Context()).Warn("Stock drift repaired", zap.Int("products", summary.Repaired))
	}
	h.Success(c, summary)
}
