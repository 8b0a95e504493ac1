package handler

import (
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PartyHandler serves the read-only party directory
type PartyHandler struct {
	BaseHandler
	ledger LedgerService
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(svc LedgerService) *PartyHandler {
	return &PartyHandler{ledger: svc}
}

// List handles GET /api/parties?type=&include_inactive=&search=
func (h *PartyHandler) List(c *gin.Context) {
	var q dto.PartyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := partner.PartyFilter{
		IncludeInactive: q.IncludeInactive,
		Search:          q.Search,
		Page:            q.Page,
		PageSize:        q.PageSize,
	}
	if q.Type != "" {
		t, err := partner.ParsePartyType(q.Type)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Type = t
	}

	parties, total, err := h.ledger.ListParties(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, dto.NewPartyResponses(parties), total, page, pageSize)
}
