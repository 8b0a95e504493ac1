package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler handles health endpoints
type SystemHandler struct {
	BaseHandler
	db      Pinger
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version}
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}

// Health handles GET /health. It pings the database with a short timeout.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    HealthStatus{Status: "unhealthy", Database: "unreachable", Version: h.version},
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeUnavailable, Message: "database unreachable", RequestID: getRequestID(c)},
		})
		return
	}
	h.Success(c, HealthStatus{Status: "healthy", Database: "ok", Version: h.version})
}
