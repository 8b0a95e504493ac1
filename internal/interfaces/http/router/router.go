// Package router assembles the ledger HTTP API.
package router

import (
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// APIPrefix is the base path of the read and payment endpoints
const APIPrefix = "/api"

// Handlers groups the endpoint handlers
type Handlers struct {
	Documents *handler.DocumentHandler
	Payments  *handler.PaymentHandler
	Stock     *handler.StockHandler
	Parties   *handler.PartyHandler
	System    *handler.SystemHandler
}

// Options configures the engine middleware
type Options struct {
	Logger         *zap.Logger
	RequestTimeout time.Duration
	MaxBodySize    int64
	// RateLimiter guards write endpoints; nil disables limiting
	RateLimiter    *limiter.Limiter
	Tracing        middleware.TracingConfig
	TrustedProxies []string
}

// New builds the gin engine with all ledger routes
func New(h Handlers, opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(opts.Logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.Tracing)...)
	engine.Use(logger.GinMiddleware(opts.Logger, "/health"))
	engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	engine.Use(middleware.Timeout(opts.RequestTimeout))

	writes := []gin.HandlerFunc{}
	if opts.RateLimiter != nil {
		writes = append(writes, middleware.RateLimit(opts.RateLimiter))
	}
	write := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writes...), fn)
	}

	engine.GET("/health", h.System.Health)
	engine.POST("/invoices", write(h.Documents.CreateInvoice)...)
	engine.POST("/purchases", write(h.Documents.CreatePurchase)...)

	api := engine.Group(APIPrefix)
	{
		api.GET("/parties", h.Parties.List)

		api.GET("/invoices/:id", h.Documents.GetInvoice)
		api.POST("/invoices/:id/void", write(h.Documents.VoidInvoice)...)
		api.POST("/invoices/:id/payments", write(h.Payments.AddInvoicePayment)...)

		api.GET("/purchases/:id", h.Documents.GetPurchase)
		api.POST("/purchases/:id/void", write(h.Documents.VoidPurchase)...)
		api.POST("/purchase-payments", write(h.Payments.AddPurchasePayment)...)

		api.GET("/stock/movement-history", h.Stock.MovementHistory)
		api.POST("/stock/adjustments", write(h.Stock.Adjust)...)
		api.POST("/stock/reconcile", write(h.Stock.Reconcile)...)
		api.GET("/products/:id/stock", h.Stock.ProductStock)
	}

	return engine, nil
}
