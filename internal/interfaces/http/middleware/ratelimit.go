package middleware

import (
	"fmt"
	"net/http"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// NewRateLimiter builds an in-process limiter from a formatted rate such as
// "100-M" (100 requests per minute)
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP. Rejected requests get a 429 with
// the standard error body; X-RateLimit-* headers are set on every response.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return limitergin.NewMiddleware(l,
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests, please try again later",
				c.GetString(RequestIDKey),
			))
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.L(c.Request.Context()).Error("Rate limiter store failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnavailable,
				"Rate limiter unavailable",
				c.GetString(RequestIDKey),
			))
		}),
	)
}
