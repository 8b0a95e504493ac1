package logger

import (
	"errors"
	"net/http"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GinMiddleware logs one line per request and puts a request-scoped logger
// in the request context, where L picks it up. Requests to quiet paths, such
// as health probes, log at Debug unless they fail.
func GinMiddleware(logger *zap.Logger, quiet ...string) gin.HandlerFunc {
	quietPaths := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		rawQuery := c.Request.URL.RawQuery

		ctx, reqLog := WithRequestID(c.Request.Context(), logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		), c.GetString("request_id"))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if rawQuery != "" {
			fields = append(fields, zap.String("query", rawQuery))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			if code := ledgerErrorCode(c.Errors); code != "" {
				fields = append(fields, zap.String("error_code", code))
			}
		}

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		case quietPaths[c.Request.URL.Path]:
			level = zapcore.DebugLevel
		}
		WithTraceContext(c.Request.Context(), reqLog).Log(level, "HTTP request", fields...)
	}
}

// ledgerErrorCode returns the code of the last DomainError a handler
// attached, e.g. INSUFFICIENT_STOCK
func ledgerErrorCode(errs []*gin.Error) string {
	for i := len(errs) - 1; i >= 0; i-- {
		var de *shared.DomainError
		if errors.As(errs[i].Err, &de) {
			return de.Code
		}
	}
	return ""
}

// Recovery turns a panic into a 500 with the standard error body
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("Panic recovered",
				zap.String("request_id", c.GetString("request_id")),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": "INTERNAL_ERROR", "message": "An internal error occurred"},
			})
		}()
		c.Next()
	}
}
