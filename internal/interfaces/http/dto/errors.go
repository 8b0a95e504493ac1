package dto

import (
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Transport-level error codes. Ledger errors keep their domain code.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeTimeout         = "REQUEST_TIMEOUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

var errorCodeToHTTPStatus = map[string]int{
	shared.CodeValidation:    http.StatusBadRequest,
	shared.CodeInvalidAmount: http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,

	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodeOverpayment:       http.StatusUnprocessableEntity,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeAlreadyVoid:       http.StatusUnprocessableEntity,

	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,

	shared.CodePersistence: http.StatusInternalServerError,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a given error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
