package dto

import (
	"net/http"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInvalidAmount, http.StatusBadRequest},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeOverpayment, http.StatusUnprocessableEntity},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeAlreadyVoid, http.StatusUnprocessableEntity},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodePersistence, http.StatusInternalServerError},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasMore)
	assert.False(t, NewMeta(41, 3, 20).HasMore)

	assert.Zero(t, NewSuccessResponseWithMeta(nil, 5, 1, 0).Meta.TotalPages)
}
