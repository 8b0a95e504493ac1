package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError(CodeOverpayment, "payment 200 exceeds balance 100")

	assert.True(t, errors.Is(err, ErrOverpayment))
	assert.False(t, errors.Is(err, ErrInvalidAmount))

	wrapped := fmt.Errorf("allocate: %w", err)
	assert.True(t, errors.Is(wrapped, ErrOverpayment))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError("insert payment", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "failed to insert payment: connection reset", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrencyConflict))
	assert.True(t, IsRetryable(WrapDomainError(CodeConcurrencyConflict, "lock timeout", errors.New("55P03"))))
	assert.False(t, IsRetryable(ErrPersistence))
	assert.False(t, IsRetryable(nil))
}
