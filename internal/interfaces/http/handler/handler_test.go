package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockStock struct {
	mock.Mock
}

func (m *mockStock) Balance(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStock) History(ctx context.Context, f inventory.HistoryFilter) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *mockStock) Reconcile(ctx context.Context, id uuid.UUID) (*ledger.ReconcileResult, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*ledger.ReconcileResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStock) ReconcileAll(ctx context.Context) ([]ledger.ReconcileResult, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ledger.ReconcileResult), args.Error(1)
}

type lockedRunner struct{}

func (lockedRunner) Run(context.Context, string, func(context.Context) error) error {
	return cache.ErrJobLocked
}

type passRunner struct{ names []string }

func (p *passRunner) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	p.names = append(p.names, name)
	return fn(ctx)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", shared.NewValidationError("qty must be positive"), http.StatusBadRequest, shared.CodeValidation, "qty must be positive"},
		{"wrapped overpayment", fmt.Errorf("allocate: %w", shared.ErrOverpayment), http.StatusUnprocessableEntity, shared.CodeOverpayment, "Payment exceeds balance due"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, shared.CodeConcurrencyConflict, ""},
		{"persistence hides cause", shared.NewPersistenceError("insert payment", errors.New("dial tcp: refused")), http.StatusInternalServerError, shared.CodePersistence, "A storage error occurred"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrCodeTimeout, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("request_id", "req-1")

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
		})
	}
}

func TestStockHandler_Reconcile(t *testing.T) {
	productID := uuid.New()

	t.Run("runs under the job lock", func(t *testing.T) {
		stock := new(mockStock)
		stock.On("ReconcileAll", mock.Anything).Return([]ledger.ReconcileResult{
			{ProductID: productID, Cached: 9, Ledger: 7, Repaired: true},
			{ProductID: uuid.New(), Cached: 3, Ledger: 3},
		}, nil)
		runner := &passRunner{}
		h := NewStockHandler(nil, stock, runner)

		r := gin.New()
		r.POST("/reconcile", h.Reconcile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconcile", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{ledger.ReconcileJobName}, runner.names)
		assert.Contains(t, w.Body.String(), `"checked":2,"repaired":1`)
		stock.AssertExpectations(t)
	})

	t.Run("single product", func(t *testing.T) {
		stock := new(mockStock)
		stock.On("Reconcile", mock.Anything, productID).Return(&ledger.ReconcileResult{ProductID: productID, Cached: 1, Ledger: 1}, nil)
		h := NewStockHandler(nil, stock, nil)

		r := gin.New()
		r.POST("/reconcile", h.Reconcile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconcile?product_id="+productID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		stock.AssertExpectations(t)
	})

	t.Run("already running elsewhere", func(t *testing.T) {
		stock := new(mockStock)
		h := NewStockHandler(nil, stock, lockedRunner{})

		r := gin.New()
		r.POST("/reconcile", h.Reconcile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconcile", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConcurrencyConflict, decode(t, w).Error.Code)
		stock.AssertNotCalled(t, "ReconcileAll", mock.Anything)
	})
}

func TestStockHandler_ProductStock(t *testing.T) {
	productID := uuid.New()
	stock := new(mockStock)
	stock.On("Balance", mock.Anything, productID).Return(int64(0), shared.NewDomainError(shared.CodeNotFound, "product not found"))
	h := NewStockHandler(nil, stock, nil)

	r := gin.New()
	r.GET("/products/:id/stock", h.ProductStock)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/stock", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/abc/stock", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type downDB struct{ err error }

func (d downDB) PingContext(context.Context) error { return d.err }

func TestSystemHandler_Health(t *testing.T) {
	r := gin.New()
	r.GET("/up", NewSystemHandler(downDB{}, "1.0").Health)
	r.GET("/down", NewSystemHandler(downDB{err: errors.New("refused")}, "1.0").Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeUnavailable)
}
