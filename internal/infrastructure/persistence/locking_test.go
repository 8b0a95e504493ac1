package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPostgres returns a GORM handle speaking the Postgres dialect to sqlmock
func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

var productColumns = []string{"id", "created_at", "updated_at", "version", "sku", "name", "hsn_code", "gst_rate", "sales_price", "purchase_price", "stock_qty"}

func TestFindByIDForUpdate_LocksRow(t *testing.T) {
	t.Run("product", func(t *testing.T) {
		db, mock, mockDB := newMockPostgres(t)
		defer mockDB.Close()

		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(id.String(), now, now, 3, "WID-1", "Widget", "", "18", "0", "0", 12))

		p, err := NewGormProductRepository(db).FindByIDForUpdate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(12), p.StockQty)
		assert.Equal(t, 3, p.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document header", func(t *testing.T) {
		db, mock, mockDB := newMockPostgres(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE document_type = \$1 AND id = \$2 .*FOR UPDATE`).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		_, err := NewGormDocumentRepository(db).FindByIDForUpdate(context.Background(), trade.DocumentTypeInvoice, uuid.New())
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document series", func(t *testing.T) {
		db, mock, mockDB := newMockPostgres(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "document_series" WHERE .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"document_type", "prefix", "year", "last_number", "updated_at"}).
				AddRow("invoice", "INV", 2026, 41, time.Now()))
		mock.ExpectExec(`UPDATE "document_series" SET "last_number"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		next, err := NewGormDocumentSeriesRepository(db).Next(context.Background(), trade.DocumentTypeInvoice, "INV", 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(42), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateStock_StaleVersion(t *testing.T) {
	db, mock, mockDB := newMockPostgres(t)
	defer mockDB.Close()

	p, err := catalog.NewProduct("WID-1", "Widget", decimalFromInt(18))
	require.NoError(t, err)
	p.MarkChanged()

	mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewGormProductRepository(db).UpdateStock(context.Background(), p, 1)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *shared.DomainError
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, shared.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrConcurrencyConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, shared.ErrConcurrencyConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, shared.ErrConcurrencyConflict},
		{"translated duplicate", gorm.ErrDuplicatedKey, shared.ErrConcurrencyConflict},
		{"not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, shared.ErrPersistence},
		{"connection refused", errors.New("dial tcp: connection refused"), shared.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("insert payment", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	t.Run("domain errors pass through", func(t *testing.T) {
		assert.Same(t, shared.ErrOverpayment, translateError("x", shared.ErrOverpayment))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError("x", nil))
	})
}

func TestSeriesNext_InsertRaceIsConflict(t *testing.T) {
	db, mock, mockDB := newMockPostgres(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "document_series"`).
		WillReturnRows(sqlmock.NewRows([]string{"document_type", "prefix", "year", "last_number", "updated_at"}))
	mock.ExpectExec(`INSERT INTO "document_series"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := NewGormDocumentSeriesRepository(db).Next(context.Background(), trade.DocumentTypeInvoice, "INV", 2026)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, shared.IsRetryable(err))
}

func decimalFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
