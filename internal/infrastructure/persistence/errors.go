package persistence

import (
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that mean "another transaction got there first"
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateUniqueViolation      = "23505"
)

// translateError maps a store error onto the domain taxonomy. Domain errors
// pass through unchanged so the innermost classification wins.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.WrapDomainError(shared.CodeNotFound, op+": not found", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.WrapDomainError(shared.CodeConcurrencyConflict, op+": conflicting concurrent write", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable, sqlStateUniqueViolation:
			return shared.WrapDomainError(shared.CodeConcurrencyConflict, op+": "+pgErr.Message, err)
		}
	}

	return shared.NewPersistenceError(op, err)
}

// errStaleVersion is returned by version-guarded updates that matched no row
func errStaleVersion(entity string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, entity+" was modified by another transaction")
}
