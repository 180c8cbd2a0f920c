package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the repositories react to
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// sqlState extracts the SQLSTATE from either driver's error type
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isConflict reports whether err means the transaction lost a race with another one
func isConflict(err error) bool {
	switch sqlState(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// translateError maps a storage error onto the domain error set.
// Domain errors pass through untouched; anything unrecognised is wrapped with op.
func translateError(err error, op, resource string) error {
	if err == nil {
		return nil
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewDomainError(shared.CodeNotFound, resource+" not found")
	case errors.Is(err, gorm.ErrDuplicatedKey), sqlState(err) == pgUniqueViolation:
		return shared.NewAlreadyExistsError(resource + " already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated), sqlState(err) == pgForeignKeyViolation:
		return shared.NewInvalidInputError(resource + " references a record that does not exist")
	case isConflict(err):
		return shared.NewConflictError(resource+" was modified by another transaction", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
