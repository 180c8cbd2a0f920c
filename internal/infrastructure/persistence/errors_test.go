package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.CodeNotFound},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, shared.CodeAlreadyExists},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, shared.CodeAlreadyExists},
		{"pq unique violation", &pq.Error{Code: "23505"}, shared.CodeAlreadyExists},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, shared.CodeInvalidInput},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, shared.CodeConcurrencyConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, shared.CodeConcurrencyConflict},
		{"lock not available", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "55P03"}), shared.CodeConcurrencyConflict},
		{"other sqlstate", &pgconn.PgError{Code: "42P01"}, ""},
		{"plain error", errors.New("connection reset"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "load product", "Product")
			assert.Error(t, got)
			assert.Equal(t, tt.code, shared.CodeOf(got))
			if tt.code == "" {
				assert.ErrorIs(t, got, tt.err)
				assert.Contains(t, got.Error(), "load product")
			}
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil, "op", "Product"))
	})

	t.Run("domain errors are returned as is", func(t *testing.T) {
		in := shared.NewInsufficientStockError(1, 2)
		assert.Same(t, in, translateError(in, "op", "Product"))
	})

	t.Run("conflicts keep their cause", func(t *testing.T) {
		cause := &pgconn.PgError{Code: "40001"}
		got := translateError(cause, "op", "Product")
		assert.ErrorIs(t, got, shared.ErrConcurrencyConflict)

		var pgErr *pgconn.PgError
		assert.ErrorAs(t, got, &pgErr)
	})
}
