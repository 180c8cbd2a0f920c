package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	appcatalog "github.com/pharmacy/backend/internal/application/catalog"
	appinv "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	db := newSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	products := NewGormProductRepository(db)
	logs := NewGormLogRepository(db)
	ctx := context.Background()

	p := createProduct(t, products, "TX-1", "Transactional", 10, 0)

	t.Run("commits every write", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			if err := repos.ProductRepo().UpdateStock(ctx, p.ID, 7, catalog.ProductStatusActive, time.Now().UTC()); err != nil {
				return err
			}
			entry, err := inventory.NewLogEntry(p.ID, inventory.MovementTypeSale, 3, 10, 7, "")
			if err != nil {
				return err
			}
			return repos.LogRepo().Append(ctx, entry)
		})
		require.NoError(t, err)

		found, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, found.Quantity)

		count, err := logs.CountByProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("log store unavailable")
		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			if err := repos.ProductRepo().UpdateStock(ctx, p.ID, 0, catalog.ProductStatusOutOfStock, time.Now().UTC()); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, found.Quantity)
		assert.Equal(t, catalog.ProductStatusActive, found.Status)
	})

	t.Run("domain errors pass through unchanged", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			_, err := repos.ProductRepo().FindByIDForUpdate(ctx, uuid.New())
			return err
		})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormTransactionScope_CommitConflict(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"})

	err := NewGormTransactionScope(gormDB).Execute(context.Background(), func(appinv.TransactionalRepositories) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.True(t, de.Retryable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_LockTimeoutIsConflict(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" .* FOR UPDATE`).
		WithArgs(id, 1).
		WillReturnError(&pgconn.PgError{Code: pgLockNotAvailable})
	mock.ExpectRollback()

	err := NewGormTransactionScope(gormDB).Execute(context.Background(), func(repos appinv.TransactionalRepositories) error {
		_, err := repos.ProductRepo().FindByIDForUpdate(context.Background(), id)
		return err
	})

	assert.True(t, shared.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The stock service against real SQL: the ledger scenarios hold end to end.
func TestStockServiceOverSQLite(t *testing.T) {
	db := newSQLiteDB(t)
	svc := appinv.NewStockService(NewGormTransactionScope(db), zaptest.NewLogger(t))
	products := NewGormProductRepository(db)
	logs := NewGormLogRepository(db)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, appcatalog.CreateProductRequest{SKU: "sql-1", Name: "Saline", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", created.Status)

	sold, err := svc.AdjustStock(ctx, appinv.AdjustStockCommand{
		ProductID: created.ID, Type: inventory.MovementTypeSale, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sold.Quantity)
	assert.Equal(t, "OUT_OF_STOCK", sold.Status)

	_, err = svc.AdjustStock(ctx, appinv.AdjustStockCommand{
		ProductID: created.ID, Type: inventory.MovementTypeSale, Quantity: 1,
	})
	assert.True(t, shared.IsInsufficientStock(err))

	entries, err := logs.ListByProduct(ctx, created.ID, 0, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.MovementTypePurchase, entries[0].Type)
	assert.Equal(t, inventory.InitialStockReason, entries[0].Reason)
	assert.Equal(t, inventory.MovementTypeSale, entries[1].Type)

	_, err = svc.CreateProduct(ctx, appcatalog.CreateProductRequest{SKU: "SQL-1", Name: "Duplicate"})
	assert.Equal(t, shared.CodeAlreadyExists, shared.CodeOf(err))

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = products.FindByID(ctx, created.ID)
	assert.True(t, shared.IsNotFound(err))

	count, err := logs.CountByProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormTransactionScope_BeginFailure(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := NewGormTransactionScope(gormDB).Execute(context.Background(), func(appinv.TransactionalRepositories) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	assert.Empty(t, shared.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
