package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLiteDB opens a migrated in-memory database. A single connection keeps
// every statement on the same in-memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{},
		&partner.Supplier{},
		&catalog.Product{},
		&inventory.LogEntry{},
	))
	return db
}

// newMockGormDB wires GORM's postgres dialect to sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB := newMockGormDBFrom(t, mockDB)
	return gormDB, mock, mockDB
}

func newMockGormDBFrom(t *testing.T, mockDB *sql.DB) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return gormDB
}

func createProduct(t *testing.T, repo *GormProductRepository, sku, name string, qty, reorder int, opts ...func(*catalog.Product)) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(sku, name, qty, reorder)
	require.NoError(t, err)
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func withExpiry(at time.Time) func(*catalog.Product) {
	return func(p *catalog.Product) { p.SetExpiryDate(&at) }
}

func withCategory(id uuid.UUID) func(*catalog.Product) {
	return func(p *catalog.Product) { p.SetCategory(&id) }
}

func withStatus(status catalog.ProductStatus) func(*catalog.Product) {
	return func(p *catalog.Product) { p.Status = status }
}

func withCreatedAt(at time.Time) func(*catalog.Product) {
	return func(p *catalog.Product) { p.CreatedAt = at }
}
