package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long a stock movement idempotency key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// MovementRecorder receives stock movement outcomes for metrics
type MovementRecorder interface {
	// RecordMovement is called once per committed movement
	RecordMovement(ctx context.Context, movementType inventory.MovementType, quantity int)
	// RecordRejection is called when a movement is refused; reason is the domain error code
	RecordRejection(ctx context.Context, movementType inventory.MovementType, reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordMovement(context.Context, inventory.MovementType, int)    {}
func (noopRecorder) RecordRejection(context.Context, inventory.MovementType, string) {}

// StockService coordinates every write that touches product quantity or the
// movement log. Each operation runs in a single TransactionScope unit.
//
// Units run on a context detached from the caller's cancellation: once a unit
// has started it is allowed to commit or roll back on its own, so a cancelled
// request never leaves a partial write behind. Transaction conflicts are
// returned as CONCURRENCY_CONFLICT and never retried here.
type StockService struct {
	scope          TransactionScope
	logger         *zap.Logger
	metrics        MovementRecorder
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
}

// NewStockService creates a new StockService
func NewStockService(scope TransactionScope, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:          scope,
		logger:         logger,
		metrics:        noopRecorder{},
		idempotencyTTL: DefaultIdempotencyTTL,
	}
}

// WithMetrics sets the recorder for movement metrics
func (s *StockService) WithMetrics(recorder MovementRecorder) *StockService {
	if recorder != nil {
		s.metrics = recorder
	}
	return s
}

// WithIdempotencyStore enables duplicate detection for movements that carry an idempotency key
func (s *StockService) WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) *StockService {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
	return s
}

// AdjustStock applies one movement to a product and appends it to the log.
// The product row is locked for the duration of the unit, so concurrent
// movements on the same product are applied one after another.
func (s *StockService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (*catalogapp.ProductResponse, error) {
	if !cmd.Type.IsValid() {
		return nil, shared.NewInvalidInputError(fmt.Sprintf("Invalid movement type: %q", cmd.Type))
	}
	if cmd.Quantity <= 0 {
		return nil, shared.NewInvalidInputError("Movement quantity must be positive")
	}

	ctx, span := telemetry.StartSpan(ctx, "stock.adjust",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, cmd.ProductID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrMovementType, cmd.Type.String()),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, cmd.Quantity),
	)
	defer span.End()

	log := s.logger.With(
		zap.String("product_id", cmd.ProductID.String()),
		zap.String("movement_type", cmd.Type.String()),
		zap.Int("quantity", cmd.Quantity),
	)

	release, err := s.claimIdempotencyKey(ctx, cmd)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordRejection(ctx, cmd.Type, shared.CodeOf(err))
		return nil, err
	}

	txCtx := context.WithoutCancel(ctx)
	var updated *catalog.Product
	var entry *inventory.LogEntry

	err = s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDForUpdate(txCtx, cmd.ProductID)
		if err != nil {
			return err
		}

		newQuantity, newStatus, err := inventory.ApplyMovement(product.Quantity, cmd.Type, cmd.Quantity)
		if err != nil {
			return err
		}

		entry, err = inventory.NewLogEntry(product.ID, cmd.Type, cmd.Quantity, product.Quantity, newQuantity, cmd.Reason)
		if err != nil {
			return err
		}

		product.ApplyStock(newQuantity, newStatus)
		if err := repos.ProductRepo().UpdateStock(txCtx, product.ID, product.Quantity, product.Status, product.UpdatedAt); err != nil {
			return err
		}
		if err := repos.LogRepo().Append(txCtx, entry); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		release()
		telemetry.RecordError(span, err)
		telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, shared.CodeOf(err))
		s.logFailure(log, "Stock movement rejected", err)
		s.metrics.RecordRejection(ctx, cmd.Type, shared.CodeOf(err))
		return nil, err
	}

	telemetry.SetOK(span)
	s.metrics.RecordMovement(ctx, cmd.Type, cmd.Quantity)
	log.Info("Stock movement applied",
		zap.Int("balance_before", entry.BalanceBefore),
		zap.Int("balance_after", entry.BalanceAfter),
		zap.String("status", updated.Status.String()),
	)
	if ctx.Err() != nil {
		log.Warn("Caller went away before the stock movement finished; movement was committed",
			zap.Error(ctx.Err()),
		)
	}

	resp := catalogapp.ToProductResponse(updated)
	return &resp, nil
}

// CreateProduct inserts a product. A positive opening quantity is recorded as
// a PURCHASE entry with reason "Initial stock" in the same unit.
func (s *StockService) CreateProduct(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	product, err := req.NewProduct()
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	log.Info("Creating product", zap.Int("quantity", product.Quantity))

	txCtx := context.WithoutCancel(ctx)
	err = s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		if err := checkProductUniqueness(txCtx, repos.ProductRepo(), product); err != nil {
			return err
		}
		if err := checkProductReferences(txCtx, repos, product); err != nil {
			return err
		}

		if err := repos.ProductRepo().Create(txCtx, product); err != nil {
			return err
		}

		if product.Quantity > 0 {
			entry, err := inventory.NewLogEntry(
				product.ID,
				inventory.MovementTypePurchase,
				product.Quantity,
				0,
				product.Quantity,
				inventory.InitialStockReason,
			)
			if err != nil {
				return err
			}
			if err := repos.LogRepo().Append(txCtx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure(log, "Failed to create product", err)
		return nil, err
	}

	if product.Quantity > 0 {
		s.metrics.RecordMovement(ctx, inventory.MovementTypePurchase, product.Quantity)
	}
	log.Info("Product created successfully", zap.String("status", product.Status.String()))

	resp := catalogapp.ToProductResponse(product)
	return &resp, nil
}

// DeleteProduct removes a product together with its movement log
func (s *StockService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	log := s.logger.With(zap.String("product_id", productID.String()))

	var removed int64
	txCtx := context.WithoutCancel(ctx)
	err := s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		if _, err := repos.ProductRepo().FindByIDForUpdate(txCtx, productID); err != nil {
			return err
		}

		n, err := repos.LogRepo().DeleteByProduct(txCtx, productID)
		if err != nil {
			return err
		}
		removed = n

		return repos.ProductRepo().Delete(txCtx, productID)
	})
	if err != nil {
		s.logFailure(log, "Failed to delete product", err)
		return err
	}

	log.Info("Product deleted", zap.Int64("log_entries_removed", removed))
	return nil
}

// claimIdempotencyKey marks the command's key as in use. The returned release
// func forgets the key again and is safe to call when no key was claimed.
func (s *StockService) claimIdempotencyKey(ctx context.Context, cmd AdjustStockCommand) (func(), error) {
	noop := func() {}
	if s.idempotency == nil || cmd.IdempotencyKey == "" {
		return noop, nil
	}

	key := fmt.Sprintf("stock-adjust:%s:%s", cmd.ProductID, cmd.IdempotencyKey)
	fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
	if err != nil {
		return noop, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !fresh {
		return noop, shared.NewDomainError(shared.CodeDuplicateRequest,
			"A stock movement with this idempotency key has already been submitted")
	}

	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Failed to release idempotency key",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}, nil
}

// logFailure logs business rejections at Warn and everything else at Error
func (s *StockService) logFailure(log *zap.Logger, msg string, err error) {
	switch shared.CodeOf(err) {
	case "":
		log.Error(msg, zap.Error(err))
	default:
		log.Warn(msg, zap.String("code", shared.CodeOf(err)), zap.Error(err))
	}
}

func checkProductUniqueness(ctx context.Context, repo catalog.ProductRepository, product *catalog.Product) error {
	exists, err := repo.ExistsBySKU(ctx, product.SKU, product.ID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewAlreadyExistsError("Product with SKU " + product.SKU + " already exists")
	}

	if product.Barcode != nil {
		exists, err := repo.ExistsByBarcode(ctx, *product.Barcode, product.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewAlreadyExistsError("Product with barcode " + *product.Barcode + " already exists")
		}
	}
	return nil
}

func checkProductReferences(ctx context.Context, repos TransactionalRepositories, product *catalog.Product) error {
	if product.CategoryID != nil {
		if _, err := repos.CategoryRepo().FindByID(ctx, *product.CategoryID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewInvalidInputError("Category " + product.CategoryID.String() + " does not exist")
			}
			return err
		}
	}
	if product.SupplierID != nil {
		if _, err := repos.SupplierRepo().FindByID(ctx, *product.SupplierID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewInvalidInputError("Supplier " + product.SupplierID.String() + " does not exist")
			}
			return err
		}
	}
	return nil
}
