package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Product directory defaults
const (
	DefaultExpiryWindow        = 30 * 24 * time.Hour
	DefaultRecentMovementLimit = 10
)

// ProductService is the read side of the catalog plus product metadata updates.
// Stock quantity is never written here.
type ProductService struct {
	productRepo  catalog.ProductRepository
	logRepo      inventory.LogRepository
	categoryRepo catalog.CategoryRepository
	supplierRepo partner.SupplierRepository
	logger       *zap.Logger

	expiryWindow time.Duration
	now          func() time.Time
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	logRepo inventory.LogRepository,
	categoryRepo catalog.CategoryRepository,
	supplierRepo partner.SupplierRepository,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		logRepo:      logRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		logger:       logger,
		expiryWindow: DefaultExpiryWindow,
		now:          time.Now,
	}
}

// WithExpiryWindow sets how far ahead ExpiringSoon looks
func (s *ProductService) WithExpiryWindow(window time.Duration) *ProductService {
	if window > 0 {
		s.expiryWindow = window
	}
	return s
}

// WithClock overrides the time source used by ExpiringSoon
func (s *ProductService) WithClock(now func() time.Time) *ProductService {
	if now != nil {
		s.now = now
	}
	return s
}

// List retrieves products matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter, err := filter.ToDomainFilter()
	if err != nil {
		return nil, 0, err
	}

	products, total, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// GetByID retrieves a product with up to recentLimit of its latest movements,
// newest first. recentLimit <= 0 omits the movements.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, recentLimit int) (*ProductDetailResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &ProductDetailResponse{ProductResponse: ToProductResponse(product)}
	if recentLimit > 0 {
		entries, err := s.logRepo.ListByProduct(ctx, id, recentLimit, true)
		if err != nil {
			return nil, err
		}
		resp.RecentMovements = ToLogEntryResponses(entries)
	}
	return resp, nil
}

// LowStock lists active products at or below their reorder point
func (s *ProductService) LowStock(ctx context.Context, req ListRequest) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.FindLowStock(ctx, req.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// ExpiringSoon lists active products whose expiry date falls within the window from now
func (s *ProductService) ExpiringSoon(ctx context.Context, req ListRequest) ([]ProductResponse, int64, error) {
	now := s.now().UTC()
	products, total, err := s.productRepo.FindExpiringBetween(ctx, now, now.Add(s.expiryWindow), req.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// History lists a product's movements, newest first
func (s *ProductService) History(ctx context.Context, id uuid.UUID, req ListRequest) ([]LogEntryResponse, int64, error) {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.logRepo.ListByProductPaged(ctx, id, req.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToLogEntryResponses(entries), total, nil
}

// Update changes product metadata and, optionally, status.
// A concurrent stock movement between read and write surfaces as CONCURRENCY_CONFLICT.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SKU != nil {
		if err := product.ChangeSKU(*req.SKU); err != nil {
			return nil, err
		}
		exists, err := s.productRepo.ExistsBySKU(ctx, product.SKU, product.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewAlreadyExistsError("Product with SKU " + product.SKU + " already exists")
		}
	}

	if req.Barcode != nil {
		if err := product.SetBarcode(*req.Barcode); err != nil {
			return nil, err
		}
		if product.Barcode != nil {
			exists, err := s.productRepo.ExistsByBarcode(ctx, *product.Barcode, product.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewAlreadyExistsError("Product with barcode " + *product.Barcode + " already exists")
			}
		}
	}

	if err := product.SetDetails(
		valueOr(req.Name, product.Name),
		valueOr(req.GenericName, product.GenericName),
		valueOr(req.Description, product.Description),
		valueOr(req.Manufacturer, product.Manufacturer),
		valueOr(req.DosageForm, product.DosageForm),
		valueOr(req.Unit, product.Unit),
	); err != nil {
		return nil, err
	}

	if req.CostPrice != nil || req.SellingPrice != nil {
		if err := product.SetPrices(valueOr(req.CostPrice, product.CostPrice), valueOr(req.SellingPrice, product.SellingPrice)); err != nil {
			return nil, err
		}
	}

	if req.ReorderPoint != nil {
		if err := product.SetReorderPoint(*req.ReorderPoint); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearExpiry:
		product.SetExpiryDate(nil)
	case req.ExpiryDate != nil:
		product.SetExpiryDate(req.ExpiryDate)
	}

	if err := s.applyReferences(ctx, product, req); err != nil {
		return nil, err
	}

	if req.Status != nil {
		if err := product.ChangeStatus(catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Warn("Failed to update product",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Product updated",
		zap.String("product_id", id.String()),
		zap.String("status", product.Status.String()),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) applyReferences(ctx context.Context, product *catalog.Product, req UpdateProductRequest) error {
	switch {
	case req.ClearCategory:
		product.SetCategory(nil)
	case req.CategoryID != nil:
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewInvalidInputError("Category " + req.CategoryID.String() + " does not exist")
			}
			return err
		}
		product.SetCategory(req.CategoryID)
	}

	switch {
	case req.ClearSupplier:
		product.SetSupplier(nil)
	case req.SupplierID != nil:
		if _, err := s.supplierRepo.FindByID(ctx, *req.SupplierID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewInvalidInputError("Supplier " + req.SupplierID.String() + " does not exist")
			}
			return err
		}
		product.SetSupplier(req.SupplierID)
	}
	return nil
}

func valueOr[T any](p *T, fallback T) T {
	if p != nil {
		return *p
	}
	return fallback
}
