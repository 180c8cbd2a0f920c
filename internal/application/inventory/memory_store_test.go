package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// memoryStore is a transactional in-memory backing store for service tests.
// Execute serializes units and restores a snapshot when fn fails, which gives
// the same all-or-nothing behavior as a database transaction with a row lock.
type memoryStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]catalog.Product
	logs       []inventory.LogEntry
	categories map[uuid.UUID]catalog.Category
	suppliers  map[uuid.UUID]partner.Supplier

	// appendErr, when set, makes every log append fail
	appendErr error
	// executions counts units started through the scope
	executions int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:   make(map[uuid.UUID]catalog.Product),
		categories: make(map[uuid.UUID]catalog.Category),
		suppliers:  make(map[uuid.UUID]partner.Supplier),
	}
}

type memorySnapshot struct {
	products   map[uuid.UUID]catalog.Product
	logs       []inventory.LogEntry
	categories map[uuid.UUID]catalog.Category
	suppliers  map[uuid.UUID]partner.Supplier
}

func (s *memoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		products:   make(map[uuid.UUID]catalog.Product, len(s.products)),
		logs:       append([]inventory.LogEntry(nil), s.logs...),
		categories: make(map[uuid.UUID]catalog.Category, len(s.categories)),
		suppliers:  make(map[uuid.UUID]partner.Supplier, len(s.suppliers)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.categories {
		snap.categories[k] = v
	}
	for k, v := range s.suppliers {
		snap.suppliers[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.products = snap.products
	s.logs = snap.logs
	s.categories = snap.categories
	s.suppliers = snap.suppliers
}

// Execute implements TransactionScope
func (s *memoryStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions++

	snap := s.snapshot()
	if err := fn(memoryRepos{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// seedProduct stores a product directly, bypassing the service
func (s *memoryStore) seedProduct(p *catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
}

func (s *memoryStore) seedLog(entry *inventory.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
}

func (s *memoryStore) product(id uuid.UUID) (catalog.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *memoryStore) logsFor(id uuid.UUID) []inventory.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.LogEntry
	for _, e := range s.logs {
		if e.ProductID == id {
			out = append(out, e)
		}
	}
	return out
}

func (s *memoryStore) totalLogs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

type memoryRepos struct{ s *memoryStore }

func (r memoryRepos) ProductRepo() catalog.ProductRepository    { return memoryProducts(r) }
func (r memoryRepos) LogRepo() inventory.LogRepository          { return memoryLogs(r) }
func (r memoryRepos) CategoryRepo() catalog.CategoryRepository  { return memoryCategories(r) }
func (r memoryRepos) SupplierRepo() partner.SupplierRepository { return memorySuppliers(r) }

type memoryProducts struct{ s *memoryStore }

func (r memoryProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, shared.NewNotFoundError("Product", id)
	}
	return &p, nil
}

func (r memoryProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.FindByID(ctx, id)
}

func (r memoryProducts) all(keep func(*catalog.Product) bool) []catalog.Product {
	out := make([]catalog.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if keep(&p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (r memoryProducts) FindAll(_ context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	out := r.all(func(p *catalog.Product) bool {
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			return false
		}
		return true
	})
	return out, int64(len(out)), nil
}

func (r memoryProducts) FindLowStock(_ context.Context, _ shared.Filter) ([]catalog.Product, int64, error) {
	out := r.all(func(p *catalog.Product) bool { return p.IsLowStock() })
	return out, int64(len(out)), nil
}

func (r memoryProducts) FindExpiringBetween(_ context.Context, from, to time.Time, _ shared.Filter) ([]catalog.Product, int64, error) {
	out := r.all(func(p *catalog.Product) bool { return p.IsExpiringWithin(from, to.Sub(from)) })
	return out, int64(len(out)), nil
}

func (r memoryProducts) Create(_ context.Context, product *catalog.Product) error {
	if _, ok := r.s.products[product.ID]; ok {
		return shared.NewAlreadyExistsError("Product already exists")
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r memoryProducts) Save(_ context.Context, product *catalog.Product) error {
	current, ok := r.s.products[product.ID]
	if !ok {
		return shared.NewNotFoundError("Product", product.ID)
	}
	if current.Quantity != product.Quantity {
		return shared.NewConflictError("Product stock changed during update", nil)
	}
	updated := *product
	r.s.products[product.ID] = updated
	return nil
}

func (r memoryProducts) UpdateStock(_ context.Context, id uuid.UUID, quantity int, status catalog.ProductStatus, updatedAt time.Time) error {
	p, ok := r.s.products[id]
	if !ok {
		return shared.NewConflictError("Product was modified by another process", nil)
	}
	p.Quantity = quantity
	p.Status = status
	p.UpdatedAt = updatedAt
	r.s.products[id] = p
	return nil
}

func (r memoryProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.products[id]; !ok {
		return shared.NewNotFoundError("Product", id)
	}
	delete(r.s.products, id)
	return nil
}

func (r memoryProducts) ExistsBySKU(_ context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	for id, p := range r.s.products {
		if id != excludeID && p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryProducts) ExistsByBarcode(_ context.Context, barcode string, excludeID uuid.UUID) (bool, error) {
	for id, p := range r.s.products {
		if id != excludeID && p.Barcode != nil && *p.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryProducts) CountByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	return int64(len(r.all(func(p *catalog.Product) bool {
		return p.CategoryID != nil && *p.CategoryID == categoryID
	}))), nil
}

func (r memoryProducts) CountBySupplier(_ context.Context, supplierID uuid.UUID) (int64, error) {
	return int64(len(r.all(func(p *catalog.Product) bool {
		return p.SupplierID != nil && *p.SupplierID == supplierID
	}))), nil
}

func (r memoryProducts) CountLowStock(_ context.Context) (int64, error) {
	return int64(len(r.all(func(p *catalog.Product) bool { return p.IsLowStock() }))), nil
}

type memoryLogs struct{ s *memoryStore }

func (r memoryLogs) Append(_ context.Context, entry *inventory.LogEntry) error {
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r memoryLogs) ListByProduct(_ context.Context, productID uuid.UUID, limit int, mostRecentFirst bool) ([]inventory.LogEntry, error) {
	var out []inventory.LogEntry
	for _, e := range r.s.logs {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	if mostRecentFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memoryLogs) ListByProductPaged(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.LogEntry, int64, error) {
	all, _ := r.ListByProduct(ctx, productID, 0, true)
	filter = filter.Normalize()
	start := min(filter.Offset(), len(all))
	end := min(start+filter.PageSize, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r memoryLogs) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	all, _ := r.ListByProduct(ctx, productID, 0, false)
	return int64(len(all)), nil
}

func (r memoryLogs) DeleteByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	kept := r.s.logs[:0:0]
	var removed int64
	for _, e := range r.s.logs {
		if e.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.logs = kept
	return removed, nil
}

type memoryCategories struct{ s *memoryStore }

func (r memoryCategories) FindByID(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, shared.NewNotFoundError("Category", id)
	}
	return &c, nil
}

func (r memoryCategories) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Category, int64, error) {
	out := make([]catalog.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r memoryCategories) Create(_ context.Context, c *catalog.Category) error {
	r.s.categories[c.ID] = *c
	return nil
}

func (r memoryCategories) Save(_ context.Context, c *catalog.Category) error {
	r.s.categories[c.ID] = *c
	return nil
}

func (r memoryCategories) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.categories, id)
	return nil
}

func (r memoryCategories) ExistsByName(_ context.Context, name string, excludeID uuid.UUID) (bool, error) {
	for id, c := range r.s.categories {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type memorySuppliers struct{ s *memoryStore }

func (r memorySuppliers) FindByID(_ context.Context, id uuid.UUID) (*partner.Supplier, error) {
	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, shared.NewNotFoundError("Supplier", id)
	}
	return &sup, nil
}

func (r memorySuppliers) FindAll(_ context.Context, _ shared.Filter) ([]partner.Supplier, int64, error) {
	out := make([]partner.Supplier, 0, len(r.s.suppliers))
	for _, sup := range r.s.suppliers {
		out = append(out, sup)
	}
	return out, int64(len(out)), nil
}

func (r memorySuppliers) Create(_ context.Context, sup *partner.Supplier) error {
	r.s.suppliers[sup.ID] = *sup
	return nil
}

func (r memorySuppliers) Save(_ context.Context, sup *partner.Supplier) error {
	r.s.suppliers[sup.ID] = *sup
	return nil
}

func (r memorySuppliers) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.suppliers, id)
	return nil
}

func (r memorySuppliers) ExistsByName(_ context.Context, name string, excludeID uuid.UUID) (bool, error) {
	for id, sup := range r.s.suppliers {
		if id != excludeID && strings.EqualFold(sup.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// memoryIdempotency is a map-backed shared.IdempotencyStore
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]struct{}
	err  error
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]struct{})}
}

func (m *memoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memoryIdempotency) Close() error { return nil }

// recordingMetrics captures MovementRecorder calls
type recordingMetrics struct {
	mu         sync.Mutex
	movements  map[inventory.MovementType]int
	rejections map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		movements:  make(map[inventory.MovementType]int),
		rejections: make(map[string]int),
	}
}

func (r *recordingMetrics) RecordMovement(_ context.Context, t inventory.MovementType, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements[t]++
}

func (r *recordingMetrics) RecordRejection(_ context.Context, _ inventory.MovementType, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[reason]++
}

var errDiskFull = errors.New("disk full")

var (
	_ TransactionScope       = (*memoryStore)(nil)
	_ shared.IdempotencyStore = (*memoryIdempotency)(nil)
	_ MovementRecorder       = (*recordingMetrics)(nil)
)
