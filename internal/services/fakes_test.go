package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"farm_backend/internal/events"
	"farm_backend/internal/models"
	"farm_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	adminCaller = models.Caller{UserID: 1, Username: "root", Role: models.RoleAdmin}
	staffCaller = models.Caller{UserID: 3, Username: "sam", Role: models.RoleStaff}
)

// --- items ---

type fakeItemRepo struct {
	mu     sync.Mutex
	items  map[int64]*models.Item
	nextID int64
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*models.Item)}
}

func (f *fakeItemRepo) Create(_ context.Context, _ repositories.SQLExecutor, item *models.Item) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = f.nextID
	cp := *item
	f.items[item.ID] = &cp
	return item.ID, nil
}

func (f *fakeItemRepo) GetByID(_ context.Context, id int64) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeItemRepo) List(_ context.Context, filter models.ItemFilter, page, pageSize int) ([]models.Item, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := models.ItemStatusActive
	if filter.Status != nil {
		status = *filter.Status
	}
	var out []models.Item
	for _, item := range f.items {
		if item.Status != status {
			continue
		}
		if filter.LowStockOnly && item.CurrentQuantity.GreaterThan(item.ReorderLevel) {
			continue
		}
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (f *fakeItemRepo) Update(_ context.Context, _ repositories.SQLExecutor, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.items[item.ID]
	if !ok || existing.Status != models.ItemStatusActive {
		return repositories.ErrNotFound
	}
	cp := *item
	cp.CurrentQuantity = existing.CurrentQuantity
	cp.Status = existing.Status
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeItemRepo) SKUInUse(_ context.Context, sku string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.SKU == sku && item.Status == models.ItemStatusActive && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItemRepo) AdjustQuantity(_ context.Context, _ repositories.SQLExecutor, itemID int64, delta decimal.Decimal) (*models.StockLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok || item.Status != models.ItemStatusActive {
		return nil, repositories.ErrNotFound
	}
	next := item.CurrentQuantity.Add(delta)
	if next.IsNegative() {
		return nil, repositories.ErrInsufficientQuantity
	}
	if next.GreaterThanOrEqual(decimal.New(1, 11)) {
		return nil, repositories.ErrOutOfRange
	}
	item.CurrentQuantity = next
	return &models.StockLevel{
		ItemID:          item.ID,
		ItemName:        item.Name,
		CurrentQuantity: next,
		ReorderLevel:    item.ReorderLevel,
		MaximumLevel:    item.MaximumLevel,
	}, nil
}

func (f *fakeItemRepo) SetStatus(_ context.Context, _ repositories.SQLExecutor, itemID int64, status models.ItemStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok || item.Status == status {
		return repositories.ErrNotFound
	}
	item.Status = status
	return nil
}

func (f *fakeItemRepo) Summary(_ context.Context, _ time.Time, _ int) (*models.InventorySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.InventorySummary{}
	for _, item := range f.items {
		if item.Status != models.ItemStatusActive {
			continue
		}
		s.ActiveItems++
		s.TotalStockValue = s.TotalStockValue.Add(item.CurrentQuantity.Mul(item.UnitCost))
	}
	return s, nil
}

// --- ledger ---

type fakeLedgerRepo struct {
	entries   []models.LedgerEntry
	createErr error
}

func (f *fakeLedgerRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.LedgerEntry) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeLedgerRepo) ListByItem(_ context.Context, itemID int64, _ models.LedgerFilter, _, _ int) ([]models.LedgerEntry, int, error) {
	var out []models.LedgerEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].ItemID == itemID {
			out = append(out, f.entries[i])
		}
	}
	return out, len(out), nil
}

func (f *fakeLedgerRepo) AllForItem(_ context.Context, itemID int64) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- reference data ---

type fakeReferenceRepo struct {
	categories map[int64]models.Category
	suppliers  map[int64]models.Supplier
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{
		categories: map[int64]models.Category{1: {ID: 1, Name: "Feed"}},
		suppliers:  map[int64]models.Supplier{1: {ID: 1, Name: "Valley Co-op"}},
	}
}

func (f *fakeReferenceRepo) CreateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) (int64, error) {
	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	c.ID = int64(len(f.categories) + 1)
	f.categories[c.ID] = *c
	return c.ID, nil
}

func (f *fakeReferenceRepo) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeReferenceRepo) GetCategories(_ context.Context, _, _ int) ([]models.Category, int, error) {
	out := make([]models.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeReferenceRepo) CreateSupplier(_ context.Context, _ repositories.SQLExecutor, s *models.Supplier) (int64, error) {
	s.ID = int64(len(f.suppliers) + 1)
	f.suppliers[s.ID] = *s
	return s.ID, nil
}

func (f *fakeReferenceRepo) GetSupplierByID(_ context.Context, id int64) (*models.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (f *fakeReferenceRepo) GetSuppliers(_ context.Context, _, _ int) ([]models.Supplier, int, error) {
	out := make([]models.Supplier, 0, len(f.suppliers))
	for _, s := range f.suppliers {
		out = append(out, s)
	}
	return out, len(out), nil
}

// --- batches ---

type fakeBatchRepo struct {
	batches map[int64]*models.Batch
	checks  []models.QualityCheck
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[int64]*models.Batch)}
}

func (f *fakeBatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, b *models.Batch) (int64, error) {
	for _, existing := range f.batches {
		if existing.ItemID == b.ItemID && existing.BatchNumber == b.BatchNumber {
			return 0, repositories.ErrDuplicateKey
		}
	}
	b.ID = int64(len(f.batches) + 1)
	cp := *b
	f.batches[b.ID] = &cp
	return b.ID, nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, id int64) (*models.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	for i := len(f.checks) - 1; i >= 0; i-- {
		if f.checks[i].BatchID == id {
			latest := f.checks[i]
			cp.LatestCheck = &latest
			break
		}
	}
	return &cp, nil
}

func (f *fakeBatchRepo) ListByItem(_ context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error) {
	var out []models.Batch
	for _, b := range f.batches {
		if b.ItemID == itemID && (status == nil || b.Status == *status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int64, status models.BatchStatus) error {
	b, ok := f.batches[id]
	if !ok {
		return repositories.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBatchRepo) CountByStatus(_ context.Context) (map[models.BatchStatus]int, error) {
	counts := make(map[models.BatchStatus]int)
	for _, b := range f.batches {
		counts[b.Status]++
	}
	return counts, nil
}

func (f *fakeBatchRepo) CreateQualityCheck(_ context.Context, _ repositories.SQLExecutor, c *models.QualityCheck) (int64, error) {
	c.ID = int64(len(f.checks) + 1)
	c.CheckDate = time.Now().UTC()
	f.checks = append(f.checks, *c)
	return c.ID, nil
}

func (f *fakeBatchRepo) ListQualityChecks(_ context.Context, batchID int64) ([]models.QualityCheck, error) {
	var out []models.QualityCheck
	for _, c := range f.checks {
		if c.BatchID == batchID {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- events ---

type recordingNotifier struct {
	events []events.Event
}

func (r *recordingNotifier) Notify(e events.Event) {
	r.events = append(r.events, e)
}

func (r *recordingNotifier) types() []events.Type {
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
