package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm_backend/internal/events"
	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// ItemFields is the editable master data of an item.
type ItemFields struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"item_name"`
	Description   *string         `json:"description"`
	CategoryID    int64           `json:"category_id"`
	SupplierID    *int64          `json:"supplier_id"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
	MaximumLevel  decimal.Decimal `json:"maximum_level"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ExpiryDate    *string         `json:"expiry_date"` // YYYY-MM-DD
	BatchNumber   *string         `json:"batch_number"`
}

// CreateItemRequest adds the opening quantity, which is only set once.
type CreateItemRequest struct {
	ItemFields
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
}

// ItemService manages item master data.
type ItemService interface {
	CreateItem(ctx context.Context, caller models.Caller, req CreateItemRequest) (*models.ItemDetails, error)
	UpdateItem(ctx context.Context, caller models.Caller, itemID int64, req ItemFields) (*models.ItemDetails, error)
	SoftDeleteItem(ctx context.Context, caller models.Caller, itemID int64) error
	GetItem(ctx context.Context, itemID int64) (*models.ItemDetails, error)
	ListItems(ctx context.Context, filter models.ItemFilter, page, pageSize int) ([]models.ItemDetails, int, error)
}

type itemService struct {
	db         *sql.DB
	itemRepo   repositories.ItemRepository
	ledgerRepo repositories.LedgerRepository
	refRepo    repositories.ReferenceRepository
	notifier   events.Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewItemService creates a new instance of ItemService.
func NewItemService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	ledgerRepo repositories.LedgerRepository,
	refRepo repositories.ReferenceRepository,
	notifier events.Notifier,
	m *metrics.Metrics,
) ItemService {
	return &itemService{
		db:         db,
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		refRepo:    refRepo,
		notifier:   notifier,
		metrics:    m,
		now:        time.Now,
	}
}

// validate checks every rule and reports all failures at once.
// excludeID skips the item itself in the SKU uniqueness check.
func (s *itemService) validate(ctx context.Context, f ItemFields, excludeID int64, v *ValidationError) (*models.Item, error) {
	item := &models.Item{
		SKU:           strings.TrimSpace(f.SKU),
		Name:          strings.TrimSpace(f.Name),
		Description:   utils.TrimPtr(f.Description),
		CategoryID:    f.CategoryID,
		SupplierID:    f.SupplierID,
		UnitOfMeasure: models.UnitOfMeasure(strings.TrimSpace(f.UnitOfMeasure)),
		ReorderLevel:  f.ReorderLevel,
		MaximumLevel:  f.MaximumLevel,
		UnitCost:      f.UnitCost,
		BatchNumber:   utils.TrimPtr(f.BatchNumber),
	}

	if item.Name == "" {
		v.Add("item_name", "is required")
	}
	if item.SKU == "" {
		v.Add("sku", "is required")
	} else {
		inUse, err := s.itemRepo.SKUInUse(ctx, item.SKU, excludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
		if inUse {
			v.Add("sku", "is already used by an active item")
		}
	}

	if item.CategoryID <= 0 {
		v.Add("category_id", "is required")
	} else if _, err := s.refRepo.GetCategoryByID(ctx, item.CategoryID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		v.Add("category_id", "category does not exist")
	}
	if item.SupplierID != nil {
		if _, err := s.refRepo.GetSupplierByID(ctx, *item.SupplierID); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("failed to check supplier: %w", err)
			}
			v.Add("supplier_id", "supplier does not exist")
		}
	}

	if item.UnitOfMeasure == "" {
		v.Add("unit_of_measure", "is required")
	} else if !item.UnitOfMeasure.IsValid() {
		v.Add("unit_of_measure", fmt.Sprintf("unknown unit '%s'", item.UnitOfMeasure))
	}

	if item.ReorderLevel.IsNegative() {
		v.Add("reorder_level", "must not be negative")
	}
	checkQuantity(v, "reorder_level", item.ReorderLevel)
	if item.MaximumLevel.IsNegative() {
		v.Add("maximum_level", "must not be negative")
	} else if item.MaximumLevel.IsPositive() && item.MaximumLevel.LessThan(item.ReorderLevel) {
		v.Add("maximum_level", "must be at least the reorder level")
	}
	checkQuantity(v, "maximum_level", item.MaximumLevel)
	if item.UnitCost.IsNegative() {
		v.Add("unit_cost", "must not be negative")
	}
	checkMoney(v, "unit_cost", item.UnitCost)

	if f.ExpiryDate != nil && strings.TrimSpace(*f.ExpiryDate) != "" {
		d, err := utils.ParseDate(strings.TrimSpace(*f.ExpiryDate))
		if err != nil {
			v.Add("expiry_date", "must be a date in YYYY-MM-DD format")
		} else {
			item.ExpiryDate = &d
		}
	}
	return item, nil
}

// CreateItem inserts an active item. A positive opening quantity is recorded
// as an initial_add entry behind a savepoint: if that insert fails the item is
// still committed and the failure is only logged.
func (s *itemService) CreateItem(ctx context.Context, caller models.Caller, req CreateItemRequest) (*models.ItemDetails, error) {
	v := NewValidationError()
	item, err := s.validate(ctx, req.ItemFields, 0, v)
	if err != nil {
		return nil, err
	}
	if req.CurrentQuantity.IsNegative() {
		v.Add("current_quantity", "must not be negative")
	}
	checkQuantity(v, "current_quantity", req.CurrentQuantity)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	item.CurrentQuantity = req.CurrentQuantity
	item.Status = models.ItemStatusActive

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start database transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := s.itemRepo.Create(ctx, tx, item); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, fieldError("sku", "is already used by an active item", nil)
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, fieldError("category_id", "category or supplier does not exist", nil)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	openingRecorded := false
	if item.CurrentQuantity.IsPositive() {
		openingRecorded, err = s.recordOpeningStock(ctx, tx, caller, item)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit item: %v", repositories.ErrDatabaseError, err)
	}

	if openingRecorded {
		s.metrics.LedgerEntry(string(models.ActionInitialAdd))
	}
	s.notifier.Notify(events.New(events.TypeItemCreated, events.EntityItem, item.ID, caller, map[string]interface{}{
		"sku":              item.SKU,
		"item_name":        item.Name,
		"current_quantity": item.CurrentQuantity.String(),
		"unit_of_measure":  item.UnitOfMeasure,
	}))

	created, err := s.itemRepo.GetByID(ctx, item.ID)
	if err != nil {
		utils.LogWarn(err, "Item created but could not be re-read", map[string]interface{}{"item_id": item.ID})
		created = item
	}
	details := Describe(*created, utcToday(s.now()))
	return &details, nil
}

// recordOpeningStock returns false when the entry was rolled back.
func (s *itemService) recordOpeningStock(ctx context.Context, tx *sql.Tx, caller models.Caller, item *models.Item) (bool, error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT initial_add"); err != nil {
		return false, fmt.Errorf("%w: failed to set savepoint: %v", repositories.ErrDatabaseError, err)
	}
	unitCost := item.UnitCost
	entry := &models.LedgerEntry{
		ItemID:      item.ID,
		ActionType:  models.ActionInitialAdd,
		Quantity:    item.CurrentQuantity,
		Notes:       utils.NewNullString("Initial stock"),
		BatchNumber: item.BatchNumber,
		ExpiryDate:  item.ExpiryDate,
		UnitCost:    &unitCost,
		SupplierID:  item.SupplierID,
		UserID:      caller.UserID,
	}
	if _, err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT initial_add"); rbErr != nil {
			return false, fmt.Errorf("%w: failed to roll back to savepoint: %v", repositories.ErrDatabaseError, rbErr)
		}
		utils.LogError(err, "Opening ledger entry failed, item kept without it", map[string]interface{}{
			"item_id":  item.ID,
			"sku":      item.SKU,
			"quantity": item.CurrentQuantity.String(),
		})
		return false, nil
	}
	return true, nil
}

// UpdateItem edits master data. The quantity is left to the ledger.
func (s *itemService) UpdateItem(ctx context.Context, caller models.Caller, itemID int64, req ItemFields) (*models.ItemDetails, error) {
	existing, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if existing.Status != models.ItemStatusActive {
		return nil, ErrItemNotFound
	}

	v := NewValidationError()
	item, err := s.validate(ctx, req, itemID, v)
	if err != nil {
		return nil, err
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	item.ID = itemID

	if err := s.itemRepo.Update(ctx, s.db, item); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrItemNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, fieldError("sku", "is already used by an active item", nil)
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, fieldError("category_id", "category or supplier does not exist", nil)
		}
		return nil, fmt.Errorf("failed to update item %d: %w", itemID, err)
	}

	s.notifier.Notify(events.New(events.TypeItemUpdated, events.EntityItem, itemID, caller, map[string]interface{}{
		"sku":       item.SKU,
		"item_name": item.Name,
	}))
	return s.GetItem(ctx, itemID)
}

// SoftDeleteItem marks the item inactive; its ledger and batches stay.
func (s *itemService) SoftDeleteItem(ctx context.Context, caller models.Caller, itemID int64) error {
	if !caller.CanManage() {
		return ErrForbidden
	}
	if err := s.itemRepo.SetStatus(ctx, s.db, itemID, models.ItemStatusInactive); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to deactivate item %d: %w", itemID, err)
	}
	s.notifier.Notify(events.New(events.TypeItemDeactivated, events.EntityItem, itemID, caller, nil))
	return nil
}

func (s *itemService) GetItem(ctx context.Context, itemID int64) (*models.ItemDetails, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	details := Describe(*item, utcToday(s.now()))
	return &details, nil
}

func (s *itemService) ListItems(ctx context.Context, filter models.ItemFilter, page, pageSize int) ([]models.ItemDetails, int, error) {
	if filter.Status != nil && *filter.Status != models.ItemStatusActive && *filter.Status != models.ItemStatusInactive {
		return nil, 0, fieldError("status", fmt.Sprintf("unknown status '%s'", *filter.Status), nil)
	}
	if filter.ExpiringWithin != nil && *filter.ExpiringWithin < 0 {
		return nil, 0, fieldError("expiring_within", "must not be negative", nil)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	today := utcToday(s.now())
	filter.Today = today

	items, total, err := s.itemRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	details := make([]models.ItemDetails, 0, len(items))
	for _, item := range items {
		details = append(details, Describe(item, today))
	}
	return details, total, nil
}
