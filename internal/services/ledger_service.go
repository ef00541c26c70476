package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"farm_backend/internal/events"
	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// AppendRequest is a stock movement as submitted by a user.
type AppendRequest struct {
	ActionType  models.ActionType `json:"action_type"`
	Quantity    decimal.Decimal   `json:"quantity"`
	Notes       *string           `json:"notes"`
	BatchNumber *string           `json:"batch_number"`
	ExpiryDate  *string           `json:"expiry_date"` // YYYY-MM-DD
	UnitCost    *decimal.Decimal  `json:"unit_cost"`
	SupplierID  *int64            `json:"supplier_id"`
}

// LedgerReceipt is the appended entry together with the resulting stock.
type LedgerReceipt struct {
	Entry           models.LedgerEntry `json:"entry"`
	CurrentQuantity decimal.Decimal    `json:"current_quantity"`
	StockStatus     string             `json:"stock_status"`
}

// LedgerService records stock movements. Item.current_quantity only changes here.
type LedgerService interface {
	Append(ctx context.Context, caller models.Caller, itemID int64, req AppendRequest) (*LedgerReceipt, error)
	History(ctx context.Context, itemID int64, filter models.LedgerFilter, page, pageSize int) ([]models.LedgerEntry, int, error)
	Reconcile(ctx context.Context, caller models.Caller, itemID int64) (*models.ReconcileReport, error)
}

type ledgerService struct {
	db         *sql.DB
	itemRepo   repositories.ItemRepository
	ledgerRepo repositories.LedgerRepository
	notifier   events.Notifier
	metrics    *metrics.Metrics
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	ledgerRepo repositories.LedgerRepository,
	notifier events.Notifier,
	m *metrics.Metrics,
) LedgerService {
	return &ledgerService{
		db:         db,
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		notifier:   notifier,
		metrics:    m,
	}
}

func (s *ledgerService) validate(req AppendRequest) (*models.LedgerEntry, error) {
	v := NewValidationError()
	switch {
	case !req.ActionType.IsValid():
		v.Add("action_type", fmt.Sprintf("unknown action type '%s'", req.ActionType))
	case req.ActionType == models.ActionInitialAdd:
		v.Add("action_type", "initial_add is recorded only when an item is created")
	}
	if !req.Quantity.IsPositive() {
		v.Add("quantity", "must be greater than zero")
	}
	checkQuantity(v, "quantity", req.Quantity)
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			v.Add("unit_cost", "must not be negative")
		}
		checkMoney(v, "unit_cost", *req.UnitCost)
	}
	entry := &models.LedgerEntry{
		ActionType:  req.ActionType,
		Quantity:    req.Quantity,
		Notes:       utils.TrimPtr(req.Notes),
		BatchNumber: utils.TrimPtr(req.BatchNumber),
		UnitCost:    req.UnitCost,
		SupplierID:  req.SupplierID,
	}
	if req.ExpiryDate != nil && strings.TrimSpace(*req.ExpiryDate) != "" {
		d, err := utils.ParseDate(*req.ExpiryDate)
		if err != nil {
			v.Add("expiry_date", "must be a date in YYYY-MM-DD format")
		} else {
			entry.ExpiryDate = &d
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Append adjusts the item's quantity and writes the ledger entry in one
// transaction. A removal larger than the balance is rejected.
func (s *ledgerService) Append(ctx context.Context, caller models.Caller, itemID int64, req AppendRequest) (*LedgerReceipt, error) {
	entry, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	entry.ItemID = itemID
	entry.UserID = caller.UserID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start database transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	level, err := s.itemRepo.AdjustQuantity(ctx, tx, itemID, entry.ActionType.SignedQuantity(entry.Quantity))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrItemNotFound
		case errors.Is(err, repositories.ErrInsufficientQuantity):
			return nil, fieldError("quantity", fmt.Sprintf("removing %s exceeds the current balance", entry.Quantity), ErrInsufficientStock)
		case errors.Is(err, repositories.ErrOutOfRange):
			return nil, fieldError("quantity", fmt.Sprintf("adding %s would exceed the largest storable balance", entry.Quantity), nil)
		}
		return nil, fmt.Errorf("failed to adjust quantity of item %d: %w", itemID, err)
	}

	if _, err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, fieldError("supplier_id", "supplier does not exist", ErrSupplierNotFound)
		}
		return nil, fmt.Errorf("failed to record %s for item %d: %w", entry.ActionType, itemID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit ledger entry: %v", repositories.ErrDatabaseError, err)
	}

	s.metrics.LedgerEntry(string(entry.ActionType))
	notifyStockChange(s.notifier, caller, entry, level)

	return &LedgerReceipt{
		Entry:           *entry,
		CurrentQuantity: level.CurrentQuantity,
		StockStatus: StockStatus(models.Item{
			CurrentQuantity: level.CurrentQuantity,
			ReorderLevel:    level.ReorderLevel,
		}),
	}, nil
}

// notifyStockChange emits the movement and any threshold alert it caused.
func notifyStockChange(n events.Notifier, caller models.Caller, entry *models.LedgerEntry, level *models.StockLevel) {
	n.Notify(events.New(events.TypeStockChanged, events.EntityItem, entry.ItemID, caller, map[string]interface{}{
		"entry_id":         entry.ID,
		"action_type":      entry.ActionType,
		"quantity":         entry.Quantity.String(),
		"current_quantity": level.CurrentQuantity.String(),
	}))

	alert := map[string]interface{}{
		"item_name":        level.ItemName,
		"current_quantity": level.CurrentQuantity.String(),
		"reorder_level":    level.ReorderLevel.String(),
		"maximum_level":    level.MaximumLevel.String(),
	}
	if level.CurrentQuantity.LessThanOrEqual(level.ReorderLevel) {
		n.Notify(events.New(events.TypeLowStock, events.EntityItem, entry.ItemID, caller, alert))
	}
	if level.MaximumLevel.IsPositive() && level.CurrentQuantity.GreaterThan(level.MaximumLevel) {
		n.Notify(events.New(events.TypeOverstock, events.EntityItem, entry.ItemID, caller, alert))
	}
}

func (s *ledgerService) History(ctx context.Context, itemID int64, filter models.LedgerFilter, page, pageSize int) ([]models.LedgerEntry, int, error) {
	if filter.ActionType != nil && !filter.ActionType.IsValid() {
		return nil, 0, fieldError("action_type", fmt.Sprintf("unknown action type '%s'", *filter.ActionType), nil)
	}
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, ErrItemNotFound
		}
		return nil, 0, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	entries, total, err := s.ledgerRepo.ListByItem(ctx, itemID, filter, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger of item %d: %w", itemID, err)
	}
	return entries, total, nil
}

// Reconcile replays the ledger and compares it with the cached quantity.
func (s *ledgerService) Reconcile(ctx context.Context, caller models.Caller, itemID int64) (*models.ReconcileReport, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	entries, err := s.ledgerRepo.AllForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger of item %d: %w", itemID, err)
	}

	replayed := ReplayBalance(entries)
	report := &models.ReconcileReport{
		ItemID:          itemID,
		CachedQuantity:  item.CurrentQuantity,
		ReplayedBalance: replayed,
		Drift:           item.CurrentQuantity.Sub(replayed),
		Entries:         len(entries),
		InSync:          item.CurrentQuantity.Equal(replayed),
	}
	if i := firstNegative(entries); i >= 0 {
		id := entries[i].ID
		report.NegativeEntryID = &id
	}
	if !report.InSync {
		utils.LogWarn(nil, "Ledger drift detected", map[string]interface{}{
			"item_id": itemID,
			"cached":  item.CurrentQuantity.String(),
			"replay":  replayed.String(),
		})
	}
	return report, nil
}
