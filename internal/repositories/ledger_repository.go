package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"farm_backend/internal/models"
)

// LedgerRepository defines the database operations on inventory_log.
// Entries are immutable: there is no update or delete.
type LedgerRepository interface {
	Create(ctx context.Context, executor SQLExecutor, entry *models.LedgerEntry) (int64, error)
	ListByItem(ctx context.Context, itemID int64, filter models.LedgerFilter, page, pageSize int) ([]models.LedgerEntry, int, error)
	AllForItem(ctx context.Context, itemID int64) ([]models.LedgerEntry, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new instance of LedgerRepository.
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, executor SQLExecutor, entry *models.LedgerEntry) (int64, error) {
	query := `INSERT INTO inventory_log
	          (item_id, action_type, quantity, notes, batch_number, expiry_date, unit_cost, supplier_id, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		entry.ItemID, entry.ActionType, entry.Quantity, entry.Notes, entry.BatchNumber,
		entry.ExpiryDate, entry.UnitCost, entry.SupplierID, entry.UserID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating %s ledger entry for item ID %d", entry.ActionType, entry.ItemID))
	}
	return entry.ID, nil
}

func (r *ledgerRepository) ListByItem(ctx context.Context, itemID int64, filter models.LedgerFilter, page, pageSize int) ([]models.LedgerEntry, int, error) {
	entries := []models.LedgerEntry{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    l.id, l.item_id, l.action_type, l.quantity, l.notes, l.batch_number, l.expiry_date,
	    l.unit_cost, l.supplier_id, l.user_id, l.created_at, u.username,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_log l
	  LEFT JOIN users u ON u.id = l.user_id
	  WHERE l.item_id = $1`)

	args := []interface{}{itemID}
	argCount := 2

	if filter.ActionType != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND l.action_type = $%d", argCount))
		args = append(args, *filter.ActionType)
		argCount++
	}
	if filter.From != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND l.created_at >= $%d", argCount))
		args = append(args, *filter.From)
		argCount++
	}
	if filter.To != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND l.created_at < $%d", argCount))
		args = append(args, *filter.To)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY l.created_at DESC, l.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing ledger of item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.ItemID, &e.ActionType, &e.Quantity, &e.Notes, &e.BatchNumber, &e.ExpiryDate,
			&e.UnitCost, &e.SupplierID, &e.UserID, &e.CreatedAt, &e.Username,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning ledger entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating ledger entries: %v", ErrDatabaseError, err)
	}
	return entries, totalCount, nil
}

// AllForItem returns every entry of an item in insertion order, for replay.
func (r *ledgerRepository) AllForItem(ctx context.Context, itemID int64) ([]models.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, action_type, quantity, user_id, created_at
		 FROM inventory_log WHERE item_id = $1 ORDER BY id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading ledger of item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ActionType, &e.Quantity, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning ledger entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ledger entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}
