package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ItemRepository defines the database operations on inventory_items.
type ItemRepository interface {
	Create(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter, page, pageSize int) ([]models.Item, int, error)
	Update(ctx context.Context, executor SQLExecutor, item *models.Item) error
	SKUInUse(ctx context.Context, sku string, excludeID int64) (bool, error)
	AdjustQuantity(ctx context.Context, executor SQLExecutor, itemID int64, delta decimal.Decimal) (*models.StockLevel, error)
	SetStatus(ctx context.Context, executor SQLExecutor, itemID int64, status models.ItemStatus) error
	Summary(ctx context.Context, today time.Time, soonDays int) (*models.InventorySummary, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `i.id, i.sku, i.item_name, i.description, i.category_id, i.supplier_id,
	i.current_quantity, i.unit_of_measure, i.reorder_level, i.maximum_level, i.unit_cost,
	i.expiry_date, i.batch_number, i.status, i.created_at, i.updated_at,
	c.name AS category_name, s.name AS supplier_name`

const itemJoins = ` FROM inventory_items i
	LEFT JOIN categories c ON c.id = i.category_id
	LEFT JOIN suppliers s ON s.id = i.supplier_id`

func scanItem(row scanner, item *models.Item, extra ...interface{}) error {
	dest := []interface{}{
		&item.ID, &item.SKU, &item.Name, &item.Description, &item.CategoryID, &item.SupplierID,
		&item.CurrentQuantity, &item.UnitOfMeasure, &item.ReorderLevel, &item.MaximumLevel, &item.UnitCost,
		&item.ExpiryDate, &item.BatchNumber, &item.Status, &item.CreatedAt, &item.UpdatedAt,
		&item.CategoryName, &item.SupplierName,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *itemRepository) Create(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error) {
	query := `INSERT INTO inventory_items
	          (sku, item_name, description, category_id, supplier_id, current_quantity, unit_of_measure,
	           reorder_level, maximum_level, unit_cost, expiry_date, batch_number, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		item.SKU, item.Name, item.Description, item.CategoryID, item.SupplierID, item.CurrentQuantity,
		item.UnitOfMeasure, item.ReorderLevel, item.MaximumLevel, item.UnitCost, item.ExpiryDate,
		item.BatchNumber, item.Status,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating item with sku '%s'", item.SKU))
	}
	return item.ID, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	item := &models.Item{}
	query := `SELECT ` + itemColumns + itemJoins + ` WHERE i.id = $1`
	if err := scanItem(r.db.QueryRowContext(ctx, query, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filter models.ItemFilter, page, pageSize int) ([]models.Item, int, error) {
	items := []models.Item{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count` + itemJoins)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", argCount))
		args = append(args, *filter.CategoryID)
		argCount++
	}
	if filter.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("i.supplier_id = $%d", argCount))
		args = append(args, *filter.SupplierID)
		argCount++
	}
	status := models.ItemStatusActive
	if filter.Status != nil {
		status = *filter.Status
	}
	conditions = append(conditions, fmt.Sprintf("i.status = $%d", argCount))
	args = append(args, status)
	argCount++
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(i.item_name ILIKE $%d OR i.sku ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		argCount++
	}
	if filter.LowStockOnly {
		conditions = append(conditions, "i.current_quantity <= i.reorder_level")
	}
	if filter.ExpiringWithin != nil {
		from := filter.Today
		to := from.AddDate(0, 0, *filter.ExpiringWithin)
		conditions = append(conditions, fmt.Sprintf("i.expiry_date BETWEEN $%d AND $%d", argCount, argCount+1))
		args = append(args, from, to)
		argCount += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY i.item_name, i.id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := scanItem(rows, &item, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

// Update writes master data only. current_quantity and status are never touched here.
func (r *itemRepository) Update(ctx context.Context, executor SQLExecutor, item *models.Item) error {
	query := `UPDATE inventory_items SET
	          sku = $1, item_name = $2, description = $3, category_id = $4, supplier_id = $5,
	          unit_of_measure = $6, reorder_level = $7, maximum_level = $8, unit_cost = $9,
	          expiry_date = $10, batch_number = $11, updated_at = NOW()
	          WHERE id = $12 AND status = 'active'`
	result, err := executor.ExecContext(ctx, query,
		item.SKU, item.Name, item.Description, item.CategoryID, item.SupplierID,
		item.UnitOfMeasure, item.ReorderLevel, item.MaximumLevel, item.UnitCost,
		item.ExpiryDate, item.BatchNumber, item.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating item ID %d", item.ID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) SKUInUse(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE sku = $1 AND status = 'active' AND id <> $2)`
	if err := r.db.QueryRowContext(ctx, query, sku, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking sku '%s': %v", ErrDatabaseError, sku, err)
	}
	return exists, nil
}

// AdjustQuantity applies delta to current_quantity in a single conditional
// statement. The row is only changed when the item is active and the result
// stays non-negative, so concurrent removals cannot overdraw stock.
func (r *itemRepository) AdjustQuantity(ctx context.Context, executor SQLExecutor, itemID int64, delta decimal.Decimal) (*models.StockLevel, error) {
	query := `UPDATE inventory_items
	          SET current_quantity = current_quantity + $1, updated_at = NOW()
	          WHERE id = $2 AND status = 'active' AND current_quantity + $1 >= 0
	          RETURNING id, item_name, current_quantity, reorder_level, maximum_level`
	level := &models.StockLevel{}
	err := executor.QueryRowContext(ctx, query, delta, itemID).Scan(
		&level.ItemID, &level.ItemName, &level.CurrentQuantity, &level.ReorderLevel, &level.MaximumLevel,
	)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapWriteError(err, fmt.Sprintf("adjusting quantity of item ID %d", itemID))
	}

	var status models.ItemStatus
	err = executor.QueryRowContext(ctx, `SELECT status FROM inventory_items WHERE id = $1`, itemID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading status of item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	if status != models.ItemStatusActive {
		return nil, ErrNotFound
	}
	return nil, ErrInsufficientQuantity
}

func (r *itemRepository) SetStatus(ctx context.Context, executor SQLExecutor, itemID int64, status models.ItemStatus) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE inventory_items SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`, status, itemID)
	if err != nil {
		return fmt.Errorf("%w: setting status of item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) Summary(ctx context.Context, today time.Time, soonDays int) (*models.InventorySummary, error) {
	query := `SELECT
	    COUNT(*),
	    COUNT(*) FILTER (WHERE current_quantity = 0),
	    COUNT(*) FILTER (WHERE current_quantity > 0 AND current_quantity <= reorder_level),
	    COUNT(*) FILTER (WHERE expiry_date < $1),
	    COUNT(*) FILTER (WHERE expiry_date >= $1 AND expiry_date <= $2),
	    COALESCE(SUM(current_quantity * unit_cost), 0)
	  FROM inventory_items
	  WHERE status = 'active'`
	summary := &models.InventorySummary{}
	err := r.db.QueryRowContext(ctx, query, today, today.AddDate(0, 0, soonDays)).Scan(
		&summary.ActiveItems, &summary.OutOfStock, &summary.LowStock,
		&summary.Expired, &summary.ExpiringSoon, &summary.TotalStockValue,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: computing inventory summary: %v", ErrDatabaseError, err)
	}
	return summary, nil
}
