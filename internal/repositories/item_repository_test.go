package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"farm_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAdjustQuantity_Success(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE inventory_items`)).
		WithArgs(decimal.NewFromInt(-30), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_name", "current_quantity", "reorder_level", "maximum_level"}).
			AddRow(int64(7), "Hay", "70", "10", "0"))

	level, err := repo.AdjustQuantity(context.Background(), db, 7, decimal.NewFromInt(-30))
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "Hay", level.ItemName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustQuantity_Insufficient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE inventory_items`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM inventory_items WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))

	_, err := repo.AdjustQuantity(context.Background(), db, 7, decimal.NewFromInt(-100))
	assert.ErrorIs(t, err, ErrInsufficientQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustQuantity_InactiveOrMissing(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
	}{
		{"missing", sqlmock.NewRows([]string{"status"})},
		{"inactive", sqlmock.NewRows([]string{"status"}).AddRow("inactive")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewItemRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta(`UPDATE inventory_items`)).WillReturnError(sql.ErrNoRows)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM inventory_items`)).WillReturnRows(tt.rows)

			_, err := repo.AdjustQuantity(context.Background(), db, 7, decimal.NewFromInt(5))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestItemCreate_DuplicateSKU(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO inventory_items`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "inventory_items_active_sku_key"})

	_, err := repo.Create(context.Background(), db, &models.Item{SKU: "HAY-1"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NotErrorIs(t, err, ErrDatabaseError)
}

func TestItemCreate_MissingCategory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO inventory_items`)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "inventory_items_category_id_fkey"})

	_, err := repo.Create(context.Background(), db, &models.Item{SKU: "HAY-1"})
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestItemList_Filters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	category := int64(3)
	search := " hay "
	days := 30
	now := time.Now()

	cols := []string{"id", "sku", "item_name", "description", "category_id", "supplier_id",
		"current_quantity", "unit_of_measure", "reorder_level", "maximum_level", "unit_cost",
		"expiry_date", "batch_number", "status", "created_at", "updated_at",
		"category_name", "supplier_name", "total_count"}

	mock.ExpectQuery(`i\.category_id = \$1 AND i\.status = \$2 AND \(i\.item_name ILIKE \$3 OR i\.sku ILIKE \$3\) AND i\.current_quantity <= i\.reorder_level AND i\.expiry_date BETWEEN \$4 AND \$5 ORDER BY i\.item_name, i\.id LIMIT \$6 OFFSET \$7`).
		WithArgs(category, models.ItemStatusActive, "%hay%", today, today.AddDate(0, 0, 30), 20, 20).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			int64(1), "HAY-1", "Hay", nil, category, nil,
			"4", "bales", "10", "0", "2.50",
			today.AddDate(0, 0, 10), nil, "active", now, now,
			"Feed", nil, 41))

	items, total, err := repo.List(context.Background(), models.ItemFilter{
		CategoryID:     &category,
		Search:         &search,
		LowStockOnly:   true,
		ExpiringWithin: &days,
		Today:          today,
	}, 2, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 41, total)
	assert.Equal(t, models.UnitBales, items[0].UnitOfMeasure)
	assert.Nil(t, items[0].SupplierID)
	require.NotNil(t, items[0].CategoryName)
	assert.Equal(t, "Feed", *items[0].CategoryName)
	assert.True(t, items[0].UnitCost.Equal(decimal.RequireFromString("2.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemList_DefaultsToActiveItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(`LEFT JOIN suppliers s ON s\.id = i\.supplier_id WHERE i\.status = \$1 ORDER BY i\.item_name, i\.id LIMIT \$2 OFFSET \$3`).
		WithArgs(models.ItemStatusActive, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(), models.ItemFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemList_ExplicitInactiveStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)
	inactive := models.ItemStatusInactive

	mock.ExpectQuery(`WHERE i\.status = \$1 ORDER BY`).
		WithArgs(models.ItemStatusInactive, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := repo.List(context.Background(), models.ItemFilter{Status: &inactive}, 1, 20)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustQuantity_Overflow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE inventory_items`)).
		WillReturnError(&pq.Error{Code: "22003", Message: "numeric field overflow"})

	_, err := repo.AdjustQuantity(context.Background(), db, 7, decimal.RequireFromString("99999999999.999"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemUpdate_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE inventory_items SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), db, &models.Item{ID: 9})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestItemSummary(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepository(db)
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM inventory_items`)).
		WithArgs(today, today.AddDate(0, 0, 30)).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f"}).AddRow(12, 2, 3, 1, 4, "1520.75"))

	s, err := repo.Summary(context.Background(), today, 30)
	require.NoError(t, err)
	assert.Equal(t, 12, s.ActiveItems)
	assert.Equal(t, 2, s.OutOfStock)
	assert.Equal(t, 3, s.LowStock)
	assert.Equal(t, 1, s.Expired)
	assert.Equal(t, 4, s.ExpiringSoon)
	assert.True(t, s.TotalStockValue.Equal(decimal.RequireFromString("1520.75")))
}
