package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm_backend/internal/events"
	"farm_backend/internal/models"
	"farm_backend/pkg/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemFixture struct {
	mock     sqlmock.Sqlmock
	items    *fakeItemRepo
	ledger   *fakeLedgerRepo
	notifier *recordingNotifier
	svc      *itemService
	ledgerSv LedgerService
}

func newItemFixture(t *testing.T) *itemFixture {
	db, mock := newMockDB(t)
	f := &itemFixture{
		mock:     mock,
		items:    newFakeItemRepo(),
		ledger:   &fakeLedgerRepo{},
		notifier: &recordingNotifier{},
	}
	m := metrics.New()
	f.svc = NewItemService(db, f.items, f.ledger, newFakeReferenceRepo(), f.notifier, m).(*itemService)
	f.svc.now = fixedClock(2025, 1, 1)
	f.ledgerSv = NewLedgerService(db, f.items, f.ledger, f.notifier, m)
	return f
}

func validItem() CreateItemRequest {
	return CreateItemRequest{
		ItemFields: ItemFields{
			SKU:           "FEED-001",
			Name:          "Layer pellets",
			CategoryID:    1,
			UnitOfMeasure: "kg",
			ReorderLevel:  dec("10"),
		},
		CurrentQuantity: dec("100"),
	}
}

func (f *itemFixture) expectCreateTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectExec("SAVEPOINT initial_add").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()
}

func TestCreateItem_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateItemRequest)
		field  string
	}{
		{"empty name", func(r *CreateItemRequest) { r.Name = "  " }, "item_name"},
		{"empty sku", func(r *CreateItemRequest) { r.SKU = "" }, "sku"},
		{"missing category", func(r *CreateItemRequest) { r.CategoryID = 0 }, "category_id"},
		{"unknown category", func(r *CreateItemRequest) { r.CategoryID = 99 }, "category_id"},
		{"unknown supplier", func(r *CreateItemRequest) { id := int64(42); r.SupplierID = &id }, "supplier_id"},
		{"missing unit", func(r *CreateItemRequest) { r.UnitOfMeasure = "" }, "unit_of_measure"},
		{"unknown unit", func(r *CreateItemRequest) { r.UnitOfMeasure = "bushel" }, "unit_of_measure"},
		{"negative quantity", func(r *CreateItemRequest) { r.CurrentQuantity = dec("-1") }, "current_quantity"},
		{"negative reorder", func(r *CreateItemRequest) { r.ReorderLevel = dec("-1") }, "reorder_level"},
		{"negative cost", func(r *CreateItemRequest) { r.UnitCost = dec("-0.01") }, "unit_cost"},
		{"maximum below reorder", func(r *CreateItemRequest) { r.MaximumLevel = dec("5") }, "maximum_level"},
		{"bad expiry", func(r *CreateItemRequest) { s := "01/02/2025"; r.ExpiryDate = &s }, "expiry_date"},
		{"quantity with four decimals", func(r *CreateItemRequest) { r.CurrentQuantity = dec("1.0005") }, "current_quantity"},
		{"quantity too large", func(r *CreateItemRequest) { r.CurrentQuantity = dec("100000000000") }, "current_quantity"},
		{"reorder with four decimals", func(r *CreateItemRequest) { r.ReorderLevel = dec("0.0001") }, "reorder_level"},
		{"maximum too large", func(r *CreateItemRequest) { r.MaximumLevel = dec("1e11") }, "maximum_level"},
		{"cost with three decimals", func(r *CreateItemRequest) { r.UnitCost = dec("0.005") }, "unit_cost"},
		{"cost too large", func(r *CreateItemRequest) { r.UnitCost = dec("1000000000000") }, "unit_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newItemFixture(t)
			req := validItem()
			tt.mutate(&req)

			_, err := f.svc.CreateItem(context.Background(), staffCaller, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, f.items.items)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestCreateItem_CollectsAllFieldErrors(t *testing.T) {
	f := newItemFixture(t)
	_, err := f.svc.CreateItem(context.Background(), staffCaller, CreateItemRequest{
		ItemFields: ItemFields{UnitOfMeasure: "bushel", ReorderLevel: dec("-1")},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{"item_name", "sku", "category_id", "unit_of_measure", "reorder_level"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestCreateItem_DuplicateActiveSKU(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	_, err := f.svc.CreateItem(context.Background(), staffCaller, validItem())
	require.NoError(t, err)

	_, err = f.svc.CreateItem(context.Background(), staffCaller, validItem())
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["sku"], "already used")
}

func TestCreateItem_SKUOfInactiveItemCanBeReused(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	first, err := f.svc.CreateItem(context.Background(), adminCaller, validItem())
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDeleteItem(context.Background(), adminCaller, first.ID))

	f.expectCreateTx()
	second, err := f.svc.CreateItem(context.Background(), adminCaller, validItem())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateItem_UncappedMaximumIsValid(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	req := validItem()
	req.MaximumLevel = dec("0")

	details, err := f.svc.CreateItem(context.Background(), staffCaller, req)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusActive, details.Status)
}

func TestCreateItem_ZeroQuantitySkipsOpeningEntry(t *testing.T) {
	f := newItemFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	req := validItem()
	req.CurrentQuantity = dec("0")

	details, err := f.svc.CreateItem(context.Background(), staffCaller, req)
	require.NoError(t, err)
	assert.Equal(t, models.StockOut, details.StockStatus)
	assert.Empty(t, f.ledger.entries)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateItem_OpeningEntryFailureKeepsItem(t *testing.T) {
	f := newItemFixture(t)
	f.ledger.createErr = errors.New("inventory_log is locked")
	f.mock.ExpectBegin()
	f.mock.ExpectExec("SAVEPOINT initial_add").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("ROLLBACK TO SAVEPOINT initial_add").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()

	details, err := f.svc.CreateItem(context.Background(), staffCaller, validItem())
	require.NoError(t, err)
	assert.True(t, details.CurrentQuantity.Equal(dec("100")))
	assert.Empty(t, f.ledger.entries)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestEndToEnd_CreateThenRemove(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()
	f.expectCreateTx()

	item, err := f.svc.CreateItem(ctx, staffCaller, validItem())
	require.NoError(t, err)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, models.ActionInitialAdd, f.ledger.entries[0].ActionType)
	assert.True(t, f.ledger.entries[0].Quantity.Equal(dec("100")))
	assert.Equal(t, staffCaller.UserID, f.ledger.entries[0].UserID)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	receipt, err := f.ledgerSv.Append(ctx, staffCaller, item.ID, AppendRequest{ActionType: models.ActionManualRemove, Quantity: dec("30")})
	require.NoError(t, err)
	assert.True(t, receipt.CurrentQuantity.Equal(dec("70")))
	assert.Equal(t, models.StockGood, receipt.StockStatus)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	receipt, err = f.ledgerSv.Append(ctx, staffCaller, item.ID, AppendRequest{ActionType: models.ActionManualRemove, Quantity: dec("65")})
	require.NoError(t, err)
	assert.True(t, receipt.CurrentQuantity.Equal(dec("5")))
	assert.Equal(t, models.StockLow, receipt.StockStatus)

	details, err := f.svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StockLow, details.StockStatus)
	assert.True(t, ReplayBalance(f.ledger.entries).Equal(details.CurrentQuantity))

	assert.Equal(t, []events.Type{
		events.TypeItemCreated,
		events.TypeStockChanged,
		events.TypeStockChanged,
		events.TypeLowStock,
	}, f.notifier.types())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateItem_LeavesQuantityAlone(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()
	f.expectCreateTx()
	item, err := f.svc.CreateItem(ctx, staffCaller, validItem())
	require.NoError(t, err)

	fields := validItem().ItemFields
	fields.Name = "Layer pellets 16%"
	fields.MaximumLevel = dec("500")
	updated, err := f.svc.UpdateItem(ctx, staffCaller, item.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "Layer pellets 16%", updated.Name)
	assert.True(t, updated.CurrentQuantity.Equal(dec("100")))
}

func TestUpdateItem_KeepsOwnSKU(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	item, err := f.svc.CreateItem(context.Background(), staffCaller, validItem())
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(context.Background(), staffCaller, item.ID, validItem().ItemFields)
	assert.NoError(t, err)
}

func TestUpdateItem_Unknown(t *testing.T) {
	f := newItemFixture(t)
	_, err := f.svc.UpdateItem(context.Background(), staffCaller, 77, validItem().ItemFields)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSoftDeleteItem(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()
	f.expectCreateTx()
	item, err := f.svc.CreateItem(ctx, staffCaller, validItem())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SoftDeleteItem(ctx, staffCaller, item.ID), ErrForbidden)

	supervisor := models.Caller{UserID: 2, Role: models.RoleSupervisor}
	require.NoError(t, f.svc.SoftDeleteItem(ctx, supervisor, item.ID))
	assert.ErrorIs(t, f.svc.SoftDeleteItem(ctx, supervisor, item.ID), ErrItemNotFound)

	details, err := f.svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusInactive, details.Status)
	assert.Len(t, f.ledger.entries, 1)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.ledgerSv.Append(ctx, staffCaller, item.ID, AppendRequest{ActionType: models.ActionManualAdd, Quantity: dec("1")})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItems_Describes(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	req := validItem()
	expiry := "2025-01-20"
	req.ExpiryDate = &expiry
	_, err := f.svc.CreateItem(context.Background(), staffCaller, req)
	require.NoError(t, err)

	list, total, err := f.svc.ListItems(context.Background(), models.ItemFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, models.StockGood, list[0].StockStatus)
	require.NotNil(t, list[0].ExpiryStatus)
	assert.Equal(t, "Expiring soon (19 days remaining)", *list[0].ExpiryStatus)
}

func TestListItems_RejectsUnknownStatus(t *testing.T) {
	f := newItemFixture(t)
	status := models.ItemStatus("archived")
	_, _, err := f.svc.ListItems(context.Background(), models.ItemFilter{Status: &status}, 1, 20)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListItems_DatesFollowUTC(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	req := validItem()
	expiry := "2025-01-02"
	req.ExpiryDate = &expiry
	created, err := f.svc.CreateItem(context.Background(), staffCaller, req)
	require.NoError(t, err)

	// 23:30 on Jan 1 in UTC-5 is already Jan 2 in UTC.
	f.svc.now = func() time.Time {
		return time.Date(2025, 1, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60))
	}

	list, _, err := f.svc.ListItems(context.Background(), models.ItemFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ExpiryStatus)
	assert.Equal(t, "Expiring soon (0 days remaining)", *list[0].ExpiryStatus)

	got, err := f.svc.GetItem(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expiring soon (0 days remaining)", *got.ExpiryStatus)
}

func TestListItems_SkipsDeactivatedItems(t *testing.T) {
	f := newItemFixture(t)
	f.expectCreateTx()
	created, err := f.svc.CreateItem(context.Background(), staffCaller, validItem())
	require.NoError(t, err)
	require.NoError(t, f.items.SetStatus(context.Background(), nil, created.ID, models.ItemStatusInactive))

	list, total, err := f.svc.ListItems(context.Background(), models.ItemFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	inactive := models.ItemStatusInactive
	list, _, err = f.svc.ListItems(context.Background(), models.ItemFilter{Status: &inactive}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
