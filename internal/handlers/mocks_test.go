package handlers

import (
	"context"

	"farm_backend/internal/models"
	"farm_backend/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockItemService struct{ mock.Mock }

func (m *mockItemService) CreateItem(ctx context.Context, caller models.Caller, req services.CreateItemRequest) (*models.ItemDetails, error) {
	args := m.Called(ctx, caller, req)
	item, _ := args.Get(0).(*models.ItemDetails)
	return item, args.Error(1)
}

func (m *mockItemService) UpdateItem(ctx context.Context, caller models.Caller, itemID int64, req services.ItemFields) (*models.ItemDetails, error) {
	args := m.Called(ctx, caller, itemID, req)
	item, _ := args.Get(0).(*models.ItemDetails)
	return item, args.Error(1)
}

func (m *mockItemService) SoftDeleteItem(ctx context.Context, caller models.Caller, itemID int64) error {
	return m.Called(ctx, caller, itemID).Error(0)
}

func (m *mockItemService) GetItem(ctx context.Context, itemID int64) (*models.ItemDetails, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(*models.ItemDetails)
	return item, args.Error(1)
}

func (m *mockItemService) ListItems(ctx context.Context, filter models.ItemFilter, page, pageSize int) ([]models.ItemDetails, int, error) {
	args := m.Called(ctx, filter, page, pageSize)
	items, _ := args.Get(0).([]models.ItemDetails)
	return items, args.Int(1), args.Error(2)
}

type mockLedgerService struct{ mock.Mock }

func (m *mockLedgerService) Append(ctx context.Context, caller models.Caller, itemID int64, req services.AppendRequest) (*services.LedgerReceipt, error) {
	args := m.Called(ctx, caller, itemID, req)
	r, _ := args.Get(0).(*services.LedgerReceipt)
	return r, args.Error(1)
}

func (m *mockLedgerService) History(ctx context.Context, itemID int64, filter models.LedgerFilter, page, pageSize int) ([]models.LedgerEntry, int, error) {
	args := m.Called(ctx, itemID, filter, page, pageSize)
	entries, _ := args.Get(0).([]models.LedgerEntry)
	return entries, args.Int(1), args.Error(2)
}

func (m *mockLedgerService) Reconcile(ctx context.Context, caller models.Caller, itemID int64) (*models.ReconcileReport, error) {
	args := m.Called(ctx, caller, itemID)
	r, _ := args.Get(0).(*models.ReconcileReport)
	return r, args.Error(1)
}

type mockBatchService struct{ mock.Mock }

func (m *mockBatchService) CreateBatch(ctx context.Context, caller models.Caller, itemID int64, req services.CreateBatchRequest) (*models.Batch, error) {
	args := m.Called(ctx, caller, itemID, req)
	b, _ := args.Get(0).(*models.Batch)
	return b, args.Error(1)
}

func (m *mockBatchService) GetBatch(ctx context.Context, batchID int64) (*models.Batch, error) {
	args := m.Called(ctx, batchID)
	b, _ := args.Get(0).(*models.Batch)
	return b, args.Error(1)
}

func (m *mockBatchService) ListBatches(ctx context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error) {
	args := m.Called(ctx, itemID, status)
	b, _ := args.Get(0).([]models.Batch)
	return b, args.Error(1)
}

func (m *mockBatchService) RecordQualityCheck(ctx context.Context, caller models.Caller, batchID int64, req services.QualityCheckRequest) (*services.QualityCheckResult, error) {
	args := m.Called(ctx, caller, batchID, req)
	r, _ := args.Get(0).(*services.QualityCheckResult)
	return r, args.Error(1)
}

func (m *mockBatchService) QualityHistory(ctx context.Context, batchID int64) ([]models.QualityCheck, error) {
	args := m.Called(ctx, batchID)
	c, _ := args.Get(0).([]models.QualityCheck)
	return c, args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) RegisterUser(ctx context.Context, req services.RegisterUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthService) LoginUser(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*services.AuthResponse)
	return r, args.Error(1)
}

func (m *mockAuthService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

type mockReferenceService struct{ mock.Mock }

func (m *mockReferenceService) CreateCategory(ctx context.Context, req services.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockReferenceService) GetCategories(ctx context.Context, page, pageSize int) ([]models.Category, int, error) {
	args := m.Called(ctx, page, pageSize)
	c, _ := args.Get(0).([]models.Category)
	return c, args.Int(1), args.Error(2)
}

func (m *mockReferenceService) CreateSupplier(ctx context.Context, req services.CreateSupplierRequest) (*models.Supplier, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*models.Supplier)
	return s, args.Error(1)
}

func (m *mockReferenceService) GetSuppliers(ctx context.Context, page, pageSize int) ([]models.Supplier, int, error) {
	args := m.Called(ctx, page, pageSize)
	s, _ := args.Get(0).([]models.Supplier)
	return s, args.Int(1), args.Error(2)
}

type mockReportService struct{ mock.Mock }

func (m *mockReportService) InventorySummary(ctx context.Context) (*models.InventorySummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.InventorySummary)
	return s, args.Error(1)
}
