package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
	"farm_backend/pkg/utils"
)

// CreateCategoryRequest DTO
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// CreateSupplierRequest DTO
type CreateSupplierRequest struct {
	Name          string  `json:"name" binding:"required,max=255"`
	ContactPerson *string `json:"contact_person" binding:"omitempty,max=255"`
	Phone         *string `json:"phone" binding:"omitempty,max=50"`
	Email         *string `json:"email" binding:"omitempty,email"`
}

// ReferenceService manages categories and suppliers.
type ReferenceService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error)
	GetCategories(ctx context.Context, page, pageSize int) ([]models.Category, int, error)
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*models.Supplier, error)
	GetSuppliers(ctx context.Context, page, pageSize int) ([]models.Supplier, int, error)
}

type referenceService struct {
	repo repositories.ReferenceRepository
	db   repositories.SQLExecutor
}

// NewReferenceService creates a new instance of ReferenceService.
func NewReferenceService(repo repositories.ReferenceRepository, db repositories.SQLExecutor) ReferenceService {
	return &referenceService{repo: repo, db: db}
}

func (s *referenceService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fieldError("name", "is required", nil)
	}
	category := &models.Category{Name: name, Description: utils.TrimPtr(req.Description)}
	if _, err := s.repo.CreateCategory(ctx, s.db, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrCategoryNameExists, name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *referenceService) GetCategories(ctx context.Context, page, pageSize int) ([]models.Category, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.repo.GetCategories(ctx, page, pageSize)
}

func (s *referenceService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*models.Supplier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fieldError("name", "is required", nil)
	}
	supplier := &models.Supplier{
		Name:          name,
		ContactPerson: utils.TrimPtr(req.ContactPerson),
		Phone:         utils.TrimPtr(req.Phone),
		Email:         utils.TrimPtr(req.Email),
	}
	if _, err := s.repo.CreateSupplier(ctx, s.db, supplier); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrSupplierNameExists, name)
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *referenceService) GetSuppliers(ctx context.Context, page, pageSize int) ([]models.Supplier, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.repo.GetSuppliers(ctx, page, pageSize)
}
