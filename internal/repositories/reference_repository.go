package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"farm_backend/internal/models"
)

// ReferenceRepository covers categories and suppliers, the lookup tables
// items point at.
type ReferenceRepository interface {
	CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetCategories(ctx context.Context, page, pageSize int) ([]models.Category, int, error)

	CreateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) (int64, error)
	GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error)
	GetSuppliers(ctx context.Context, page, pageSize int) ([]models.Supplier, int, error)
}

type referenceRepository struct {
	db *sql.DB
}

// NewReferenceRepository creates a new instance of ReferenceRepository.
func NewReferenceRepository(db *sql.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

// --- Category Methods ---

func (r *referenceRepository) CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (name, description, created_at)
	          VALUES ($1, $2, NOW())
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query, category.Name, category.Description).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating category '%s'", category.Name))
	}
	return category.ID, nil
}

func (r *referenceRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, name, description, created_at FROM categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

func (r *referenceRepository) GetCategories(ctx context.Context, page, pageSize int) ([]models.Category, int, error) {
	categories := []models.Category{}
	totalCount := 0
	query := `SELECT id, name, description, created_at, COUNT(*) OVER() AS total_count
	          FROM categories
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, totalCount, nil
}

// --- Supplier Methods ---

func (r *referenceRepository) CreateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) (int64, error) {
	query := `INSERT INTO suppliers (name, contact_person, phone, email, created_at)
	          VALUES ($1, $2, $3, $4, NOW())
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query, supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email).
		Scan(&supplier.ID, &supplier.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating supplier '%s'", supplier.Name))
	}
	return supplier.ID, nil
}

func (r *referenceRepository) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	query := `SELECT id, name, contact_person, phone, email, created_at FROM suppliers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&supplier.ID, &supplier.Name, &supplier.ContactPerson, &supplier.Phone, &supplier.Email, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by ID %d: %v", ErrDatabaseError, id, err)
	}
	return supplier, nil
}

func (r *referenceRepository) GetSuppliers(ctx context.Context, page, pageSize int) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0
	query := `SELECT id, name, contact_person, phone, email, created_at, COUNT(*) OVER() AS total_count
	          FROM suppliers
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating suppliers: %v", ErrDatabaseError, err)
	}
	return suppliers, totalCount, nil
}
