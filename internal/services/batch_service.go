package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"farm_backend/internal/events"
	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// GradeFor maps a moisture percentage to a grade. Every input gets a grade;
// anything not at or below 20, NaN included, fails.
func GradeFor(moisture float64) models.Grade {
	switch {
	case moisture <= 12:
		return models.GradeA
	case moisture <= 15:
		return models.GradeB
	case moisture <= 18:
		return models.GradeC
	case moisture <= 20:
		return models.GradeD
	default:
		return models.GradeFail
	}
}

// statusForGrade is the batch status a fresh check leaves behind.
func statusForGrade(g models.Grade) models.BatchStatus {
	if g == models.GradeFail {
		return models.BatchStatusQuarantine
	}
	return models.BatchStatusActive
}

// CreateBatchRequest receives a lot of an item.
type CreateBatchRequest struct {
	BatchNumber  string  `json:"batch_number" binding:"required,max=100"`
	ReceivedDate *string `json:"received_date"` // YYYY-MM-DD, defaults to today
}

// QualityCheckRequest is a moisture reading for a batch.
type QualityCheckRequest struct {
	MoistureLevel   *float64 `json:"moisture_level" binding:"required"`
	AdditionalNotes *string  `json:"additional_notes" binding:"omitempty,max=2000"`
}

// QualityCheckResult is the stored check and the batch status it produced.
type QualityCheckResult struct {
	Check       models.QualityCheck `json:"check"`
	BatchStatus models.BatchStatus  `json:"batch_status"`
}

// BatchService tracks received lots and their quality.
type BatchService interface {
	CreateBatch(ctx context.Context, caller models.Caller, itemID int64, req CreateBatchRequest) (*models.Batch, error)
	GetBatch(ctx context.Context, batchID int64) (*models.Batch, error)
	ListBatches(ctx context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error)
	RecordQualityCheck(ctx context.Context, caller models.Caller, batchID int64, req QualityCheckRequest) (*QualityCheckResult, error)
	QualityHistory(ctx context.Context, batchID int64) ([]models.QualityCheck, error)
}

type batchService struct {
	db        *sql.DB
	batchRepo repositories.BatchRepository
	itemRepo  repositories.ItemRepository
	notifier  events.Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewBatchService creates a new instance of BatchService.
func NewBatchService(
	db *sql.DB,
	batchRepo repositories.BatchRepository,
	itemRepo repositories.ItemRepository,
	notifier events.Notifier,
	m *metrics.Metrics,
) BatchService {
	return &batchService{
		db:        db,
		batchRepo: batchRepo,
		itemRepo:  itemRepo,
		notifier:  notifier,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *batchService) activeItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item.Status != models.ItemStatusActive {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// CreateBatch registers a pending lot awaiting its first quality check.
func (s *batchService) CreateBatch(ctx context.Context, caller models.Caller, itemID int64, req CreateBatchRequest) (*models.Batch, error) {
	v := NewValidationError()
	number := strings.TrimSpace(req.BatchNumber)
	if number == "" {
		v.Add("batch_number", "is required")
	}
	received := utcToday(s.now())
	if req.ReceivedDate != nil && strings.TrimSpace(*req.ReceivedDate) != "" {
		d, err := utils.ParseDate(strings.TrimSpace(*req.ReceivedDate))
		if err != nil {
			v.Add("received_date", "must be a date in YYYY-MM-DD format")
		} else {
			received = d
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.activeItem(ctx, itemID); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		ItemID:       itemID,
		BatchNumber:  number,
		ReceivedDate: received,
		Status:       models.BatchStatusPending,
	}
	if _, err := s.batchRepo.Create(ctx, s.db, batch); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, fmt.Errorf("%w: '%s'", ErrBatchNumberExists, number)
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	s.notifier.Notify(events.New(events.TypeBatchReceived, events.EntityBatch, batch.ID, caller, map[string]interface{}{
		"item_id":       itemID,
		"batch_number":  number,
		"received_date": received.Format("2006-01-02"),
	}))
	return batch, nil
}

func (s *batchService) GetBatch(ctx context.Context, batchID int64) (*models.Batch, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get batch %d: %w", batchID, err)
	}
	return batch, nil
}

func (s *batchService) ListBatches(ctx context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error) {
	if status != nil && !status.IsValid() {
		return nil, fieldError("status", fmt.Sprintf("unknown batch status '%s'", *status), nil)
	}
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	batches, err := s.batchRepo.ListByItem(ctx, itemID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches of item %d: %w", itemID, err)
	}
	return batches, nil
}

// RecordQualityCheck grades the reading and moves the batch to quarantine on
// FAIL, or to active otherwise. Check and status change commit together.
func (s *batchService) RecordQualityCheck(ctx context.Context, caller models.Caller, batchID int64, req QualityCheckRequest) (*QualityCheckResult, error) {
	if req.MoistureLevel == nil {
		return nil, fieldError("moisture_level", "is required", nil)
	}
	moisture := *req.MoistureLevel
	if math.IsNaN(moisture) || moisture < 0 || moisture > 100 {
		return nil, fieldError("moisture_level", "must be between 0 and 100", nil)
	}
	// Graded on the value the column keeps, NUMERIC(5,2).
	moisture, _ = decimal.NewFromFloat(moisture).Round(moisturePlaces).Float64()

	grade := GradeFor(moisture)
	status := statusForGrade(grade)
	check := &models.QualityCheck{
		BatchID:         batchID,
		PerformedBy:     caller.UserID,
		MoistureLevel:   moisture,
		QualityGrade:    grade,
		AdditionalNotes: utils.TrimPtr(req.AdditionalNotes),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start database transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// The status update locks the batch row, so concurrent checks on one
	// batch are stamped and committed in the same order.
	if err := s.batchRepo.UpdateStatus(ctx, tx, batchID, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to update batch %d: %w", batchID, err)
	}
	if _, err := s.batchRepo.CreateQualityCheck(ctx, tx, check); err != nil {
		return nil, fmt.Errorf("failed to record quality check for batch %d: %w", batchID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit quality check: %v", repositories.ErrDatabaseError, err)
	}

	s.metrics.QualityCheck(string(grade))
	s.notifier.Notify(events.New(events.TypeQualityChecked, events.EntityBatch, batchID, caller, map[string]interface{}{
		"check_id":       check.ID,
		"moisture_level": moisture,
		"quality_grade":  grade,
		"batch_status":   status,
	}))
	return &QualityCheckResult{Check: *check, BatchStatus: status}, nil
}

func (s *batchService) QualityHistory(ctx context.Context, batchID int64) ([]models.QualityCheck, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	checks, err := s.batchRepo.ListQualityChecks(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality checks of batch %d: %w", batchID, err)
	}
	return checks, nil
}
