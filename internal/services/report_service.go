package services

import (
	"context"
	"fmt"
	"time"

	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
)

// ReportService builds the dashboard figures.
type ReportService interface {
	InventorySummary(ctx context.Context) (*models.InventorySummary, error)
}

type reportService struct {
	itemRepo  repositories.ItemRepository
	batchRepo repositories.BatchRepository
	now       func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(itemRepo repositories.ItemRepository, batchRepo repositories.BatchRepository) ReportService {
	return &reportService{itemRepo: itemRepo, batchRepo: batchRepo, now: time.Now}
}

func (s *reportService) InventorySummary(ctx context.Context) (*models.InventorySummary, error) {
	today := utcToday(s.now())

	summary, err := s.itemRepo.Summary(ctx, today, ExpiringSoonDays)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize items: %w", err)
	}
	counts, err := s.batchRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count batches: %w", err)
	}
	summary.QuarantinedBatches = counts[models.BatchStatusQuarantine]
	summary.PendingBatches = counts[models.BatchStatusPending]
	return summary, nil
}
