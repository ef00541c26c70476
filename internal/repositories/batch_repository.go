package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"farm_backend/internal/models"
)

// BatchRepository defines the database operations on inventory_batches and
// batch_quality_checks.
type BatchRepository interface {
	Create(ctx context.Context, executor SQLExecutor, batch *models.Batch) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Batch, error)
	ListByItem(ctx context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error)
	UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, status models.BatchStatus) error
	CountByStatus(ctx context.Context) (map[models.BatchStatus]int, error)

	CreateQualityCheck(ctx context.Context, executor SQLExecutor, check *models.QualityCheck) (int64, error)
	ListQualityChecks(ctx context.Context, batchID int64) ([]models.QualityCheck, error)
}

type batchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new instance of BatchRepository.
func NewBatchRepository(db *sql.DB) BatchRepository {
	return &batchRepository{db: db}
}

// The latest check is derived, never stored on the batch row.
const batchSelect = `SELECT b.id, b.item_id, b.batch_number, b.received_date, b.status,
	    q.id, q.check_date, q.performed_by, q.moisture_level, q.quality_grade, q.additional_notes
	  FROM inventory_batches b
	  LEFT JOIN LATERAL (
	    SELECT id, check_date, performed_by, moisture_level, quality_grade, additional_notes
	    FROM batch_quality_checks
	    WHERE batch_id = b.id
	    ORDER BY check_date DESC, id DESC
	    LIMIT 1
	  ) q ON TRUE`

func scanBatch(row scanner) (*models.Batch, error) {
	batch := &models.Batch{}
	var (
		checkID     sql.NullInt64
		checkDate   sql.NullTime
		performedBy sql.NullInt64
		moisture    sql.NullFloat64
		grade       sql.NullString
		notes       *string
	)
	if err := row.Scan(
		&batch.ID, &batch.ItemID, &batch.BatchNumber, &batch.ReceivedDate, &batch.Status,
		&checkID, &checkDate, &performedBy, &moisture, &grade, &notes,
	); err != nil {
		return nil, err
	}
	if checkID.Valid {
		batch.LatestCheck = &models.QualityCheck{
			ID:              checkID.Int64,
			BatchID:         batch.ID,
			CheckDate:       checkDate.Time,
			PerformedBy:     performedBy.Int64,
			MoistureLevel:   moisture.Float64,
			QualityGrade:    models.Grade(grade.String),
			AdditionalNotes: notes,
		}
	}
	return batch, nil
}

func (r *batchRepository) Create(ctx context.Context, executor SQLExecutor, batch *models.Batch) (int64, error) {
	query := `INSERT INTO inventory_batches (item_id, batch_number, received_date, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query, batch.ItemID, batch.BatchNumber, batch.ReceivedDate, batch.Status).Scan(&batch.ID)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating batch '%s' for item ID %d", batch.BatchNumber, batch.ItemID))
	}
	return batch.ID, nil
}

func (r *batchRepository) GetByID(ctx context.Context, id int64) (*models.Batch, error) {
	batch, err := scanBatch(r.db.QueryRowContext(ctx, batchSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting batch by ID %d: %v", ErrDatabaseError, id, err)
	}
	return batch, nil
}

func (r *batchRepository) ListByItem(ctx context.Context, itemID int64, status *models.BatchStatus) ([]models.Batch, error) {
	query := batchSelect + ` WHERE b.item_id = $1`
	args := []interface{}{itemID}
	if status != nil {
		query += ` AND b.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY b.received_date DESC, b.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing batches of item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	batches := []models.Batch{}
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning batch: %v", ErrDatabaseError, err)
		}
		batches = append(batches, *batch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batches: %v", ErrDatabaseError, err)
	}
	return batches, nil
}

func (r *batchRepository) UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, status models.BatchStatus) error {
	result, err := executor.ExecContext(ctx, `UPDATE inventory_batches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%w: updating status of batch ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *batchRepository) CountByStatus(ctx context.Context) (map[models.BatchStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM inventory_batches GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: counting batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := make(map[models.BatchStatus]int)
	for rows.Next() {
		var status models.BatchStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning batch count: %v", ErrDatabaseError, err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batch counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

func (r *batchRepository) CreateQualityCheck(ctx context.Context, executor SQLExecutor, check *models.QualityCheck) (int64, error) {
	// check_date is stamped by the server so it follows the batch row lock
	// taken earlier in the transaction.
	query := `INSERT INTO batch_quality_checks
	          (batch_id, check_date, performed_by, moisture_level, quality_grade, additional_notes)
	          VALUES ($1, clock_timestamp(), $2, $3, $4, $5)
	          RETURNING id, check_date`
	err := executor.QueryRowContext(ctx, query,
		check.BatchID, check.PerformedBy, check.MoistureLevel, check.QualityGrade, check.AdditionalNotes,
	).Scan(&check.ID, &check.CheckDate)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating quality check for batch ID %d", check.BatchID))
	}
	return check.ID, nil
}

func (r *batchRepository) ListQualityChecks(ctx context.Context, batchID int64) ([]models.QualityCheck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, check_date, performed_by, moisture_level, quality_grade, additional_notes
		 FROM batch_quality_checks WHERE batch_id = $1 ORDER BY check_date DESC, id DESC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing quality checks of batch ID %d: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	checks := []models.QualityCheck{}
	for rows.Next() {
		var q models.QualityCheck
		if err := rows.Scan(&q.ID, &q.BatchID, &q.CheckDate, &q.PerformedBy, &q.MoistureLevel, &q.QualityGrade, &q.AdditionalNotes); err != nil {
			return nil, fmt.Errorf("%w: scanning quality check: %v", ErrDatabaseError, err)
		}
		checks = append(checks, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating quality checks: %v", ErrDatabaseError, err)
	}
	return checks, nil
}
