package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"farm_backend/internal/models"
)

// ActivityRepository writes the secondary audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLogEntry) (int64, error)
}

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityLogEntry) (int64, error) {
	query := `INSERT INTO activity_log (user_id, action, entity_type, entity_id, details, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	var details interface{}
	if len(entry.Details) > 0 {
		details = string(entry.Details)
	}
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, details, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("writing activity '%s' for %s %d", entry.Action, entry.EntityType, entry.EntityID))
	}
	return entry.ID, nil
}
