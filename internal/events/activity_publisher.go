package events

import (
	"context"
	"encoding/json"
	"fmt"

	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
)

// ActivityLogPublisher mirrors events into the activity_log table.
type ActivityLogPublisher struct {
	repo repositories.ActivityRepository
}

// NewActivityLogPublisher creates a publisher backed by repo.
func NewActivityLogPublisher(repo repositories.ActivityRepository) *ActivityLogPublisher {
	return &ActivityLogPublisher{repo: repo}
}

func (p *ActivityLogPublisher) Name() string { return "activity_log" }

func (p *ActivityLogPublisher) Publish(ctx context.Context, e Event) error {
	details := map[string]interface{}{"event_id": e.ID}
	for k, v := range e.Payload {
		details[k] = v
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encoding activity details: %w", err)
	}

	entry := &models.ActivityLogEntry{
		Action:     string(e.Type),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    raw,
		CreatedAt:  e.OccurredAt,
	}
	if e.UserID > 0 {
		uid := e.UserID
		entry.UserID = &uid
	}
	_, err = p.repo.Create(ctx, entry)
	return err
}
