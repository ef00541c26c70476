// Package events carries best-effort notifications about committed inventory
// changes to secondary channels: the activity log, Kafka and Redis.
package events

import (
	"context"
	"time"

	"farm_backend/internal/models"

	"github.com/google/uuid"
)

// Type names what happened.
type Type string

const (
	TypeItemCreated     Type = "item_created"
	TypeItemUpdated     Type = "item_updated"
	TypeItemDeactivated Type = "item_deactivated"
	TypeStockChanged    Type = "stock_changed"
	TypeLowStock        Type = "low_stock"
	TypeOverstock       Type = "overstock"
	TypeBatchReceived   Type = "batch_received"
	TypeQualityChecked  Type = "quality_checked"
)

// IsAlert reports whether the event needs operator attention.
func (t Type) IsAlert() bool {
	return t == TypeLowStock || t == TypeOverstock
}

// Entity types carried in events.
const (
	EntityItem  = "inventory_item"
	EntityBatch = "inventory_batch"
)

// Event is a committed change, serialised as JSON on every channel.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	EntityType string                 `json:"entity_type"`
	EntityID   int64                  `json:"entity_id"`
	UserID     int64                  `json:"user_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, entityType string, entityID int64, caller models.Caller, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     caller.UserID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier accepts events without blocking the caller on delivery.
type Notifier interface {
	Notify(e Event)
}

// Publisher delivers one event to one channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
