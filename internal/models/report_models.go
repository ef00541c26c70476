package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Stock status labels.
const (
	StockOut  = "Out of Stock"
	StockLow  = "Low Stock"
	StockGood = "Good"
)

// ItemDetails is an item with its derived, never-persisted status labels.
type ItemDetails struct {
	Item
	StockStatus  string  `json:"stock_status"`
	ExpiryStatus *string `json:"expiry_status,omitempty"`
}

// InventorySummary backs the dashboard report.
type InventorySummary struct {
	ActiveItems        int             `json:"active_items"`
	OutOfStock         int             `json:"out_of_stock"`
	LowStock           int             `json:"low_stock"`
	Expired            int             `json:"expired"`
	ExpiringSoon       int             `json:"expiring_soon"`
	QuarantinedBatches int             `json:"quarantined_batches"`
	PendingBatches     int             `json:"pending_batches"`
	TotalStockValue    decimal.Decimal `json:"total_stock_value"`
}

// ReconcileReport compares the cached quantity with a ledger replay.
type ReconcileReport struct {
	ItemID          int64           `json:"item_id"`
	CachedQuantity  decimal.Decimal `json:"cached_quantity"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	Drift           decimal.Decimal `json:"drift"`
	Entries         int             `json:"entries"`
	InSync          bool            `json:"in_sync"`
	// NegativeEntryID is the first entry after which the running balance was below zero.
	NegativeEntryID *int64 `json:"negative_entry_id,omitempty"`
}

// ActivityLogEntry is one row of the secondary audit trail.
type ActivityLogEntry struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"user_id,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
