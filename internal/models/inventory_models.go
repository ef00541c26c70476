package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitOfMeasure is the fixed set of stocking units.
type UnitOfMeasure string

const (
	UnitKilogram   UnitOfMeasure = "kg"
	UnitGram       UnitOfMeasure = "g"
	UnitLiter      UnitOfMeasure = "l"
	UnitMilliliter UnitOfMeasure = "ml"
	UnitPieces     UnitOfMeasure = "pcs"
	UnitBags       UnitOfMeasure = "bags"
	UnitBoxes      UnitOfMeasure = "boxes"
	UnitBales      UnitOfMeasure = "bales"
	UnitTons       UnitOfMeasure = "tons"
)

// IsValid reports whether u is one of the supported units.
func (u UnitOfMeasure) IsValid() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitPieces,
		UnitBags, UnitBoxes, UnitBales, UnitTons:
		return true
	}
	return false
}

// ItemStatus is active for live items; inactive marks a soft delete.
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusInactive ItemStatus = "inactive"
)

// Item is the master record of a stocked item.
// CurrentQuantity is only ever changed through the ledger.
type Item struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"item_name"`
	Description     *string         `json:"description,omitempty"`
	CategoryID      int64           `json:"category_id"`
	SupplierID      *int64          `json:"supplier_id,omitempty"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	UnitOfMeasure   UnitOfMeasure   `json:"unit_of_measure"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	MaximumLevel    decimal.Decimal `json:"maximum_level"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	BatchNumber     *string         `json:"batch_number,omitempty"`
	Status          ItemStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	CategoryName *string `json:"category_name,omitempty"`
	SupplierName *string `json:"supplier_name,omitempty"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	CategoryID     *int64
	SupplierID     *int64
	Search         *string
	Status         *ItemStatus // nil lists active items only
	LowStockOnly   bool
	ExpiringWithin *int // days from Today
	Today          time.Time
}

// StockLevel is the row state returned by an atomic quantity adjustment.
type StockLevel struct {
	ItemID          int64
	ItemName        string
	CurrentQuantity decimal.Decimal
	ReorderLevel    decimal.Decimal
	MaximumLevel    decimal.Decimal
}

// ActionType classifies a ledger entry. The quantity sign is implied by it.
type ActionType string

const (
	ActionInitialAdd   ActionType = "initial_add"
	ActionManualAdd    ActionType = "manual_add"
	ActionManualRemove ActionType = "manual_remove"
	ActionSale         ActionType = "sale"
	ActionPurchase     ActionType = "purchase"
	ActionWaste        ActionType = "waste"
	ActionReturn       ActionType = "return"
)

// IsValid reports whether a is a known action type.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionInitialAdd, ActionManualAdd, ActionManualRemove, ActionSale,
		ActionPurchase, ActionWaste, ActionReturn:
		return true
	}
	return false
}

// IsRemoval reports whether entries of this type decrease stock.
// "return" is a return to the supplier, so it leaves the farm's stock.
func (a ActionType) IsRemoval() bool {
	switch a {
	case ActionManualRemove, ActionSale, ActionWaste, ActionReturn:
		return true
	}
	return false
}

// SignedQuantity applies the action's direction to a positive quantity.
func (a ActionType) SignedQuantity(q decimal.Decimal) decimal.Decimal {
	if a.IsRemoval() {
		return q.Neg()
	}
	return q
}

// LedgerEntry is an immutable stock movement in inventory_log.
type LedgerEntry struct {
	ID          int64            `json:"id"`
	ItemID      int64            `json:"item_id"`
	ActionType  ActionType       `json:"action_type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Notes       *string          `json:"notes,omitempty"`
	BatchNumber *string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	SupplierID  *int64           `json:"supplier_id,omitempty"`
	UserID      int64            `json:"user_id"`
	CreatedAt   time.Time        `json:"created_at"`

	Username *string `json:"username,omitempty"`
}

// LedgerFilter narrows an item's movement history.
type LedgerFilter struct {
	ActionType *ActionType
	From       *time.Time
	To         *time.Time
}

// BatchStatus tracks a received lot through quality grading.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusActive     BatchStatus = "active"
	BatchStatusQuarantine BatchStatus = "quarantine"
)

// IsValid reports whether s is a known batch status.
func (s BatchStatus) IsValid() bool {
	return s == BatchStatusPending || s == BatchStatusActive || s == BatchStatusQuarantine
}

// Batch is a received lot of an item.
type Batch struct {
	ID           int64         `json:"id"`
	ItemID       int64         `json:"item_id"`
	BatchNumber  string        `json:"batch_number"`
	ReceivedDate time.Time     `json:"received_date"`
	Status       BatchStatus   `json:"status"`
	LatestCheck  *QualityCheck `json:"latest_check,omitempty"`
}

// Grade is the discrete quality label derived from moisture.
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeD    Grade = "D"
	GradeFail Grade = "FAIL"
)

// QualityCheck is an immutable moisture reading for a batch.
type QualityCheck struct {
	ID              int64     `json:"id"`
	BatchID         int64     `json:"batch_id"`
	CheckDate       time.Time `json:"check_date"`
	PerformedBy     int64     `json:"performed_by"`
	MoistureLevel   float64   `json:"moisture_level"`
	QualityGrade    Grade     `json:"quality_grade"`
	AdditionalNotes *string   `json:"additional_notes,omitempty"`
}

// Category groups items; read-only reference data for the inventory core.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Supplier is the optional source of an item.
type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
