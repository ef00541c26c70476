package services

import (
	"fmt"
	"time"

	"farm_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ExpiringSoonDays is the window, inclusive, in which an expiry counts as soon.
const ExpiringSoonDays = 30

// StockStatus labels an item by its quantity against the reorder level.
func StockStatus(item models.Item) string {
	switch {
	case !item.CurrentQuantity.IsPositive():
		return models.StockOut
	case item.CurrentQuantity.LessThanOrEqual(item.ReorderLevel):
		return models.StockLow
	default:
		return models.StockGood
	}
}

// ExpiryStatus describes how far the item is from its expiry date, or nil
// when it has none. Days are counted between calendar dates.
func ExpiryStatus(item models.Item, today time.Time) *string {
	if item.ExpiryDate == nil {
		return nil
	}
	days := daysBetween(today, *item.ExpiryDate)
	var s string
	switch {
	case days < 0:
		s = fmt.Sprintf("Expired (%d days ago)", -days)
	case days <= ExpiringSoonDays:
		s = fmt.Sprintf("Expiring soon (%d days remaining)", days)
	default:
		s = fmt.Sprintf("%d days remaining", days)
	}
	return &s
}

// utcToday is the UTC calendar date of now. Every date label is computed
// against it.
func utcToday(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// Describe attaches the derived labels to item.
func Describe(item models.Item, today time.Time) models.ItemDetails {
	return models.ItemDetails{
		Item:         item,
		StockStatus:  StockStatus(item),
		ExpiryStatus: ExpiryStatus(item, today),
	}
}

// ReplayBalance folds ledger entries into a balance: additions minus removals.
// Order does not change the sum; callers checking the non-negative running
// balance pass entries in insertion order.
func ReplayBalance(entries []models.LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.ActionType.SignedQuantity(e.Quantity))
	}
	return balance
}

// firstNegative returns the index of the first entry after which the running
// balance dips below zero, or -1.
func firstNegative(entries []models.LedgerEntry) int {
	balance := decimal.Zero
	for i, e := range entries {
		balance = balance.Add(e.ActionType.SignedQuantity(e.Quantity))
		if balance.IsNegative() {
			return i
		}
	}
	return -1
}
