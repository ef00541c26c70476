package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scales of the NUMERIC columns values are written to.
const (
	quantityPlaces = 3 // NUMERIC(14,3)
	moneyPlaces    = 2 // NUMERIC(14,2)
	moisturePlaces = 2 // NUMERIC(5,2)
)

var (
	maxQuantity = decimal.New(1, 14-quantityPlaces)
	maxMoney    = decimal.New(1, 14-moneyPlaces)
)

// checkQuantity adds a field error when d cannot be stored as a quantity.
func checkQuantity(v *ValidationError, field string, d decimal.Decimal) {
	checkScaled(v, field, d, quantityPlaces, maxQuantity)
}

// checkMoney adds a field error when d cannot be stored as an amount of money.
func checkMoney(v *ValidationError, field string, d decimal.Decimal) {
	checkScaled(v, field, d, moneyPlaces, maxMoney)
}

func checkScaled(v *ValidationError, field string, d decimal.Decimal, places int32, limit decimal.Decimal) {
	if !d.Equal(d.Round(places)) {
		v.Add(field, fmt.Sprintf("must have at most %d decimal places", places))
	}
	if d.Abs().GreaterThanOrEqual(limit) {
		v.Add(field, fmt.Sprintf("must be less than %s", limit))
	}
}
