package domain

import "github.com/shopspring/decimal"

// MenuItem is one sellable entry of the restaurant menu as last reported by
// the menu service.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// EnrichedLineItem is a line item reconciled against the current menu.
// It is derived on every read and never stored.
type EnrichedLineItem struct {
	LineItem
	CurrentPrice decimal.Decimal `json:"current_price"`
	IsAvailable  bool            `json:"is_available"`
	StillExists  bool            `json:"still_exists"`
}

// Chargeable reports whether the line can be paid for at checkout.
func (e EnrichedLineItem) Chargeable() bool {
	return e.IsAvailable && e.StillExists
}
