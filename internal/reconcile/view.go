package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

// View is everything rendering and checkout code needs about one cart.
type View struct {
	UserID                 string                    `json:"user_id,omitempty"`
	Currency               string                    `json:"currency"`
	Items                  []domain.EnrichedLineItem `json:"items"`
	Available              []domain.EnrichedLineItem `json:"available"`
	Unavailable            []domain.EnrichedLineItem `json:"unavailable"`
	TotalQuantity          int                       `json:"total_quantity"`
	TotalPrice             decimal.Decimal           `json:"total_price"`
	TotalQuantityAvailable int                       `json:"total_quantity_available"`
	TotalPriceAvailable    decimal.Decimal           `json:"total_price_available"`
}

// HasUnavailable reports whether some lines cannot be charged.
func (v *View) HasUnavailable() bool {
	return len(v.Unavailable) > 0
}

// BuildView enriches the cart and computes every aggregate in one pass over
// the same enriched slice, so all fields agree with each other.
func BuildView(cart *domain.Cart, catalog Catalog, currency string) *View {
	items := Enrich(cart, catalog)
	available, unavailable := PartitionByAvailability(items)

	v := &View{
		Currency:               currency,
		Items:                  items,
		Available:              available,
		Unavailable:            unavailable,
		TotalQuantity:          TotalQuantity(items),
		TotalPrice:             TotalPrice(items),
		TotalQuantityAvailable: TotalQuantityAvailable(items),
		TotalPriceAvailable:    TotalPriceAvailable(items),
	}
	if cart != nil {
		v.UserID = cart.UserID
	}
	return v
}
