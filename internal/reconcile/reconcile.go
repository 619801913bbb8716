// Package reconcile combines a stored cart with the current menu to decide
// live prices, availability and the totals shown at checkout.
//
// Everything here is a pure function of its arguments: no storage access, no
// clock, no shared state. It is safe to call from any number of goroutines.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

// Catalog is the read side of a menu snapshot.
type Catalog interface {
	Lookup(id string) (domain.MenuItem, bool)
}

// Enrich reconciles every line of the cart against the catalog. Output order
// follows the cart's insertion order.
func Enrich(cart *domain.Cart, catalog Catalog) []domain.EnrichedLineItem {
	if cart == nil {
		return []domain.EnrichedLineItem{}
	}

	out := make([]domain.EnrichedLineItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		out = append(out, enrichLine(line, catalog))
	}
	return out
}

func enrichLine(line domain.LineItem, catalog Catalog) domain.EnrichedLineItem {
	var (
		item  domain.MenuItem
		found bool
	)
	if catalog != nil {
		item, found = catalog.Lookup(line.ItemID)
	}

	if !found {
		// Withdrawn from the menu: fall back to the price the user saw.
		return domain.EnrichedLineItem{
			LineItem:     line,
			CurrentPrice: line.UnitPrice,
			IsAvailable:  false,
			StillExists:  false,
		}
	}

	return domain.EnrichedLineItem{
		LineItem:     line,
		CurrentPrice: item.Price,
		IsAvailable:  item.IsAvailable,
		StillExists:  true,
	}
}

// PartitionByAvailability splits enriched lines into those that can be charged
// (present and enabled on the menu) and everything else. Relative order is
// preserved in both slices.
func PartitionByAvailability(items []domain.EnrichedLineItem) (available, unavailable []domain.EnrichedLineItem) {
	available = make([]domain.EnrichedLineItem, 0, len(items))
	unavailable = make([]domain.EnrichedLineItem, 0)
	for _, item := range items {
		if item.Chargeable() {
			available = append(available, item)
		} else {
			unavailable = append(unavailable, item)
		}
	}
	return available, unavailable
}

// TotalQuantity sums quantities over all lines, available or not.
func TotalQuantity(items []domain.EnrichedLineItem) int {
	var total int
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums the stored unit price times quantity over all lines. It is
// what the cart believed it cost when items were added.
func TotalPrice(items []domain.EnrichedLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalQuantityAvailable sums quantities over chargeable lines only.
func TotalQuantityAvailable(items []domain.EnrichedLineItem) int {
	var total int
	for _, item := range items {
		if item.Chargeable() {
			total += item.Quantity
		}
	}
	return total
}

// TotalPriceAvailable sums the live menu price times quantity over chargeable
// lines. This is the amount to charge at checkout.
func TotalPriceAvailable(items []domain.EnrichedLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Chargeable() {
			total = total.Add(item.CurrentPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total
}
