package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps the units of one menu item a single line may hold.
const MaxQuantity = 100

// LineItem is a quantity of one menu item inside one user's cart.
// Name and UnitPrice are captured when the item is first added and are
// never refreshed from the menu afterwards.
type LineItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Cart is one user's ordered collection of line items.
// Items keep insertion order and hold at most one entry per ItemID.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	Version   int        `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for the given user.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []LineItem{},
	}
}

// Clone returns a deep copy of the cart so callers can mutate it without
// affecting the original.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

// FindItemIndex returns the index of the line item with the given ID, or -1.
func (c *Cart) FindItemIndex(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// Contains reports whether the cart holds a line item for itemID.
func (c *Cart) Contains(itemID string) bool {
	return c.FindItemIndex(itemID) >= 0
}

// Quantity returns the quantity held for itemID, or 0 when absent.
func (c *Cart) Quantity(itemID string) int {
	if i := c.FindItemIndex(itemID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// AddItem merges one unit of the menu item into the cart. An existing line
// keeps its original name and price snapshot. A line already at MaxQuantity
// is left alone and AddItem reports false.
func (c *Cart) AddItem(item MenuItem) bool {
	if i := c.FindItemIndex(item.ID); i >= 0 {
		return c.IncrementQuantity(item.ID)
	}
	c.Items = append(c.Items, LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
	})
	return true
}

// RemoveItem deletes the line for itemID. It reports whether anything changed.
func (c *Cart) RemoveItem(itemID string) bool {
	i := c.FindItemIndex(itemID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity sets the quantity for an existing line. A quantity of zero or
// less removes the line and anything above MaxQuantity is clamped to it.
// Absent IDs are left alone.
func (c *Cart) SetQuantity(itemID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}
	quantity = min(quantity, MaxQuantity)
	i := c.FindItemIndex(itemID)
	if i < 0 || c.Items[i].Quantity == quantity {
		return false
	}
	c.Items[i].Quantity = quantity
	return true
}

// IncrementQuantity adds one to an existing line below MaxQuantity.
func (c *Cart) IncrementQuantity(itemID string) bool {
	i := c.FindItemIndex(itemID)
	if i < 0 || c.Items[i].Quantity >= MaxQuantity {
		return false
	}
	c.Items[i].Quantity++
	return true
}

// DecrementQuantity subtracts one from an existing line, removing it when the
// quantity would reach zero.
func (c *Cart) DecrementQuantity(itemID string) bool {
	i := c.FindItemIndex(itemID)
	if i < 0 {
		return false
	}
	return c.SetQuantity(itemID, c.Items[i].Quantity-1)
}

// Clear empties the cart. It reports whether there was anything to remove.
func (c *Cart) Clear() bool {
	if len(c.Items) == 0 {
		return false
	}
	c.Items = []LineItem{}
	return true
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// TotalAmount sums the stored snapshot prices of every line.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
