package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

// ItemRecord is the persisted shape of one line item.
type ItemRecord struct {
	ItemID    string      `json:"itemId"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
}

// Record is the persisted shape of one cart.
type Record struct {
	Items     []ItemRecord `json:"items"`
	Version   int          `json:"version,omitempty"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
}

// Document is the persisted shape of the whole file store. Each cart stays
// raw so one unreadable cart never affects another user.
type Document struct {
	Carts map[string]json.RawMessage `json:"carts"`
}

// NewDocument returns an empty store document.
func NewDocument() *Document {
	return &Document{Carts: map[string]json.RawMessage{}}
}

// EncodeItems converts line items to their persisted shape.
func EncodeItems(items []domain.LineItem) []ItemRecord {
	out := make([]ItemRecord, 0, len(items))
	for _, item := range items {
		out = append(out, ItemRecord{
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: json.Number(item.UnitPrice.String()),
			Quantity:  item.Quantity,
		})
	}
	return out
}

// DecodeItems converts persisted records back to line items. Records that
// would break cart invariants are dropped: empty IDs, unparsable prices,
// quantities outside 1..domain.MaxQuantity and repeated IDs after the first.
func DecodeItems(records []ItemRecord) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ItemID == "" || r.Quantity < 1 || r.Quantity > domain.MaxQuantity {
			continue
		}
		if _, dup := seen[r.ItemID]; dup {
			continue
		}
		price, err := decimal.NewFromString(r.UnitPrice.String())
		if err != nil {
			continue
		}
		seen[r.ItemID] = struct{}{}
		out = append(out, domain.LineItem{
			ItemID:    r.ItemID,
			Name:      r.Name,
			UnitPrice: price,
			Quantity:  r.Quantity,
		})
	}
	return out
}

// DecodeRawItems decodes a JSON array of item records one element at a time,
// so an element with a mistyped field is dropped alone. Empty input and null
// are an empty cart; anything but an array is an error.
func DecodeRawItems(raw json.RawMessage) ([]domain.LineItem, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.LineItem{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []domain.LineItem{}, fmt.Errorf("items: %w", err)
	}
	records := make([]ItemRecord, 0, len(elems))
	for _, elem := range elems {
		var rec ItemRecord
		if json.Unmarshal(elem, &rec) == nil {
			records = append(records, rec)
		}
	}
	return DecodeItems(records), nil
}

// EncodeCart converts a cart to its persisted shape.
func EncodeCart(cart *domain.Cart) Record {
	rec := Record{
		Items:   EncodeItems(cart.Items),
		Version: cart.Version,
	}
	if !cart.UpdatedAt.IsZero() {
		t := cart.UpdatedAt.UTC()
		rec.UpdatedAt = &t
	}
	return rec
}

// MarshalCart serializes a single cart record.
func MarshalCart(cart *domain.Cart) ([]byte, error) {
	return json.Marshal(EncodeCart(cart))
}

// UnmarshalCart parses a single cart record field by field. Item lines and
// fields with the wrong type are dropped, keeping the rest; the error is
// non-nil only when data is not a JSON object.
func UnmarshalCart(userID string, data []byte) (*domain.Cart, error) {
	fields, err := recordFields(data)
	if err != nil {
		return nil, err
	}
	cart := domain.NewCart(userID)
	cart.Items, _ = DecodeRawItems(fields["items"])
	cart.Version = versionOf(fields)
	var updatedAt time.Time
	if raw, ok := fields["updatedAt"]; ok && json.Unmarshal(raw, &updatedAt) == nil {
		cart.UpdatedAt = updatedAt.UTC()
	}
	return cart, nil
}

// PeekVersion returns the version stored in data, or 0 when data or its
// version field cannot be read. It agrees with UnmarshalCart on every input.
func PeekVersion(data []byte) int {
	fields, err := recordFields(data)
	if err != nil {
		return 0
	}
	return versionOf(fields)
}

func recordFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("cart record: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("cart record: null")
	}
	return fields, nil
}

func versionOf(fields map[string]json.RawMessage) int {
	var v int
	if raw, ok := fields["version"]; ok && json.Unmarshal(raw, &v) == nil && v > 0 {
		return v
	}
	return 0
}
