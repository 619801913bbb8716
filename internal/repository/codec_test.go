package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

func TestMarshalCart_PersistedShape(t *testing.T) {
	c := domain.NewCart("u1")
	c.Items = []domain.LineItem{
		{ItemID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2},
	}

	data, err := MarshalCart(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"itemId":"1","name":"Margherita","unitPrice":12.5,"quantity":2}]}`, string(data))
}

func TestUnmarshalCart_RoundTripKeepsCart(t *testing.T) {
	c := domain.NewCart("u1")
	c.Items = []domain.LineItem{
		{ItemID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2},
		{ItemID: "3", Name: "Tiramisu", UnitPrice: decimal.RequireFromString("6.5"), Quantity: 1},
	}
	c.Version = 7
	c.UpdatedAt = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	data, err := MarshalCart(c)
	require.NoError(t, err)
	got, err := UnmarshalCart("u1", data)
	require.NoError(t, err)

	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("cart mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeItems_DropsInvalidRecords(t *testing.T) {
	var records []ItemRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"itemId":"1","name":"ok","unitPrice":"4.20","quantity":1},
		{"itemId":"1","name":"dup","unitPrice":1,"quantity":3},
		{"itemId":"","name":"no id","unitPrice":1,"quantity":1},
		{"itemId":"2","name":"zero","unitPrice":1,"quantity":0},
		{"itemId":"3","name":"no price","quantity":1}
	]`), &records))

	items := DecodeItems(records)
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].Name)
	assert.True(t, decimal.RequireFromString("4.2").Equal(items[0].UnitPrice))
}

func TestUnmarshalCart_Malformed(t *testing.T) {
	_, err := UnmarshalCart("u1", []byte("nope"))
	assert.Error(t, err)
}

func TestUnmarshalCart_MistypedFieldsDropped(t *testing.T) {
	got, err := UnmarshalCart("u1", []byte(`{
		"items":[
			{"itemId":"1","name":"bad price","unitPrice":"abc","quantity":1},
			{"itemId":"2","name":"bad qty","unitPrice":1,"quantity":"2"},
			{"itemId":"3","name":"too many","unitPrice":1,"quantity":101},
			7,
			{"itemId":"4","name":"ok","unitPrice":"3.10","quantity":2}
		],
		"version":3,
		"updatedAt":"yesterday"
	}`))
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "4", got.Items[0].ItemID)
	assert.Equal(t, 3, got.Version)
	assert.True(t, got.UpdatedAt.IsZero())
}

func TestPeekVersion_AgreesWithUnmarshalCart(t *testing.T) {
	inputs := []string{
		`{"items":[],"version":3}`,
		`{"items":{"oops":1},"version":4}`,
		`{"version":"3"}`,
		`{"version":-2}`,
		`[]`,
		`null`,
		`garbage`,
	}
	for _, in := range inputs {
		want := 0
		if cart, err := UnmarshalCart("u1", []byte(in)); err == nil {
			want = cart.Version
		}
		assert.Equal(t, want, PeekVersion([]byte(in)), in)
	}
}

func TestDecodeRawItems_NotAnArray(t *testing.T) {
	items, err := DecodeRawItems(json.RawMessage(`{"oops":`))
	assert.Error(t, err)
	assert.Empty(t, items)

	items, err = DecodeRawItems(json.RawMessage(`null`))
	assert.NoError(t, err)
	assert.Empty(t, items)
}
