package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quantityBody struct {
	ItemID   string `json:"item_id" validate:"required,max=8"`
	Quantity *int   `json:"quantity" validate:"required,lte=100"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
		wantDecode bool
	}{
		{name: "valid", body: `{"item_id":"42","quantity":3}`},
		{
			name:       "missing fields",
			body:       `{}`,
			wantFields: map[string]string{"item_id": "is required", "quantity": "is required"},
		},
		{
			name:       "bounds",
			body:       `{"item_id":"123456789","quantity":101}`,
			wantFields: map[string]string{"item_id": "must be at most 8 characters", "quantity": "must be at most 100"},
		},
		{name: "malformed", body: `{"item_id":`, wantDecode: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tt.body))
			var dst quantityBody
			err := DecodeAndValidate(req, &dst)

			switch {
			case tt.wantDecode:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "decode request body")
			case tt.wantFields != nil:
				var valErr *ValidationError
				require.True(t, errors.As(err, &valErr))
				assert.Equal(t, tt.wantFields, valErr.Fields())
			default:
				require.NoError(t, err)
				assert.Equal(t, 3, *dst.Quantity)
			}
		})
	}
}

func TestDecodeAndValidate_BodyTooLarge(t *testing.T) {
	body := `{"item_id":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))

	err := DecodeAndValidate(req, &quantityBody{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
