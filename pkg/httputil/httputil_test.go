package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/logger"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/validator"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON_OmitsEmptyError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, Response{Data: map[string]int{"totalItems": 2}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"totalItems":2}}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"missing cart", apperrors.NotFound("cart", "alice"), http.StatusNotFound, "NOT_FOUND", "cart alice not found"},
		{"lost race", apperrors.Conflict("cart was modified concurrently, please retry"), http.StatusConflict, "CONFLICT", "cart was modified concurrently, please retry"},
		{"menu not loaded", apperrors.Unavailable("menu not loaded yet"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "menu not loaded yet"},
		{"wrapped sentinel", fmt.Errorf("set quantity: %w", apperrors.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT", "set quantity: invalid input"},
		{"unknown", fmt.Errorf("redis: connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)

			WriteError(rec, req, tt.err, slog.New(slog.NewJSONHandler(&logs, nil)))

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, tt.status == http.StatusInternalServerError, logs.Len() > 0)
		})
	}
}

func TestWriteError_CarriesCorrelationID(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.NotFound("cart", "alice"), nil)

	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "corr-123", resp.Error.RequestID)
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		ItemID string `json:"item_id" validate:"required"`
	}
	valErr := validator.Validate(body{})
	require.Error(t, valErr)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, valErr)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, map[string]string{"item_id": "is required"}, resp.Error.Fields)

	rec = httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("decode request body: unexpected EOF"))
	resp = decode(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}
