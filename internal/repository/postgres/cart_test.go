package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/database"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupStore(t *testing.T) (*CartStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store := NewCartStore(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return store, mock
}

var fixedTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func cartColumns() []string {
	return []string{"items", "version", "updated_at"}
}

func sampleCart() *domain.Cart {
	c := domain.NewCart("user-001")
	c.Items = []domain.LineItem{
		{ItemID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2},
	}
	c.UpdatedAt = fixedTime
	return c
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestGet_Success(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery("SELECT .+ FROM carts WHERE user_id").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows(cartColumns()).AddRow(
			[]byte(`[{"itemId":"1","name":"Margherita","unitPrice":12.5,"quantity":2}]`), 4, fixedTime,
		))

	got, err := store.Get(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Equal(t, "user-001", got.UserID)
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, fixedTime, got.UpdatedAt)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Items[0].UnitPrice))
	assert.Equal(t, 2, got.Items[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery("SELECT .+ FROM carts WHERE user_id").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MalformedItemsIsEmpty(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery("SELECT .+ FROM carts WHERE user_id").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows(cartColumns()).AddRow([]byte(`{"oops":`), 2, fixedTime))

	got, err := store.Get(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 2, got.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MistypedLineDroppedAlone(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery("SELECT .+ FROM carts WHERE user_id").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows(cartColumns()).AddRow([]byte(`[
			{"itemId":"1","name":"Margherita","unitPrice":"abc","quantity":2},
			{"itemId":"2","name":"Carbonara","unitPrice":14,"quantity":"1"},
			{"itemId":"3","name":"Tiramisu","unitPrice":6.5,"quantity":1}
		]`), 5, fixedTime))

	got, err := store.Get(context.Background(), "user-001")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "3", got.Items[0].ItemID)
	assert.Equal(t, 5, got.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_DBError(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery("SELECT .+ FROM carts WHERE user_id").
		WithArgs("user-001").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "user-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query cart")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestSaveIfVersion_InsertsFirstVersion(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec("INSERT INTO carts").
		WithArgs("user-001", pgxmock.AnyArg(), 1, fixedTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	cart := sampleCart()
	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cart.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIfVersion_InsertConflict(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec("INSERT INTO carts").
		WithArgs("user-001", pgxmock.AnyArg(), 1, fixedTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	cart := sampleCart()
	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, cart.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIfVersion_UpdatesMatchingVersion(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec("UPDATE carts SET items").
		WithArgs("user-001", pgxmock.AnyArg(), 4, fixedTime, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	cart := sampleCart()
	cart.Version = 3
	ok, err := store.SaveIfVersion(context.Background(), cart, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, cart.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIfVersion_StaleVersion(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec("UPDATE carts SET items").
		WithArgs("user-001", pgxmock.AnyArg(), 2, fixedTime, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := store.SaveIfVersion(context.Background(), sampleCart(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIfVersion_DBError(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec("UPDATE carts SET items").
		WithArgs("user-001", pgxmock.AnyArg(), 2, fixedTime, 1).
		WillReturnError(errors.New("connection refused"))

	cart := sampleCart()
	ok, err := store.SaveIfVersion(context.Background(), cart, 1)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "update cart")
	assert.Equal(t, 0, cart.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIfVersion_StampsMissingUpdatedAt(t *testing.T) {
	store, mock := setupStore(t)
	store.now = func() time.Time { return fixedTime }

	mock.ExpectExec("INSERT INTO carts").
		WithArgs("user-002", []byte(`[]`), 1, fixedTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ok, err := store.SaveIfVersion(context.Background(), domain.NewCart("user-002"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
