package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

func pizzaCart(userID string, qty int) *domain.Cart {
	c := domain.NewCart(userID)
	c.Items = []domain.LineItem{{ItemID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("10"), Quantity: qty}}
	return c
}

func TestGet_NotFound(t *testing.T) {
	s := NewCartStore()

	_, err := s.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSaveAndGet_Copies(t *testing.T) {
	s := NewCartStore()
	ctx := context.Background()

	cart := pizzaCart("u1", 1)
	ok, err := s.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, cart.Version)

	cart.Items[0].Quantity = 99

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)

	got.Items[0].Quantity = 42
	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestSaveIfVersion_Mismatch(t *testing.T) {
	s := NewCartStore()
	ctx := context.Background()

	_, err := s.SaveIfVersion(ctx, pizzaCart("u1", 1), 0)
	require.NoError(t, err)

	ok, err := s.SaveIfVersion(ctx, pizzaCart("u1", 5), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.SaveIfVersion(ctx, pizzaCart("u2", 5), 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSaveIfVersion_ConcurrentWritersOneWins(t *testing.T) {
	s := NewCartStore()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.SaveIfVersion(ctx, pizzaCart("u1", i+1), 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
