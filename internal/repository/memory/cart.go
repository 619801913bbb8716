package memory

import (
	"context"
	"sync"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// CartStore implements repository.CartStore in process memory.
// Carts are copied on the way in and out so callers never share state.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*domain.Cart)}
}

// Get retrieves a copy of the stored cart.
func (s *CartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("cart", userID)
	}
	return cart.Clone(), nil
}

// SaveIfVersion stores a copy of cart when the stored version matches.
func (s *CartStore) SaveIfVersion(_ context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if stored, ok := s.carts[cart.UserID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	cart.Version = expectedVersion + 1
	s.carts[cart.UserID] = cart.Clone()
	return true, nil
}

// Len returns the number of stored carts.
func (s *CartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}
