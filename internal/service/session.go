package service

import (
	"context"
	"sync"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/reconcile"
)

// Session tracks which user is currently signed in and routes every cart
// operation to that user's cart. It is the entry point for embedding the
// cart in a single-user client; the HTTP API is stateless and names the user
// on every request instead. With no active user every operation is a
// no-op that returns an empty cart.
//
// Calls on one Session are serialized, so a user switch never interleaves
// with a mutation of the previous user's cart.
type Session struct {
	mu     sync.Mutex
	carts  *CartService
	userID string
}

// NewSession creates a session with no active user.
func NewSession(carts *CartService) *Session {
	return &Session{carts: carts}
}

// SetActiveUser switches the active user. An empty id signs out. The first
// activation of a user stores an empty cart for them; other users' carts are
// never touched. If that store fails the previous user stays active.
func (s *Session) SetActiveUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		s.userID = ""
		return nil
	}
	if _, err := s.carts.EnsureCart(ctx, userID); err != nil {
		return err
	}
	s.userID = userID
	return nil
}

// ActiveUser returns the active user id, or "" when signed out.
func (s *Session) ActiveUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// ActiveCart returns the active user's cart.
func (s *Session) ActiveCart(ctx context.Context) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.GetCart(ctx, userID)
	})
}

// AddItem merges one unit of item into the active cart, capped at
// domain.MaxQuantity per line.
func (s *Session) AddItem(ctx context.Context, item domain.MenuItem) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.AddItem(ctx, userID, item)
	})
}

// RemoveItem deletes the active cart's line for itemID.
func (s *Session) RemoveItem(ctx context.Context, itemID string) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.RemoveItem(ctx, userID, itemID)
	})
}

// SetQuantity sets the active cart's quantity for itemID. Zero or less
// removes the line.
func (s *Session) SetQuantity(ctx context.Context, itemID string, quantity int) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.SetQuantity(ctx, userID, itemID, quantity)
	})
}

// IncrementQuantity adds one unit to an existing line of the active cart.
func (s *Session) IncrementQuantity(ctx context.Context, itemID string) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.IncrementQuantity(ctx, userID, itemID)
	})
}

// DecrementQuantity removes one unit from an existing line of the active
// cart. The last unit removes the line.
func (s *Session) DecrementQuantity(ctx context.Context, itemID string) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.DecrementQuantity(ctx, userID, itemID)
	})
}

// Clear empties the active cart and keeps it stored.
func (s *Session) Clear(ctx context.Context) (*domain.Cart, error) {
	return s.withCart(func(userID string) (*domain.Cart, error) {
		return s.carts.ClearCart(ctx, userID)
	})
}

// IsItemInCart reports whether the active cart holds itemID.
func (s *Session) IsItemInCart(ctx context.Context, itemID string) (bool, error) {
	cart, err := s.ActiveCart(ctx)
	if err != nil {
		return false, err
	}
	return cart.Contains(itemID), nil
}

// ItemQuantity returns the active cart's quantity of itemID, or 0.
func (s *Session) ItemQuantity(ctx context.Context, itemID string) (int, error) {
	cart, err := s.ActiveCart(ctx)
	if err != nil {
		return 0, err
	}
	return cart.Quantity(itemID), nil
}

// View reconciles the active cart against the latest menu snapshot.
func (s *Session) View(ctx context.Context) (*reconcile.View, error) {
	cart, err := s.ActiveCart(ctx)
	if err != nil {
		return nil, err
	}
	return s.carts.ViewOf(cart), nil
}

func (s *Session) withCart(fn func(userID string) (*domain.Cart, error)) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.NewCart(""), nil
	}
	return fn(s.userID)
}
