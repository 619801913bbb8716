package repository

import (
	"context"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

// CartStore defines the persistence contract shared by every cart backend.
type CartStore interface {
	// Get retrieves the cart of a user. It returns an apperrors.ErrNotFound
	// error when the user has no stored cart.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion stores the cart only if the stored version still equals
	// expectedVersion (0 means no cart is stored yet). On success the stored
	// version becomes expectedVersion+1 and cart.Version is updated to match.
	// A lost race returns false with a nil error.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)
}
