package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/catalog"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/reconcile"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// Operation names used in logs and metrics.
const (
	opAdd       = "add_item"
	opRemove    = "remove_item"
	opSetQty    = "set_quantity"
	opIncrement = "increment"
	opDecrement = "decrement"
	opClear     = "clear"
)

// EventPublisher announces cart changes. *event.Producer implements it.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, userID string) error
}

// Menu is the read side of the live menu catalog.
type Menu interface {
	Current() *catalog.Snapshot
	Loaded() bool
}

// CartService implements the business logic for cart operations. Every call
// names the user explicitly; see Session for the active-user variant.
type CartService struct {
	store     repository.CartStore
	publisher EventPublisher
	menu      Menu
	currency  string
	logger    *slog.Logger
	now       func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(store repository.CartStore, publisher EventPublisher, menu Menu, currency string, logger *slog.Logger) *CartService {
	return &CartService{
		store:     store,
		publisher: publisher,
		menu:      menu,
		currency:  currency,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// EnsureCart returns the user's cart, persisting an empty one first if the
// user has never had a cart.
func (s *CartService) EnsureCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Version > 0 {
		return cart, nil
	}

	cart.UpdatedAt = s.now()
	ok, err := s.store.SaveIfVersion(ctx, cart, 0)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		// Created concurrently by another writer; theirs is the one to keep.
		return s.GetCart(ctx, userID)
	}

	s.logger.InfoContext(ctx, "cart created", slog.String("user_id", userID))
	return cart, nil
}

// AddItem merges one unit of the given menu item snapshot into the cart.
// An item already in the cart keeps the name and price it was first added with.
func (s *CartService) AddItem(ctx context.Context, userID string, item domain.MenuItem) (*domain.Cart, error) {
	if item.ID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}
	if item.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	return s.mutate(ctx, userID, opAdd, item.ID, func(c *domain.Cart) bool {
		return c.AddItem(item)
	})
}

// AddItemByID looks the item up in the current menu and adds it. Only items
// that exist and are available can be added this way.
func (s *CartService) AddItemByID(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}

	item, ok := s.menu.Current().Lookup(itemID)
	if !ok {
		if !s.menu.Loaded() {
			return nil, apperrors.Unavailable("menu is not loaded yet")
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("menu item %s does not exist", itemID))
	}
	if !item.IsAvailable {
		return nil, apperrors.Conflict(fmt.Sprintf("menu item %s is currently unavailable", itemID))
	}

	return s.AddItem(ctx, userID, item)
}

// RemoveItem deletes the line for itemID. Absent items are left alone.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, opRemove, itemID, func(c *domain.Cart) bool {
		return c.RemoveItem(itemID)
	})
}

// SetQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, opSetQty, itemID, func(c *domain.Cart) bool {
		return c.SetQuantity(itemID, quantity)
	})
}

// IncrementQuantity adds one unit to an existing line.
func (s *CartService) IncrementQuantity(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, opIncrement, itemID, func(c *domain.Cart) bool {
		return c.IncrementQuantity(itemID)
	})
}

// DecrementQuantity removes one unit from an existing line; the last unit
// removes the line.
func (s *CartService) DecrementQuantity(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, opDecrement, itemID, func(c *domain.Cart) bool {
		return c.DecrementQuantity(itemID)
	})
}

// ClearCart removes every line. The emptied cart stays stored for the user.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, opClear, "", func(c *domain.Cart) bool {
		return c.Clear()
	})
}

// IsItemInCart reports whether the stored cart holds itemID.
func (s *CartService) IsItemInCart(ctx context.Context, userID, itemID string) (bool, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return false, err
	}
	return cart.Contains(itemID), nil
}

// ItemQuantity returns the stored quantity of itemID, or 0 when absent.
func (s *CartService) ItemQuantity(ctx context.Context, userID, itemID string) (int, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.Quantity(itemID), nil
}

// View reconciles the stored cart against the latest menu snapshot.
func (s *CartService) View(ctx context.Context, userID string) (*reconcile.View, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ViewOf(cart), nil
}

// Menu returns the menu snapshot the service currently reconciles against.
func (s *CartService) Menu() *catalog.Snapshot {
	return s.menu.Current()
}

// ViewOf reconciles an already loaded cart against the latest menu snapshot.
func (s *CartService) ViewOf(cart *domain.Cart) *reconcile.View {
	return reconcile.BuildView(cart, s.menu.Current(), s.currency)
}

// mutate loads the cart, applies fn to a copy and saves the copy only if the
// stored version is still the one that was loaded. The caller's view of the
// cart is unchanged unless the save succeeds.
func (s *CartService) mutate(ctx context.Context, userID, op, itemID string, fn func(*domain.Cart) bool) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		cartOperationsTotal.WithLabelValues(op, resultError).Inc()
		return nil, err
	}

	updated := cart.Clone()
	if !fn(updated) {
		cartOperationsTotal.WithLabelValues(op, resultNoop).Inc()
		return cart, nil
	}
	updated.UpdatedAt = s.now()

	ok, err := s.store.SaveIfVersion(ctx, updated, cart.Version)
	if err != nil {
		cartOperationsTotal.WithLabelValues(op, resultError).Inc()
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		cartOperationsTotal.WithLabelValues(op, resultConflict).Inc()
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}
	cartOperationsTotal.WithLabelValues(op, resultSuccess).Inc()

	s.publish(ctx, op, updated)

	s.logger.InfoContext(ctx, "cart updated",
		slog.String("operation", op),
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
		slog.Int("item_count", updated.ItemCount()),
		slog.Int("version", updated.Version),
	)

	return updated, nil
}

func (s *CartService) publish(ctx context.Context, op string, cart *domain.Cart) {
	if s.publisher == nil {
		return
	}

	if op == opClear {
		if err := s.publisher.PublishCartCleared(ctx, cart.UserID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("user_id", cart.UserID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if err := s.publisher.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}
