package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository/memory"
)

type SessionSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.CartStore
	session *Session
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewCartStore()
	s.session = NewSession(NewCartService(s.store, nil, testMenu(), "EUR", newTestLogger()))
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) activate(userID string) {
	s.Require().NoError(s.session.SetActiveUser(s.ctx, userID))
}

func (s *SessionSuite) TestNoActiveUserIsNoop() {
	cart, err := s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)
	s.Empty(cart.Items)

	cart, err = s.session.ActiveCart(s.ctx)
	s.Require().NoError(err)
	s.Empty(cart.Items)

	in, err := s.session.IsItemInCart(s.ctx, "1")
	s.Require().NoError(err)
	s.False(in)

	view, err := s.session.View(s.ctx)
	s.Require().NoError(err)
	s.Empty(view.Items)
	s.True(view.TotalPrice.IsZero())

	s.Zero(s.store.Len())
}

func (s *SessionSuite) TestFirstActivationStoresEmptyCart() {
	s.activate("alice")

	s.Equal("alice", s.session.ActiveUser())
	s.Equal(1, s.store.Len())

	stored, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(stored.Items)
}

func (s *SessionSuite) TestUserIsolation() {
	s.activate("alice")
	_, err := s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)
	_, err = s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)

	s.activate("bob")
	cart, err := s.session.ActiveCart(s.ctx)
	s.Require().NoError(err)
	s.Empty(cart.Items, "bob must not see alice's items")

	_, err = s.session.AddItem(s.ctx, domain.MenuItem{ID: "3", Name: "Tiramisu", Price: dec("6.50"), IsAvailable: true})
	s.Require().NoError(err)

	s.activate("alice")
	qty, err := s.session.ItemQuantity(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(2, qty)
	in, err := s.session.IsItemInCart(s.ctx, "3")
	s.Require().NoError(err)
	s.False(in)

	s.Require().NoError(s.session.SetActiveUser(s.ctx, ""))
	s.Equal(2, s.store.Len(), "signing out keeps every cart")
}

func (s *SessionSuite) TestQuantityFloor() {
	s.activate("alice")
	_, err := s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)

	cart, err := s.session.IncrementQuantity(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(2, cart.Quantity("1"))

	_, err = s.session.DecrementQuantity(s.ctx, "1")
	s.Require().NoError(err)
	cart, err = s.session.DecrementQuantity(s.ctx, "1")
	s.Require().NoError(err)
	s.False(cart.Contains("1"))

	_, err = s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)
	cart, err = s.session.SetQuantity(s.ctx, "1", -3)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *SessionSuite) TestRemoveAndClear() {
	s.activate("alice")
	_, err := s.session.AddItem(s.ctx, margherita)
	s.Require().NoError(err)
	_, err = s.session.AddItem(s.ctx, domain.MenuItem{ID: "3", Name: "Tiramisu", Price: dec("6.50"), IsAvailable: true})
	s.Require().NoError(err)

	cart, err := s.session.RemoveItem(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal([]string{"3"}, itemIDs(cart))

	cart, err = s.session.Clear(s.ctx)
	s.Require().NoError(err)
	s.Empty(cart.Items)

	stored, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(stored.Items, "cleared cart stays stored")
}

func (s *SessionSuite) TestViewUsesLiveMenu() {
	s.activate("alice")
	_, err := s.session.AddItem(s.ctx, domain.MenuItem{ID: "1", Name: "Margherita", Price: dec("10.00"), IsAvailable: true})
	s.Require().NoError(err)

	view, err := s.session.View(s.ctx)
	s.Require().NoError(err)
	s.True(dec("10.00").Equal(view.TotalPrice))
	s.True(dec("12.50").Equal(view.TotalPriceAvailable))
}

func itemIDs(cart *domain.Cart) []string {
	ids := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ItemID
	}
	return ids
}

func TestSession_FailedActivationKeepsPreviousUser(t *testing.T) {
	store := new(mockCartStore)
	session := NewSession(NewCartService(store, nil, testMenu(), "EUR", newTestLogger()))
	ctx := context.Background()

	store.On("Get", ctx, "alice").Return(newCartWithItem("alice"), nil)
	store.On("Get", ctx, "bob").Return(nil, errors.New("connection refused"))

	if err := session.SetActiveUser(ctx, "alice"); err != nil {
		t.Fatalf("activate alice: %v", err)
	}
	if err := session.SetActiveUser(ctx, "bob"); err == nil {
		t.Fatal("expected activation of bob to fail")
	}
	if got := session.ActiveUser(); got != "alice" {
		t.Fatalf("active user = %q, want alice", got)
	}
	store.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}
