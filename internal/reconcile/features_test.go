package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

type reconcileTestContext struct {
	cart *domain.Cart
	menu mapCatalog
	view *View
}

func (c *reconcileTestContext) reset() {
	c.cart = nil
	c.menu = mapCatalog{}
	c.view = nil
}

func (c *reconcileTestContext) anEmptyCartForUser(userID string) error {
	c.cart = domain.NewCart(userID)
	return nil
}

func (c *reconcileTestContext) theCartHolds(quantity int, itemID, price string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.cart.Items = append(c.cart.Items, domain.LineItem{
		ItemID:    itemID,
		Name:      "Dish " + itemID,
		UnitPrice: p,
		Quantity:  quantity,
	})
	return nil
}

func (c *reconcileTestContext) theMenuOffers(itemID, price string) error {
	return c.addMenuItem(itemID, price, true)
}

func (c *reconcileTestContext) theMenuOffersDisabled(itemID, price string) error {
	return c.addMenuItem(itemID, price, false)
}

func (c *reconcileTestContext) addMenuItem(itemID, price string, available bool) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.menu[itemID] = domain.MenuItem{ID: itemID, Name: "Dish " + itemID, Price: p, IsAvailable: available}
	return nil
}

func (c *reconcileTestContext) theCartIsReconciled() error {
	c.view = BuildView(c.cart, c.menu, "EUR")
	return nil
}

func (c *reconcileTestContext) itemHasState(itemID, price, availability, existence string) error {
	for _, line := range c.view.Items {
		if line.ItemID != itemID {
			continue
		}
		if err := expectDecimal("current price", price, line.CurrentPrice); err != nil {
			return err
		}
		if want := availability == "available"; line.IsAvailable != want {
			return fmt.Errorf("item %s: expected isAvailable=%v, got %v", itemID, want, line.IsAvailable)
		}
		if want := existence == "still exists"; line.StillExists != want {
			return fmt.Errorf("item %s: expected stillExists=%v, got %v", itemID, want, line.StillExists)
		}
		return nil
	}
	return fmt.Errorf("item %s not in reconciled cart", itemID)
}

func (c *reconcileTestContext) theTotalQuantityIs(n int) error {
	if c.view.TotalQuantity != n {
		return fmt.Errorf("expected total quantity %d, got %d", n, c.view.TotalQuantity)
	}
	return nil
}

func (c *reconcileTestContext) theTotalPriceIs(price string) error {
	return expectDecimal("total price", price, c.view.TotalPrice)
}

func (c *reconcileTestContext) theAvailableQuantityIs(n int) error {
	if c.view.TotalQuantityAvailable != n {
		return fmt.Errorf("expected available quantity %d, got %d", n, c.view.TotalQuantityAvailable)
	}
	return nil
}

func (c *reconcileTestContext) theAvailablePriceIs(price string) error {
	return expectDecimal("available price", price, c.view.TotalPriceAvailable)
}

func (c *reconcileTestContext) linesArePartitioned(available, unavailable int) error {
	if len(c.view.Available) != available || len(c.view.Unavailable) != unavailable {
		return fmt.Errorf("expected %d/%d available/unavailable lines, got %d/%d",
			available, unavailable, len(c.view.Available), len(c.view.Unavailable))
	}
	return nil
}

func expectDecimal(what, want string, got decimal.Decimal) error {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !w.Equal(got) {
		return fmt.Errorf("expected %s %s, got %s", what, w, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &reconcileTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart for user "([^"]*)"$`, tc.anEmptyCartForUser)
	ctx.Step(`^the cart holds (\d+) of item "([^"]*)" at "([^"]*)"$`, tc.theCartHolds)
	ctx.Step(`^the menu offers item "([^"]*)" at "([^"]*)"$`, tc.theMenuOffers)
	ctx.Step(`^the menu offers item "([^"]*)" at "([^"]*)" but it is disabled$`, tc.theMenuOffersDisabled)

	// When steps
	ctx.Step(`^the cart is reconciled$`, tc.theCartIsReconciled)

	// Then steps
	ctx.Step(`^item "([^"]*)" has current price "([^"]*)" and is (available|unavailable) (?:and|but) (still exists|no longer exists)$`, tc.itemHasState)
	ctx.Step(`^the total quantity is (\d+)$`, tc.theTotalQuantityIs)
	ctx.Step(`^the total price is "([^"]*)"$`, tc.theTotalPriceIs)
	ctx.Step(`^the available quantity is (\d+)$`, tc.theAvailableQuantityIs)
	ctx.Step(`^the available price is "([^"]*)"$`, tc.theAvailablePriceIs)
	ctx.Step(`^(\d+) lines are available and (\d+) lines are unavailable$`, tc.linesArePartitioned)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
