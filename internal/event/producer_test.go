package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	pkgkafka "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/kafka"
)

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleCart() *domain.Cart {
	c := domain.NewCart("user-1")
	c.Items = []domain.LineItem{
		{ItemID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ItemID: "3", Name: "Tiramisu", UnitPrice: decimal.RequireFromString("6.50"), Quantity: 1},
	}
	c.Version = 4
	return c
}

func TestPublishCartUpdated(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "EUR", newTestLogger())
	ctx := context.Background()

	var published *pkgkafka.Event
	pub.On("Publish", ctx, "restoh.cart.updated", mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	require.NoError(t, p.PublishCartUpdated(ctx, sampleCart()))
	require.NotNil(t, published)

	assert.Equal(t, TopicCartUpdated, published.EventType)
	assert.Equal(t, "user-1", published.AggregateID)
	assert.Equal(t, AggregateTypeCart, published.AggregateType)
	assert.Equal(t, SourceCartService, published.Source)
	assert.Equal(t, 4, published.Version)

	var data CartUpdatedData
	require.NoError(t, published.UnmarshalData(&data))
	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, 3, data.ItemCount)
	assert.True(t, decimal.RequireFromString("26.50").Equal(data.TotalAmount))
	assert.Equal(t, "EUR", data.Currency)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "3", data.Items[1].ItemID)

	pub.AssertExpectations(t)
}

func TestPublishCartUpdated_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "EUR", newTestLogger())
	ctx := context.Background()

	pub.On("Publish", ctx, TopicCartUpdated, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishCartUpdated(ctx, sampleCart())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish cart.updated event")
}

func TestPublishCartCleared(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "EUR", newTestLogger())
	ctx := context.Background()

	pub.On("Publish", ctx, "restoh.cart.cleared", mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data CartClearedData
		return e.UnmarshalData(&data) == nil && data.UserID == "user-1"
	})).Return(nil)

	require.NoError(t, p.PublishCartCleared(ctx, "user-1"))
	pub.AssertExpectations(t)
}

func TestProducer_NilPublisherIsNoop(t *testing.T) {
	p := NewProducer(nil, "EUR", newTestLogger())

	assert.NoError(t, p.PublishCartUpdated(context.Background(), sampleCart()))
	assert.NoError(t, p.PublishCartCleared(context.Background(), "user-1"))
}
