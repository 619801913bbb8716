package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/catalog"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	pkgkafka "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/kafka"
)

// Kafka topics published by the menu service and consumed here.
var (
	TopicMenuItemUpserted        = pkgkafka.Topic("menu", "item_upserted")
	TopicMenuItemDeleted         = pkgkafka.Topic("menu", "item_deleted")
	TopicMenuAvailabilityChanged = pkgkafka.Topic("menu", "availability_changed")
)

// MenuTopics lists every topic the menu consumer subscribes to.
func MenuTopics() []string {
	return []string{
		TopicMenuItemUpserted,
		TopicMenuItemDeleted,
		TopicMenuAvailabilityChanged,
	}
}

// MenuItemDeletedData is the payload of a menu.item_deleted event.
type MenuItemDeletedData struct {
	ID string `json:"id"`
}

// AvailabilityChangedData is the payload of a menu.availability_changed
// event. Both spellings of the flag are accepted.
type AvailabilityChangedData struct {
	ID             string `json:"id"`
	IsAvailable    *bool  `json:"isAvailable"`
	IsAvailableAlt *bool  `json:"is_available"`
}

// MenuCatalog is the write side of the menu catalog.
type MenuCatalog interface {
	Upsert(item domain.MenuItem) *catalog.Snapshot
	Remove(id string) *catalog.Snapshot
	SetAvailability(id string, available bool) bool
}

// MenuConsumer applies menu service events to the local catalog so price and
// availability changes show up before the next full refresh.
type MenuConsumer struct {
	catalog MenuCatalog
	logger  *slog.Logger
}

// NewMenuConsumer creates a new menu event consumer.
func NewMenuConsumer(catalog MenuCatalog, logger *slog.Logger) *MenuConsumer {
	return &MenuConsumer{
		catalog: catalog,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *MenuConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicMenuItemUpserted:
		return c.handleItemUpserted(ctx, event)
	case TopicMenuItemDeleted:
		return c.handleItemDeleted(ctx, event)
	case TopicMenuAvailabilityChanged:
		return c.handleAvailabilityChanged(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *MenuConsumer) handleItemUpserted(ctx context.Context, event *pkgkafka.Event) error {
	item, err := catalog.DecodeItem(event.Data)
	if err != nil {
		return fmt.Errorf("unmarshal menu.item_upserted data: %w", err)
	}

	snap := c.catalog.Upsert(item)

	c.logger.InfoContext(ctx, "menu item upserted",
		slog.String("item_id", item.ID),
		slog.String("price", item.Price.String()),
		slog.Bool("is_available", item.IsAvailable),
		slog.Int("catalog_size", snap.Len()),
	)
	return nil
}

func (c *MenuConsumer) handleItemDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data MenuItemDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal menu.item_deleted data: %w", err)
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	snap := c.catalog.Remove(data.ID)

	c.logger.InfoContext(ctx, "menu item withdrawn",
		slog.String("item_id", data.ID),
		slog.Int("catalog_size", snap.Len()),
	)
	return nil
}

func (c *MenuConsumer) handleAvailabilityChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data AvailabilityChangedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal menu.availability_changed data: %w", err)
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	var available bool
	switch {
	case data.IsAvailable != nil:
		available = *data.IsAvailable
	case data.IsAvailableAlt != nil:
		available = *data.IsAvailableAlt
	default:
		return fmt.Errorf("menu.availability_changed for %s carries no availability flag", data.ID)
	}

	if !c.catalog.SetAvailability(data.ID, available) {
		// The item will arrive with the next full refresh.
		c.logger.DebugContext(ctx, "availability change for unknown menu item",
			slog.String("item_id", data.ID),
		)
		return nil
	}

	c.logger.InfoContext(ctx, "menu item availability changed",
		slog.String("item_id", data.ID),
		slog.Bool("is_available", available),
	)
	return nil
}
