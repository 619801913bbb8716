package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicPrefix namespaces every RestOh topic.
const TopicPrefix = "restoh"

// Topic returns restoh.<domain>.<action>.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}

// maxHandlerRetries bounds the attempts at one message before it is
// dead-lettered and committed.
const maxHandlerRetries = 3

// Handler applies one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig configures one topic subscription.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
	// DLQ is optional; without it exhausted messages are only logged.
	DLQ *DLQProducer
}

// Consumer reads one topic in a consumer group and commits each message
// after it was handled or given up on.
type Consumer struct {
	reader    *kafka.Reader
	topic     string
	group     string
	dlq       *DLQProducer
	logger    *slog.Logger
	handler   Handler
	backoff   time.Duration
	closeOnce sync.Once
}

func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		}),
		topic:   cfg.Topic,
		group:   cfg.GroupID,
		dlq:     cfg.DLQ,
		logger:  logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
		handler: handler,
		backoff: 100 * time.Millisecond,
	}
}

// Start consumes until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return c.Close()
			}
			c.logger.Error("fetch message failed", slog.String("error", err.Error()))
			continue
		}
		if err := c.process(ctx, msg); err != nil && ctx.Err() != nil {
			return c.Close()
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process runs the handler with linear backoff between attempts. Only a
// canceled context is returned as an error the caller must not commit past.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = extractTraceContext(ctx, &msg)
	log := c.logger.With(slog.Int("partition", msg.Partition), slog.Int64("offset", msg.Offset))

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		consumerMessages.WithLabelValues(msg.Topic, c.group, resultUndecodable).Inc()
		log.ErrorContext(ctx, "undecodable message", slog.String("error", err.Error()))
		c.deadLetter(ctx, msg, err)
		return nil
	}
	log = log.With(slog.String("event_type", event.EventType), slog.String("aggregate_id", event.AggregateID))

	start := time.Now()
	defer func() {
		consumerDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		err = c.handler(ctx, event)
		if err == nil {
			consumerMessages.WithLabelValues(msg.Topic, c.group, resultProcessed).Inc()
			return nil
		}
		if attempt == maxHandlerRetries {
			break
		}
		log.WarnContext(ctx, "handler failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}

	consumerMessages.WithLabelValues(msg.Topic, c.group, resultFailed).Inc()
	log.ErrorContext(ctx, "giving up on message",
		slog.Int("attempts", maxHandlerRetries),
		slog.String("error", err.Error()),
	)
	c.deadLetter(ctx, msg, err)
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err == nil {
		consumerMessages.WithLabelValues(msg.Topic, c.group, resultDeadLettered).Inc()
	}
}

// Close releases the reader. Repeated calls return nil.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.reader != nil {
			err = c.reader.Close()
		}
	})
	return err
}
