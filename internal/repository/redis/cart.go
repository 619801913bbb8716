package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

const keyPrefix = "cart:"

// CartStore implements repository.CartStore using Redis.
// Each cart is one JSON value at cart:<userID>.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCartStore creates a new Redis-backed cart store. A zero ttl keeps carts
// forever.
func NewCartStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CartStore {
	return &CartStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a cart by user ID from Redis. Unreadable item lines are
// dropped; a value that is not a JSON object reads as an empty cart. Either
// way the version matches what SaveIfVersion compares against, so the next
// save overwrites the damaged value.
func (s *CartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	key := keyPrefix + userID

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	cart, err := repository.UnmarshalCart(userID, data)
	if err != nil {
		s.logger.WarnContext(ctx, "malformed cart record, treating as empty",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		cart = domain.NewCart(userID)
		cart.Version = repository.PeekVersion(data)
	}
	if s.ttl > 0 {
		// Reading a cart keeps it alive for another ttl.
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "refresh cart ttl failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return cart, nil
}

// SaveIfVersion writes the cart inside a WATCH/MULTI transaction so a
// concurrent writer makes the save fail instead of being overwritten.
func (s *CartStore) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	key := keyPrefix + cart.UserID

	next := cart.Clone()
	next.Version = expectedVersion + 1
	payload, err := repository.MarshalCart(next)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}

	saved := false
	txf := func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		saved = true
		return nil
	}

	if err := s.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return false, nil
		}
		return false, fmt.Errorf("redis save cart: %w", err)
	}

	if saved {
		cart.Version = next.Version
	}
	return saved, nil
}

// storedVersion reads the version of the watched key with the same rules as
// Get. A missing key is version 0.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get cart version: %w", err)
	}

	return repository.PeekVersion(data), nil
}
