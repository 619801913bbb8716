package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/database"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// DBTX is the part of a pgx pool used by the store. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	getCartQuery = `
		SELECT items, version, updated_at
		FROM carts
		WHERE user_id = $1`

	insertCartQuery = `
		INSERT INTO carts (user_id, items, version, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	updateCartQuery = `
		UPDATE carts
		SET items = $2, version = $3, updated_at = $4
		WHERE user_id = $1 AND version = $5`
)

// CartStore implements repository.CartStore using PostgreSQL. Line items
// live in a JSONB column in the same shape as the other backends.
type CartStore struct {
	db     DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewCartStore creates a new PostgreSQL-backed cart store.
func NewCartStore(db DBTX, logger *slog.Logger) *CartStore {
	return &CartStore{db: db, logger: logger, now: time.Now}
}

// Get retrieves a cart by user ID.
func (s *CartStore) Get(ctx context.Context, userID string) (cart *domain.Cart, err error) {
	ctx, end := database.TraceQuery(ctx, "GetCart", getCartQuery)
	defer func() { end(err) }()

	var (
		itemsJSON []byte
		version   int
		updatedAt time.Time
	)
	err = s.db.QueryRow(ctx, getCartQuery, userID).Scan(&itemsJSON, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("query cart: %w", err)
	}

	cart = domain.NewCart(userID)
	var derr error
	if cart.Items, derr = repository.DecodeRawItems(itemsJSON); derr != nil {
		s.logger.WarnContext(ctx, "malformed cart items, treating as empty",
			slog.String("user_id", userID),
			slog.String("error", derr.Error()),
		)
	}
	cart.Version = version
	cart.UpdatedAt = updatedAt.UTC()
	return cart, nil
}

// SaveIfVersion inserts the first version of a cart or updates the row only
// while its version still matches.
func (s *CartStore) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (saved bool, err error) {
	itemsJSON, err := json.Marshal(repository.EncodeItems(cart.Items))
	if err != nil {
		return false, fmt.Errorf("marshal cart items: %w", err)
	}

	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	updatedAt = updatedAt.UTC()
	nextVersion := expectedVersion + 1

	var tag pgconn.CommandTag
	if expectedVersion == 0 {
		qctx, end := database.TraceQuery(ctx, "InsertCart", insertCartQuery)
		tag, err = s.db.Exec(qctx, insertCartQuery, cart.UserID, itemsJSON, nextVersion, updatedAt)
		end(err)
		if err != nil {
			return false, fmt.Errorf("insert cart: %w", err)
		}
	} else {
		qctx, end := database.TraceQuery(ctx, "UpdateCart", updateCartQuery)
		tag, err = s.db.Exec(qctx, updateCartQuery, cart.UserID, itemsJSON, nextVersion, updatedAt, expectedVersion)
		end(err)
		if err != nil {
			return false, fmt.Errorf("update cart: %w", err)
		}
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}
	cart.Version = nextVersion
	return true, nil
}
