// Package file stores every cart in a single JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository"
	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// CartStore implements repository.CartStore on top of one JSON file shaped
// like {"carts": {"<userID>": {"items": [...]}}}. Each user's entry is
// decoded on its own and rewritten only by that user's saves.
type CartStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewCartStore creates a store backed by path. The file is created on the
// first save.
func NewCartStore(path string, logger *slog.Logger) *CartStore {
	return &CartStore{path: path, logger: logger}
}

// Get retrieves a cart from the document.
func (s *CartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Carts[userID]
	if !ok {
		return nil, apperrors.NotFound("cart", userID)
	}
	cart, err := repository.UnmarshalCart(userID, raw)
	if err != nil {
		s.logger.WarnContext(ctx, "malformed cart entry, treating as empty",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		cart = domain.NewCart(userID)
		cart.Version = repository.PeekVersion(raw)
	}
	return cart, nil
}

// SaveIfVersion replaces the entry of cart.UserID and rewrites the file.
// Other entries are written back without being decoded.
func (s *CartStore) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	current := 0
	if raw, ok := doc.Carts[cart.UserID]; ok {
		current = repository.PeekVersion(raw)
	}
	if current != expectedVersion {
		return false, nil
	}

	next := cart.Clone()
	next.Version = expectedVersion + 1
	entry, err := repository.MarshalCart(next)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}
	doc.Carts[cart.UserID] = entry

	if err := s.write(doc); err != nil {
		return false, err
	}
	cart.Version = next.Version
	return true, nil
}

// load reads the document, leaving every cart entry raw. A missing file or
// one whose top level cannot be parsed is an empty store.
func (s *CartStore) load(ctx context.Context) (*repository.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.NewDocument(), nil
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	doc := repository.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.WarnContext(ctx, "malformed cart file, treating as empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return repository.NewDocument(), nil
	}
	if doc.Carts == nil {
		doc.Carts = map[string]json.RawMessage{}
	}
	return doc, nil
}

// write replaces the file atomically through a temp file and rename.
func (s *CartStore) write(doc *repository.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cart file dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cart file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cart file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cart file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}
