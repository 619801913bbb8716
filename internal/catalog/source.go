package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/httpclient"
)

// Source fetches the full menu from wherever it lives.
type Source interface {
	Fetch(ctx context.Context) ([]domain.MenuItem, error)
}

// Doer is the subset of the HTTP clients in pkg/httpclient used here.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

const menuServiceName = "menu-service"

// HTTPSource loads the menu from the menu service's REST API.
type HTTPSource struct {
	client  Doer
	baseURL string
}

// NewHTTPSource creates a source reading {baseURL}/api/v1/menu.
func NewHTTPSource(client Doer, baseURL string) *HTTPSource {
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// menuItemPayload accepts both the camelCase shape of the public menu API
// and the snake_case shape used by the back office.
type menuItemPayload struct {
	ID             string          `json:"id"`
	LegacyID       string          `json:"_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	IsAvailable    *bool           `json:"isAvailable"`
	IsAvailableAlt *bool           `json:"is_available"`
}

func (p menuItemPayload) toDomain() domain.MenuItem {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}
	available := true
	switch {
	case p.IsAvailable != nil:
		available = *p.IsAvailable
	case p.IsAvailableAlt != nil:
		available = *p.IsAvailableAlt
	}
	return domain.MenuItem{
		ID:          id,
		Name:        p.Name,
		Price:       p.Price,
		IsAvailable: available,
	}
}

// Fetch retrieves the whole menu. Entries without an ID are dropped.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.MenuItem, error) {
	resp, err := s.client.Get(ctx, s.baseURL+"/api/v1/menu")
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.StatusError(resp, menuServiceName)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read menu body: %w", err)
	}

	payloads, err := decodeMenu(body)
	if err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}

	items := make([]domain.MenuItem, 0, len(payloads))
	for _, p := range payloads {
		item := p.toDomain()
		if item.ID == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// DecodeItem parses a single menu item in any of the accepted shapes.
func DecodeItem(data []byte) (domain.MenuItem, error) {
	var p menuItemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.MenuItem{}, err
	}
	item := p.toDomain()
	if item.ID == "" {
		return domain.MenuItem{}, errors.New("menu item without id")
	}
	return item, nil
}

// decodeMenu accepts either a bare JSON array or the {"data": [...]} envelope.
func decodeMenu(body []byte) ([]menuItemPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []menuItemPayload
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Data []menuItemPayload `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
