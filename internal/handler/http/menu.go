package http

import (
	"net/http"
	"time"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/catalog"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/httputil"
)

// MenuReader exposes the current menu snapshot.
type MenuReader interface {
	Menu() *catalog.Snapshot
}

// MenuResponse is the body of GET /api/v1/menu.
type MenuResponse struct {
	Items          []domain.MenuItem `json:"items"`
	Count          int               `json:"count"`
	AvailableCount int               `json:"available_count"`
	LoadedAt       *time.Time        `json:"loaded_at,omitempty"`
}

// MenuHandler serves the menu snapshot carts are reconciled against.
type MenuHandler struct {
	menu MenuReader
}

// NewMenuHandler creates a new menu HTTP handler.
func NewMenuHandler(menu MenuReader) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// GetMenu handles GET /api/v1/menu
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	snap := h.menu.Menu()

	resp := MenuResponse{
		Items:          snap.Items(),
		Count:          snap.Len(),
		AvailableCount: snap.AvailableCount(),
	}
	if at := snap.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = &at
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}
