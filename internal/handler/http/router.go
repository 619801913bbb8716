package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/service"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/health"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/middleware"
)

// menuCacheSeconds bounds how long clients may cache the menu listing.
const menuCacheSeconds = 5

// RouterConfig holds the non-service inputs of the router.
type RouterConfig struct {
	PprofCIDRs []string
	CORS       middleware.CORSConfig
}

// NewRouter creates a chi router with all cart service routes registered.
func NewRouter(
	cartService *service.CartService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cartService, logger)
	menuHandler := NewMenuHandler(cartService)

	r.With(CacheControl(menuCacheSeconds)).Get("/api/v1/menu", menuHandler.GetMenu)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireUserID)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)

		r.Post("/items", cartHandler.AddItem)
		r.Get("/items/{itemId}", cartHandler.GetItem)
		r.Put("/items/{itemId}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{itemId}", cartHandler.RemoveItem)
		r.Post("/items/{itemId}/increment", cartHandler.IncrementItem)
		r.Post("/items/{itemId}/decrement", cartHandler.DecrementItem)
	})

	return r
}
