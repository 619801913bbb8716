package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_client_breaker_state",
		Help: "Circuit breaker state per downstream (0=closed, 1=half-open, 2=open)",
	},
	[]string{"downstream"},
)

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = gobreaker.ErrOpenState

// BreakerConfig controls when a downstream is considered broken.
type BreakerConfig struct {
	Name string
	// MaxRequests is how many trial requests pass while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counters; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// The breaker trips once at least MinRequests were made and the share
	// of failures reaches FailureRatio.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig suits a downstream polled about once a minute.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     5 * time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// BreakerClient guards a Client with a circuit breaker. Transport errors and
// 5xx responses count as failures.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerClient wraps client.
func NewBreakerClient(client *Client, cfg BreakerConfig, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("downstream", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Get fetches url through the breaker. A 5xx response is turned into an
// error built by StatusError so the body is never leaked.
func (b *BreakerClient) Get(ctx context.Context, url string) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.client.Get(ctx, url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, StatusError(resp, b.cb.Name())
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.cb.Name(), err)
	}
	return resp, nil
}

// State reports the breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
