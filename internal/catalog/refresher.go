package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically reloads the whole menu from a Source.
type Refresher struct {
	catalog  *Catalog
	source   Source
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a refresher. interval must be positive.
func NewRefresher(catalog *Catalog, source Source, interval time.Duration, logger *slog.Logger) *Refresher {
	timeout := interval
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	return &Refresher{
		catalog:  catalog,
		source:   source,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Refresh performs a single load. On failure the previous snapshot stays.
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	items, err := r.source.Fetch(ctx)
	if err != nil {
		menuRefreshTotal.WithLabelValues("error").Inc()
		return err
	}

	s := r.catalog.Replace(items)
	menuRefreshTotal.WithLabelValues("success").Inc()
	r.logger.DebugContext(ctx, "menu catalog refreshed",
		slog.Int("items", s.Len()),
		slog.Int("available", s.AvailableCount()),
	)
	return nil
}

// Run loads the menu once and then on every tick until ctx is canceled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("menu refresher started", slog.Duration("interval", r.interval))

	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("initial menu load failed, serving empty catalog until next refresh",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("menu refresher stopping")
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Warn("menu refresh failed, keeping previous snapshot",
					slog.String("error", err.Error()),
					slog.Time("snapshot_loaded_at", r.catalog.Current().LoadedAt()),
				)
			}
		}
	}
}
