package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	menuItemsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "menu_catalog_items",
		Help: "Number of menu items in the current catalog snapshot",
	})

	menuItemsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "menu_catalog_items_available",
		Help: "Number of menu items currently marked available",
	})

	menuSnapshotTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "menu_catalog_snapshot_timestamp_seconds",
		Help: "Unix time at which the current catalog snapshot was produced",
	})

	menuRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_catalog_refresh_total",
			Help: "Total number of catalog refresh attempts by result",
		},
		[]string{"result"},
	)
)

func observeSnapshot(s *Snapshot) {
	menuItemsTotal.Set(float64(s.Len()))
	menuItemsAvailable.Set(float64(s.AvailableCount()))
	menuSnapshotTimestamp.Set(float64(s.LoadedAt().Unix()))
}
