package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterPoolMetrics exports the pool gauges of the carts database. Call it
// once per pool.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	labels := prometheus.Labels{"service": service}
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: labels},
			func() float64 { return value(pool.Stat()) })
	}
	gauge("db_pool_acquired_connections", "Connections in use",
		func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) })
	gauge("db_pool_idle_connections", "Idle connections",
		func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) })
	gauge("db_pool_max_connections", "Pool size limit",
		func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name:        "db_pool_empty_acquire_total",
		Help:        "Acquires that waited for a free connection",
		ConstLabels: labels,
	}, func() float64 { return float64(pool.Stat().EmptyAcquireCount()) })
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name:        "db_pool_acquire_duration_seconds_total",
		Help:        "Time spent waiting for connections",
		ConstLabels: labels,
	}, func() float64 { return pool.Stat().AcquireDuration().Seconds() })
}
