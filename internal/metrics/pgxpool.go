package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes the registry database pool statistics as
// Prometheus gauges.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "domains_db_pool_acquired_conns",
			Help: "Number of currently acquired connections in the registry pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "domains_db_pool_max_conns",
			Help: "Maximum number of connections in the registry pool",
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "domains_db_pool_total_conns",
			Help: "Total number of connections in the registry pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "domains_db_pool_idle_conns",
			Help: "Number of idle connections in the registry pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "domains_db_pool_empty_acquire_total",
			Help: "Cumulative count of acquires that waited for a connection",
		}, func() float64 {
			return float64(pool.Stat().EmptyAcquireCount())
		}),
	)
}
