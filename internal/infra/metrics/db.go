package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns) }

// dbPoolConns mirrors pgxpool.Stat, sampled by postgres.ReportPoolStats.
var dbPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "swapscribe_db_pool_connections",
		Help: "Postgres connections held by the invoice store pool, by state.",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, inUse int32) {
	for state, n := range map[string]int32{"total": total, "idle": idle, "acquired": inUse} {
		dbPoolConns.WithLabelValues(state).Set(float64(n))
	}
}
