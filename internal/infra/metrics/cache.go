package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planCacheLookups) }

var planCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "swapscribe_plan_cache_lookups_total",
		Help: "Plan catalog lookups served from redis (hit) or loaded from postgres (miss).",
	},
	[]string{"key", "result"},
)

// IncCacheRequest counts one plan cache lookup. key is "plan" or "plan_slug".
func IncCacheRequest(key, result string) {
	planCacheLookups.WithLabelValues(norm(key), norm(result)).Inc()
}
