package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "propsearch"

// Extraction metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of constraint extraction calls",
		},
		[]string{"provider", "status"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total tokens consumed by constraint extraction",
		},
		[]string{"provider", "type"},
	)

	LLMSpendUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "llm_spend_usd",
			Help:      "Cumulative extraction spend in USD since process start",
		},
	)

	GuardRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_rejections_total",
			Help:      "Queries rejected as not real-estate before any model call",
		},
	)
)

// Places and geocoding metrics.
var (
	PlacesLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_lookups_total",
			Help:      "Total nearby-places lookups",
		},
		[]string{"status"},
	)

	PlacesLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "places_lookup_duration_seconds",
			Help:      "Nearby-places lookup duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	NormalizationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalization_failures_total",
			Help:      "Normalization failures absorbed into empty constraints",
		},
		[]string{"kind"}, // "decode" / "panic"
	)
)

var registered bool

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		LLMRequestsTotal,
		LLMTokensTotal,
		LLMSpendUSD,
		GuardRejectionsTotal,
		PlacesLookupsTotal,
		PlacesLookupDuration,
		GeocodeCacheTotal,
		NormalizationFailuresTotal,
		httpRequestDuration,
		httpRequestsTotal,
	)
	registered = true
}
