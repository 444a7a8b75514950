package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	SearchesStarted prometheus.Counter
	ProviderStarts  prometheus.Counter
	CacheHits       prometheus.Counter
	PollsTotal      prometheus.Counter
	FlightsMerged   prometheus.Counter
	StallsTotal     prometheus.Counter
	SearchDuration  prometheus.Histogram
	ErrorsCount     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "The total number of top-level multi-leg searches started",
		}),
		ProviderStarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_starts_total",
			Help:      "The total number of search jobs started upstream",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "The total number of legs served from the result cache",
		}),
		PollsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "The total number of incremental poll fetches",
		}),
		FlightsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_merged_total",
			Help:      "The total number of new flight records merged",
		}),
		StallsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stalled_searches_total",
			Help:      "The total number of searches terminated for lack of progress",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_search_duration_seconds",
			Help:      "Time from job start to a terminal section state",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
