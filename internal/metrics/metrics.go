package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_search_responses_total",
			Help: "Total number of search responses by response type",
		},
		[]string{"type"},
	)

	SearchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_search_errors_total",
			Help: "Total number of failed searches by error kind",
		},
		[]string{"kind"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "property_search_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"stage"},
	)

	ListingsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "property_search_listings_returned",
			Help:    "Number of listings returned per property search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	AssistantPolls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_run_polls",
			Help:    "Number of status polls before an assistant run finished",
			Buckets: prometheus.LinearBuckets(1, 5, 8),
		},
	)
)
