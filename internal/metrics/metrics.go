package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecomputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recomputations_total",
			Help: "Total number of round and event recomputations",
		},
		[]string{"kind", "outcome"},
	)

	RecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recompute_duration_seconds",
			Help:    "Recomputation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	EvaluationsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluations_scored_total",
			Help: "Total number of participant evaluations scored",
		},
	)

	EvaluationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_score",
			Help:    "Distribution of participant evaluation scores",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
