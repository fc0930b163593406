package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "scanq"

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of submissions received, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	SubmissionSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_size_bytes",
			Help:      "Size distribution of accepted submissions (bytes).",
			Buckets:   []float64{1_000, 10_000, 100_000, 1_000_000, 10_000_000, 50_000_000, 100_000_000, 500_000_000},
		},
	)

	SubmitLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_latency_seconds",
			Help:      "Latency of the submit pipeline from parse to enqueue (seconds).",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	SeedsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeds_issued_total",
			Help:      "Total number of shareable result seeds issued.",
		},
	)

	TaskViewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_views_total",
			Help:      "Total number of task result views, labeled by access kind.",
		},
		[]string{"access"},
	)

	TasksCleanedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_cleaned_total",
			Help:      "Total number of expired task records removed by cleanup.",
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests denied by the rate limiter.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		SubmissionSizeBytes,
		SubmitLatencySeconds,
		SeedsIssuedTotal,
		TaskViewsTotal,
		TasksCleanedTotal,
		RateLimitHitsTotal,
	)
}
