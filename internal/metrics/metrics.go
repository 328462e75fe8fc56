package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secdash_fetch_cycles_total",
			Help: "Dashboard fetch cycles by record kind and result",
		},
		[]string{"kind", "result"},
	)

	RecordsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secdash_records_classified_total",
			Help: "Records classified by kind and severity band",
		},
		[]string{"kind", "band"},
	)

	AssistantRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secdash_assistant_runs_total",
			Help: "Assistant summarization runs by outcome",
		},
		[]string{"outcome"},
	)

	AssistantRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "secdash_assistant_run_duration_seconds",
			Help:    "Wall-clock duration of assistant summarization runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secdash_http_request_duration_seconds",
			Help:    "API request duration by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
