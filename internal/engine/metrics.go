package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salarymap_recompute_duration_seconds",
		Help:    "Duration of one filter recompute pass",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	filteredRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salarymap_filtered_records",
		Help:    "Number of salary records matched by a recompute",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	filterUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salarymap_filter_updates_total",
		Help: "Total number of filter controller updates",
	})

	loadedRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "salarymap_loaded_records",
		Help: "Rows held by the loaded dataset",
	}, []string{"kind"})

	skippedRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salarymap_loader_skipped_rows_total",
		Help: "Salary rows skipped for missing or malformed fields",
	})
)
