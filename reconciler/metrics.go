package reconciler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "reconciler",
		Name:      "check_results_total",
	}, []string{"mode", "result"})

	CheckDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tracker",
		Subsystem: "reconciler",
		Name:      "check_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
	}, []string{"mode"})

	PendingMessages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tracker",
		Subsystem: "reconciler",
		Name:      "pending_messages",
	})
)

func ObserveCheck(mode, result string) {
	CheckResults.WithLabelValues(mode, result).Inc()
}

func ObserveDuration(mode string) func() time.Duration {
	return prometheus.NewTimer(CheckDurations.WithLabelValues(mode)).ObserveDuration
}
