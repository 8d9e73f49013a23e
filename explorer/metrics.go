package explorer

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "explorer",
		Name:      "request_results_total",
	}, []string{"status"})

	RequestDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tracker",
		Subsystem: "explorer",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
	}, []string{})
)

func ObserveError(err error) {
	switch {
	case err == nil:
		RequestResults.WithLabelValues("ok").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		RequestResults.WithLabelValues("timeout").Inc()
	case errors.Is(err, ErrBadStatus):
		RequestResults.WithLabelValues("bad_status").Inc()
	default:
		RequestResults.WithLabelValues("error").Inc()
	}
}

func ObserveDuration() func() time.Duration {
	return prometheus.NewTimer(RequestDurations.WithLabelValues()).ObserveDuration
}
