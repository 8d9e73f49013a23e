package flow

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omni/interchain-tracker/entity"
)

var StepResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tracker",
	Subsystem: "flow",
	Name:      "step_results_total",
}, []string{"kind", "step", "result"})

func ObserveStep(kind entity.MessageKind, step StepID, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUserRejected):
		result = "rejected"
	case errors.Is(err, ErrSimulationFailed):
		result = "simulation_failed"
	case errors.Is(err, ErrTransactionReverted):
		result = "reverted"
	default:
		result = "error"
	}
	StepResults.WithLabelValues(string(kind), string(step), result).Inc()
}
