package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omni/interchain-tracker/entity"
)

var (
	TrackedMessages = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tracker",
		Subsystem: "ledger",
		Name:      "tracked_messages",
	}, []string{"status"})

	SaveResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "ledger",
		Name:      "save_results_total",
	}, []string{"status"})
)

func observeHistory(history []*entity.TrackedMessage) {
	counts := map[entity.MessageStatus]int{
		entity.MessageStatusPending:   0,
		entity.MessageStatusDelivered: 0,
		entity.MessageStatusFailed:    0,
	}
	for _, msg := range history {
		counts[msg.Status]++
	}
	for status, n := range counts {
		TrackedMessages.WithLabelValues(string(status)).Set(float64(n))
	}
}

func observeSave(err error) {
	if err != nil {
		SaveResults.WithLabelValues("error").Inc()
	} else {
		SaveResults.WithLabelValues("ok").Inc()
	}
}
