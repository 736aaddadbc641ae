package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_notifications_total",
		Help: "Keyword notifications received by the resolver",
	})

	metricConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_confirmations_total",
		Help: "Debounce confirmations by kind (keyword, unknown)",
	}, []string{"kind"})

	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_state_transitions_total",
		Help: "Intent grammar state transitions",
	}, []string{"from", "to"})

	metricMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_mismatches_total",
		Help: "Utterances discarded because the second half did not fit",
	})

	metricUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_unresolved_total",
		Help: "Completed utterances with no mapped command",
	})

	metricUnknownResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_unknown_resets_total",
		Help: "Intent resets forced by runs of unknown keywords",
	})

	metricDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_dispatch_total",
		Help: "Actuation commands dispatched",
	}, []string{"object", "state"})
)
