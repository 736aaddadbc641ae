package actuator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_sink_writes_total",
		Help: "Output commands applied by sink",
	}, []string{"sink", "object", "state"})

	metricErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_sink_errors_total",
		Help: "Output commands a sink failed to apply",
	}, []string{"sink"})
)
