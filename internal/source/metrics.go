package source

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_source_starts_total",
		Help: "Keyword source process starts",
	})
	metricLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_source_lines_total",
		Help: "Keyword source output lines by result",
	}, []string{"result"})
)
