package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricRaise = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hmi_http_keywords_total",
	Help: "Keyword notifications injected over HTTP",
}, []string{"result"})
