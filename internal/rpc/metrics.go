package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricKeywords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hmi_rpc_keywords_total",
	Help: "Keyword notifications received over gRPC",
}, []string{"method", "result"})
