package workerws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricKeywords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_ws_keywords_total",
		Help: "Keyword notifications received from websocket producers",
	}, []string{"result"})

	metricDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hmi_ws_command_drops_total",
		Help: "Commands dropped because the observer queue was full",
	})

	gaugeClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hmi_ws_clients",
		Help: "Connected websocket clients by role",
	}, []string{"role"})
)
