package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionCounter connection lifecycle count
	ConnectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridcore",
			Subsystem: "conn",
			Name:      "total",
			Help:      "Total number of connections opened, failed and closed.",
		}, []string{"status"})

	// SessionGauge active member sessions
	SessionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gridcore",
			Subsystem: "conn",
			Name:      "sessions",
			Help:      "Number of active client sessions on the member.",
		})

	// ReactorFailureCounter failures routed to the reactor failure handler
	ReactorFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridcore",
			Subsystem: "reactor",
			Name:      "failure_total",
			Help:      "Total number of failures escaped from reactor handlers.",
		}, []string{"loop"})
)
