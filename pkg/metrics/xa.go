package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// XACounter branch actions count
	XACounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridcore",
			Subsystem: "xa",
			Name:      "action_total",
			Help:      "Total number of transaction branch actions made.",
		}, []string{"action", "status"})

	// XAActiveGauge active branches
	XAActiveGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gridcore",
			Subsystem: "xa",
			Name:      "active_branches",
			Help:      "Number of transaction branches not yet completed.",
		})

	// XADurationHistogram branch duration from start to complete
	XADurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gridcore",
			Subsystem: "xa",
			Name:      "branch_duration_seconds",
			Help:      "Bucketed histogram of transaction branch duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		})
)
