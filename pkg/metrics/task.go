package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TaskCounter message task count
	TaskCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridcore",
			Subsystem: "task",
			Name:      "total",
			Help:      "Total number of message tasks processed.",
		}, []string{"method", "status"})

	// TaskDurationHistogram message task duration
	TaskDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gridcore",
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of message task processing duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		}, []string{"method"})

	// FanoutDurationHistogram all partitions fan-out duration
	FanoutDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gridcore",
			Subsystem: "task",
			Name:      "fanout_duration_seconds",
			Help:      "Bucketed histogram of all partitions fan-out duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		})

	// RedispatchCounter partitions re-dispatched after ownership changed
	RedispatchCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gridcore",
			Subsystem: "task",
			Name:      "redispatch_total",
			Help:      "Total number of partition operations re-dispatched.",
		})

	// OperationQueueGauge pending partition operations
	OperationQueueGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gridcore",
			Subsystem: "operation",
			Name:      "queue_size",
			Help:      "Number of pending partition operations per worker.",
		}, []string{"worker"})
)
