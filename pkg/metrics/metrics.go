package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.Register(ConnectionCounter)
	prometheus.Register(SessionGauge)
	prometheus.Register(ReactorFailureCounter)

	prometheus.Register(TaskCounter)
	prometheus.Register(TaskDurationHistogram)
	prometheus.Register(FanoutDurationHistogram)
	prometheus.Register(RedispatchCounter)
	prometheus.Register(OperationQueueGauge)

	prometheus.Register(XACounter)
	prometheus.Register(XAActiveGauge)
	prometheus.Register(XADurationHistogram)
}
