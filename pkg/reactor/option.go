package reactor

import (
	"time"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/metrics"
)

// FailureHandler handles a failure escaped from a task or a event handler
type FailureHandler func(loop string, err error)

// Option reactor option
type Option func(*options)

type options struct {
	loops          int
	selectTimeout  time.Duration
	queueSize      int64
	eventsSize     int
	maxFailures    uint64
	failureHandler FailureHandler
}

func (opts *options) adjust() {
	if opts.loops <= 0 {
		opts.loops = 1
	}

	if opts.selectTimeout <= 0 {
		opts.selectTimeout = time.Millisecond * 100
	}

	if opts.queueSize <= 0 {
		opts.queueSize = 1024
	}

	if opts.eventsSize <= 0 {
		opts.eventsSize = 1024
	}

	if opts.maxFailures == 0 {
		opts.maxFailures = 16
	}

	if opts.failureHandler == nil {
		opts.failureHandler = logFailure
	}
}

// WithLoops set the number of event loops
func WithLoops(value int) Option {
	return func(opts *options) {
		opts.loops = value
	}
}

// WithSelectTimeout set the max duration of one blocking wait
func WithSelectTimeout(value time.Duration) Option {
	return func(opts *options) {
		opts.selectTimeout = value
	}
}

// WithQueueSize set the hint size of the task queue
func WithQueueSize(value int64) Option {
	return func(opts *options) {
		opts.queueSize = value
	}
}

// WithEventsSize set the size of the readiness events channel
func WithEventsSize(value int) Option {
	return func(opts *options) {
		opts.eventsSize = value
	}
}

// WithMaxFailures set the consecutive failures after which the loop is unhealthy
func WithMaxFailures(value uint64) Option {
	return func(opts *options) {
		opts.maxFailures = value
	}
}

// WithFailureHandler set the failure handler
func WithFailureHandler(value FailureHandler) Option {
	return func(opts *options) {
		opts.failureHandler = value
	}
}

func logFailure(loop string, err error) {
	metrics.ReactorFailureCounter.WithLabelValues(loop).Inc()
	log.Errorf("[%s]: handle failed with %+v", loop, err)
}
