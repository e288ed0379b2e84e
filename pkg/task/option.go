package task

import (
	"time"
)

// Option dispatcher option
type Option func(*options)

type options struct {
	executors          int
	queueSize          int64
	fanoutTimeout      time.Duration
	redispatchAttempts uint64
	redispatchInitial  time.Duration
	redispatchMax      time.Duration
	authorizer         Authorizer
}

func (opts *options) adjust() {
	if opts.executors <= 0 {
		opts.executors = 16
	}

	if opts.queueSize <= 0 {
		opts.queueSize = 1024
	}

	if opts.fanoutTimeout <= 0 {
		opts.fanoutTimeout = time.Second * 30
	}

	if opts.redispatchAttempts == 0 {
		opts.redispatchAttempts = 5
	}

	if opts.redispatchInitial <= 0 {
		opts.redispatchInitial = time.Millisecond * 50
	}

	if opts.redispatchMax <= 0 {
		opts.redispatchMax = time.Second
	}

	if opts.authorizer == nil {
		opts.authorizer = allowAll{}
	}
}

// WithExecutors set the number of task executors
func WithExecutors(value int) Option {
	return func(opts *options) {
		opts.executors = value
	}
}

// WithQueueSize set the hint size of the task queue
func WithQueueSize(value int64) Option {
	return func(opts *options) {
		opts.queueSize = value
	}
}

// WithFanoutTimeout set the max duration of one dispatch
func WithFanoutTimeout(value time.Duration) Option {
	return func(opts *options) {
		opts.fanoutTimeout = value
	}
}

// WithRedispatch set the re-dispatch attempts and the backoff bounds used
// when partition ownership changed
func WithRedispatch(attempts uint64, initial, max time.Duration) Option {
	return func(opts *options) {
		opts.redispatchAttempts = attempts
		opts.redispatchInitial = initial
		opts.redispatchMax = max
	}
}

// WithAuthorizer set the authorizer
func WithAuthorizer(value Authorizer) Option {
	return func(opts *options) {
		opts.authorizer = value
	}
}
