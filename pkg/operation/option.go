package operation

// Option operation service option
type Option func(*options)

type options struct {
	workers   uint64
	queueSize int64
}

func (opts *options) adjust() {
	if opts.workers == 0 {
		opts.workers = 8
	}

	if opts.queueSize <= 0 {
		opts.queueSize = 1024
	}
}

// WithWorkers set the number of partition workers
func WithWorkers(value uint64) Option {
	return func(opts *options) {
		opts.workers = value
	}
}

// WithQueueSize set the hint size of worker queues
func WithQueueSize(value int64) Option {
	return func(opts *options) {
		opts.queueSize = value
	}
}
