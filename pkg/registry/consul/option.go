package consul

import (
	"time"
)

// Option option
type Option func(*options)

type options struct {
	group         string
	checkInterval time.Duration
	checkTimeout  time.Duration
}

func (opts *options) adjust() {
	if opts.group == "" {
		opts.group = "default"
	}

	if opts.checkInterval <= 0 {
		opts.checkInterval = time.Second * 5
	}

	if opts.checkTimeout <= 0 {
		opts.checkTimeout = time.Second * 5
	}
}

// WithGroup set the grid group, the service name is derived from the group
func WithGroup(value string) Option {
	return func(opts *options) {
		opts.group = value
	}
}

// WithCheck set the tcp health check interval and timeout
func WithCheck(interval, timeout time.Duration) Option {
	return func(opts *options) {
		opts.checkInterval = interval
		opts.checkTimeout = timeout
	}
}
