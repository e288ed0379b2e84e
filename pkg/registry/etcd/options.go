package etcd

import (
	"time"
)

// Option option
type Option func(*options)

type options struct {
	leaseTTL      int64
	group         string
	retryInterval time.Duration
}

func (opts *options) adjust() {
	if opts.leaseTTL <= 0 {
		opts.leaseTTL = 10
	}

	if opts.group == "" {
		opts.group = "default"
	}

	if opts.retryInterval <= 0 {
		opts.retryInterval = time.Second * 10
	}
}

// WithLease set lease ttl of the member key, unit is seconds
func WithLease(value int64) Option {
	return func(opts *options) {
		opts.leaseTTL = value
	}
}

// WithGroup set the grid group, members of the same grid use the same group
func WithGroup(value string) Option {
	return func(opts *options) {
		opts.group = value
	}
}

// WithRetryInterval set the interval to register again after the lease is lost
func WithRetryInterval(value time.Duration) Option {
	return func(opts *options) {
		opts.retryInterval = value
	}
}
