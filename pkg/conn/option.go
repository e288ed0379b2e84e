package conn

import (
	"time"
)

const (
	defaultConnectTimeout = time.Millisecond * 3000
	defaultLinger         = time.Second * 5
	defaultBufferSize     = 16 << 10
)

// Option connection option
type Option func(*options)

type options struct {
	connectTimeout    time.Duration
	linger            time.Duration
	sendBufferSize    int
	receiveBufferSize int
	streamBufferSize  int
	keepAlive         bool
	keepAliveSet      bool
}

func (opts *options) adjust() {
	if opts.connectTimeout <= 0 {
		opts.connectTimeout = defaultConnectTimeout
	}

	if opts.linger < 0 {
		opts.linger = defaultLinger
	}

	if opts.sendBufferSize <= 0 {
		opts.sendBufferSize = defaultBufferSize
	}

	if opts.receiveBufferSize <= 0 {
		opts.receiveBufferSize = defaultBufferSize
	}

	if opts.streamBufferSize <= 0 {
		opts.streamBufferSize = defaultBufferSize
	}

	if !opts.keepAliveSet {
		opts.keepAlive = true
	}
}

// WithConnectTimeout set the connect timeout
func WithConnectTimeout(value time.Duration) Option {
	return func(opts *options) {
		opts.connectTimeout = value
	}
}

// WithLinger set the linger duration, 0 means close immediately
func WithLinger(value time.Duration) Option {
	return func(opts *options) {
		opts.linger = value
	}
}

// WithSendBufferSize set the socket send buffer size
func WithSendBufferSize(value int) Option {
	return func(opts *options) {
		opts.sendBufferSize = value
	}
}

// WithReceiveBufferSize set the socket receive buffer size
func WithReceiveBufferSize(value int) Option {
	return func(opts *options) {
		opts.receiveBufferSize = value
	}
}

// WithStreamBufferSize set the size of the buffered input and output stream
func WithStreamBufferSize(value int) Option {
	return func(opts *options) {
		opts.streamBufferSize = value
	}
}

// WithKeepAlive set keep alive
func WithKeepAlive(value bool) Option {
	return func(opts *options) {
		opts.keepAlive = value
		opts.keepAliveSet = true
	}
}

func newOptions(opts ...Option) *options {
	value := &options{linger: -1}
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()
	return value
}
