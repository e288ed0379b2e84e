package xa

import (
	"time"

	"github.com/infinivision/gridcore/pkg/lock"
	"github.com/infinivision/gridcore/pkg/storage"
	"github.com/infinivision/gridcore/pkg/storage/mem"
)

const (
	// DefaultTimeout default transaction timeout
	DefaultTimeout = time.Second * 120
)

// Option service option
type Option func(*options)

type options struct {
	onePhaseSet    bool
	onePhase       bool
	defaultTimeout time.Duration
	tombstoneTTL   time.Duration
	applyTimeout   time.Duration
	storage        storage.Storage
	locker         lock.ResourceLock
}

func (opts *options) adjust() {
	if !opts.onePhaseSet {
		opts.onePhase = true
	}

	if opts.defaultTimeout <= 0 {
		opts.defaultTimeout = DefaultTimeout
	}

	if opts.tombstoneTTL <= 0 {
		opts.tombstoneTTL = time.Minute * 10
	}

	if opts.applyTimeout <= 0 {
		opts.applyTimeout = time.Second * 30
	}

	if opts.storage == nil {
		opts.storage = mem.NewStorage()
	}

	if opts.locker == nil {
		opts.locker = lock.NewMemResourceLocker()
	}
}

// WithOnePhaseCommit enable or disable the one phase commit optimization
func WithOnePhaseCommit(value bool) Option {
	return func(opts *options) {
		opts.onePhaseSet = true
		opts.onePhase = value
	}
}

// WithDefaultTimeout set the default transaction timeout
func WithDefaultTimeout(value time.Duration) Option {
	return func(opts *options) {
		opts.defaultTimeout = value
	}
}

// WithTombstoneTTL set how long a timed out branch is remembered
func WithTombstoneTTL(value time.Duration) Option {
	return func(opts *options) {
		opts.tombstoneTTL = value
	}
}

// WithApplyTimeout set the max duration of applying the writes of a branch
func WithApplyTimeout(value time.Duration) Option {
	return func(opts *options) {
		opts.applyTimeout = value
	}
}

// WithStorage set the storage of the prepared records
func WithStorage(value storage.Storage) Option {
	return func(opts *options) {
		opts.storage = value
	}
}

// WithLocker set the key locker of the transactional writes
func WithLocker(value lock.ResourceLock) Option {
	return func(opts *options) {
		opts.locker = value
	}
}
