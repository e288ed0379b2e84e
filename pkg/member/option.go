package member

import (
	"runtime"

	"github.com/infinivision/gridcore/pkg/task"
	"github.com/infinivision/gridcore/pkg/xa"
)

const (
	// DefaultPartitions default partition count
	DefaultPartitions int32 = 271
)

// Option member option
type Option func(*options)

type options struct {
	nodeID           uint16
	partitions       int32
	reactorLoops     int
	operationWorkers uint64
	registry         *task.Registry
	taskOptions      []task.Option
	xaOptions        []xa.Option
}

func (opts *options) adjust() {
	if opts.nodeID == 0 {
		opts.nodeID = 1
	}

	if opts.partitions <= 0 {
		opts.partitions = DefaultPartitions
	}

	if opts.reactorLoops <= 0 {
		opts.reactorLoops = runtime.NumCPU()
	}

	if opts.operationWorkers == 0 {
		opts.operationWorkers = uint64(runtime.NumCPU())
	}

	if opts.registry == nil {
		opts.registry = task.DefaultRegistry()
	}
}

// WithNodeID set the node id of the snowflake id generator
func WithNodeID(value uint16) Option {
	return func(opts *options) {
		opts.nodeID = value
	}
}

// WithPartitions set the partition count of the cluster
func WithPartitions(value int32) Option {
	return func(opts *options) {
		opts.partitions = value
	}
}

// WithReactorLoops set the io loops per member, 0 means cpu count
func WithReactorLoops(value int) Option {
	return func(opts *options) {
		opts.reactorLoops = value
	}
}

// WithOperationWorkers set the partition workers per member, 0 means cpu count
func WithOperationWorkers(value uint64) Option {
	return func(opts *options) {
		opts.operationWorkers = value
	}
}

// WithTaskRegistry set the message task registry
func WithTaskRegistry(value *task.Registry) Option {
	return func(opts *options) {
		opts.registry = value
	}
}

// WithTaskOptions set the task dispatcher options
func WithTaskOptions(values ...task.Option) Option {
	return func(opts *options) {
		opts.taskOptions = append(opts.taskOptions, values...)
	}
}

// WithXAOptions set the xa service options
func WithXAOptions(values ...xa.Option) Option {
	return func(opts *options) {
		opts.xaOptions = append(opts.xaOptions, values...)
	}
}
