package operation

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fagongzi/log"
	"github.com/fagongzi/util/task"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
	"github.com/infinivision/gridcore/pkg/partition"
	"github.com/infinivision/gridcore/pkg/store"
)

const (
	batch int64 = 32
)

// Callback receives the result of a operation
type Callback func(result interface{}, err error)

type job struct {
	ctx context.Context
	op  Operation
	cb  Callback
}

// Service executes partition operations of one member, operations of the
// same partition run serially on the same worker
type Service struct {
	opts       options
	member     string
	store      *store.Store
	partitions *partition.Service
	queues     []*task.Queue
	runner     *task.Runner
}

// NewService returns a operation service
func NewService(member string, s *store.Store, partitions *partition.Service, opts ...Option) *Service {
	svc := &Service{
		member:     member,
		store:      s,
		partitions: partitions,
		runner:     task.NewRunner(),
	}
	for _, opt := range opts {
		opt(&svc.opts)
	}
	svc.opts.adjust()

	for i := uint64(0); i < svc.opts.workers; i++ {
		svc.queues = append(svc.queues, task.New(svc.opts.queueSize))
	}
	return svc
}

// Member returns the member id
func (s *Service) Member() string {
	return s.member
}

// Start start the workers
func (s *Service) Start() {
	for i := range s.queues {
		idx := i
		_, err := s.runner.RunCancelableTask(func(ctx context.Context) {
			s.runWorker(ctx, idx)
		})
		if err != nil {
			log.Fatalf("[%s]: start operation worker %d failed with %+v", s.member, idx, err)
		}
	}
}

// Stop stop the workers
func (s *Service) Stop() {
	for _, q := range s.queues {
		q.Dispose()
	}
	s.runner.Stop()
}

// Submit submit the operation, cb is called on the partition worker
func (s *Service) Submit(ctx context.Context, op Operation, cb Callback) error {
	if !s.owns(op.Partition()) {
		return ErrWrongTarget
	}

	q := s.queues[uint64(op.Partition())%s.opts.workers]
	err := q.Put(&job{ctx: ctx, op: op, cb: cb})
	if err != nil {
		return ErrStopped
	}

	return nil
}

// Execute executes the operation and wait the result. If ctx is done
// first the operation still runs to completion, its result is dropped.
func (s *Service) Execute(ctx context.Context, op Operation) (interface{}, error) {
	type result struct {
		value interface{}
		err   error
	}

	c := make(chan result, 1)
	err := s.Submit(ctx, op, func(value interface{}, err error) {
		c <- result{value: value, err: err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-c:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) owns(id int32) bool {
	return s.partitions.Snapshot().Owner(id) == s.member
}

func (s *Service) runWorker(ctx context.Context, idx int) {
	q := s.queues[idx]
	worker := fmt.Sprintf("%s-%d", s.member, idx)
	items := make([]interface{}, batch, batch)

	log.Infof("[%s]: operation worker started", worker)
	for {
		n, err := q.Get(batch, items)
		if err != nil {
			log.Infof("[%s]: operation worker stopped", worker)
			return
		}

		for i := int64(0); i < n; i++ {
			s.run(items[i].(*job))
			items[i] = nil
		}

		metrics.OperationQueueGauge.WithLabelValues(worker).Set(float64(q.Len()))
	}
}

func (s *Service) run(j *job) {
	// ownership may changed while queued
	if !s.owns(j.op.Partition()) {
		j.cb(nil, ErrWrongTarget)
		return
	}

	var value interface{}
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("operation %T panic: %v", j.op, p)
				log.Errorf("%s: %+v\n%s",
					meta.TagPartition(j.op.Partition()),
					err,
					debug.Stack())
			}
		}()
		value, err = j.op.Run(j.ctx, s.store)
	}()

	j.cb(value, err)
}
