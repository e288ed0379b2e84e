package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/fagongzi/util/task"
	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
)

const (
	batch int64 = 16
)

type request struct {
	conn Responder
	msg  *meta.ClientMessage
}

// Dispatcher creates tasks for client requests and runs them off the
// reactor threads
type Dispatcher struct {
	opts     options
	env      *Env
	registry *Registry
	queue    *task.Queue
	runner   *task.Runner
}

// NewDispatcher returns a dispatcher
func NewDispatcher(env *Env, registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		env:      env,
		registry: registry,
		runner:   task.NewRunner(),
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	d.opts.adjust()

	d.queue = task.New(d.opts.queueSize)
	return d
}

// Env returns the env
func (d *Dispatcher) Env() *Env {
	return d.env
}

// Start start the executors
func (d *Dispatcher) Start() {
	for i := 0; i < d.opts.executors; i++ {
		idx := i
		_, err := d.runner.RunCancelableTask(func(ctx context.Context) {
			d.runExecutor(ctx, idx)
		})
		if err != nil {
			log.Fatalf("[%s]: start task executor %d failed with %+v", d.env.Member, idx, err)
		}
	}
}

// Stop stop the executors, the queued requests are dropped
func (d *Dispatcher) Stop() {
	d.queue.Dispose()
	d.runner.Stop()
}

// Dispatch queues the request, never blocks the caller
func (d *Dispatcher) Dispatch(conn Responder, msg *meta.ClientMessage) error {
	err := d.queue.Put(&request{conn: conn, msg: msg})
	if err != nil {
		return meta.ErrClosed
	}

	return nil
}

func (d *Dispatcher) runExecutor(ctx context.Context, idx int) {
	items := make([]interface{}, batch, batch)

	log.Infof("[%s]: task executor %d started", d.env.Member, idx)
	for {
		n, err := d.queue.Get(batch, items)
		if err != nil {
			log.Infof("[%s]: task executor %d stopped", d.env.Member, idx)
			return
		}

		for i := int64(0); i < n; i++ {
			r := items[i].(*request)
			d.Process(ctx, r.conn, r.msg)
			items[i] = nil
		}
	}
}

// Process runs the task of the request and writes the response to the conn
func (d *Dispatcher) Process(ctx context.Context, conn Responder, msg *meta.ClientMessage) {
	tag := meta.TagTask(conn.ID(), msg)
	start := time.Now()
	method := msg.Type.Name()

	t, ok := d.registry.Create(msg)
	if ok {
		method = t.MethodName()
	}

	body, err := d.run(ctx, conn, msg, t, ok)
	metrics.TaskDurationHistogram.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if conn.IsClosed() {
		if body != nil {
			body.Release()
		}

		metrics.TaskCounter.WithLabelValues(method, metrics.StatusDiscarded).Inc()
		log.Debugf("%s: connection closed, result discarded", tag)
		return
	}

	var rsp *meta.ClientMessage
	if err != nil {
		metrics.TaskCounter.WithLabelValues(method, statusOf(err)).Inc()
		log.Errorf("%s: failed with %+v", tag, err)
		rsp = meta.NewErrorResponse(msg, errorCode(err), err.Error())
	} else {
		metrics.TaskCounter.WithLabelValues(method, metrics.StatusSucceed).Inc()
		rsp = meta.NewResponse(msg, body)
	}

	err = conn.Respond(rsp)
	if err != nil {
		log.Errorf("%s: respond failed with %+v", tag, err)
	}
}

func (d *Dispatcher) run(ctx context.Context, conn Responder, msg *meta.ClientMessage, t Task, ok bool) (body *goetty.ByteBuf, err error) {
	if !ok {
		return nil, newDispatchError(KindTargetNotFound, nil, "no task for message type 0x%04x", uint16(msg.Type))
	}

	defer func() {
		if p := recover(); p != nil {
			err = newDispatchError(KindTaskFailure, fmt.Errorf("panic: %v", p), "")
			log.Errorf("%s: panic\n%s", meta.TagTask(conn.ID(), msg), debug.Stack())
		}
	}()

	err = t.Decode(msg)
	if err != nil {
		return nil, newDispatchError(KindTaskFailure, err, "decode %s", t.MethodName())
	}

	if permission := t.RequiredPermission(); permission != nil {
		err = d.opts.authorizer.Authorize(conn, permission)
		if err != nil {
			return nil, newDispatchError(KindPermissionDenied, err, "%s", permission)
		}
	}

	result, err := d.execute(ctx, conn, t)
	if err != nil {
		return nil, err
	}

	body, err = t.Encode(result)
	if err != nil {
		return nil, newDispatchError(KindTaskFailure, err, "encode %s", t.MethodName())
	}

	return body, nil
}

func (d *Dispatcher) execute(ctx context.Context, conn Responder, t Task) (interface{}, error) {
	switch value := t.(type) {
	case TargetedTask:
		return d.InvokeOnPartition(ctx, value.Operation(d.env.Partitions.Snapshot()))
	case AllPartitionsTask:
		results, err := d.InvokeOnAllPartitions(ctx, value.Factory())
		if err != nil {
			return nil, err
		}

		result, err := value.Reduce(results)
		if err != nil {
			return nil, newDispatchError(KindTaskFailure, err, "reduce %s", t.MethodName())
		}
		return result, nil
	case LocalTask:
		ctx, cancel := context.WithTimeout(ctx, d.opts.fanoutTimeout)
		defer cancel()

		result, err := value.Call(ctx, d.env, conn)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, newDispatchError(KindTimeout, err, "")
			}

			var dispatchErr *DispatchError
			if errors.As(err, &dispatchErr) {
				return nil, err
			}
			return nil, newDispatchError(KindTaskFailure, err, "")
		}
		return result, nil
	}

	return nil, newDispatchError(KindTaskFailure, nil, "task %T has no execution shape", t)
}

func statusOf(err error) string {
	if errors.Is(err, ErrTimeout) {
		return metrics.StatusTimeout
	}

	return metrics.StatusFailed
}

// decodeError returns a codec truncated stream error of the field
func decodeError(field string) error {
	return &codec.Error{Kind: codec.KindTruncatedStream, Detail: field}
}
