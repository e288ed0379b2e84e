package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/metrics"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	"golang.org/x/sync/errgroup"
)

type singleFactory struct {
	op operation.Operation
}

func (f singleFactory) Create(partition int32) operation.Operation {
	return f.op
}

// InvokeOnPartition invokes the operation on the partition owner, re-dispatch
// if the ownership changed
func (d *Dispatcher) InvokeOnPartition(ctx context.Context, op operation.Operation) (interface{}, error) {
	results, err := d.invoke(ctx, singleFactory{op: op}, []int32{op.Partition()})
	if err != nil {
		return nil, err
	}

	return results[op.Partition()], nil
}

// InvokeOnAllPartitions invokes the operations created by the factory on
// all partitions, the result map covers every partition
func (d *Dispatcher) InvokeOnAllPartitions(ctx context.Context, factory operation.Factory) (map[int32]interface{}, error) {
	start := time.Now()
	defer func() {
		metrics.FanoutDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	return d.invoke(ctx, factory, d.env.Partitions.Snapshot().Partitions())
}

func (d *Dispatcher) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.redispatchInitial
	b.MaxInterval = d.opts.redispatchMax
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, d.opts.redispatchAttempts)
}

func (d *Dispatcher) invoke(ctx context.Context, factory operation.Factory, partitions []int32) (map[int32]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.fanoutTimeout)
	defer cancel()

	results := make(map[int32]interface{}, len(partitions))
	pending := partitions
	table := d.env.Partitions.Snapshot()
	bo := d.newBackoff()

	for {
		retry, err := d.dispatch(ctx, table, factory, pending, results)
		if err != nil {
			if ctx.Err() != nil {
				return nil, newDispatchError(KindTimeout, err, "%d partitions pending", len(pending))
			}

			return nil, newDispatchError(KindTaskFailure, err, "")
		}

		if len(retry) == 0 {
			break
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return nil, newDispatchError(KindPartitionUnavailable, nil,
				"partitions %v, table version %d", retry, table.Version)
		}

		metrics.RedispatchCounter.Add(float64(len(retry)))
		log.Infof("task: re-dispatch %d partitions after ownership changed, table version %d",
			len(retry),
			table.Version)

		waitCtx, waitCancel := context.WithTimeout(ctx, wait)
		table = d.env.Partitions.Refresh(waitCtx, table.Version)
		waitCancel()

		if ctx.Err() != nil {
			return nil, newDispatchError(KindTimeout, ctx.Err(), "%d partitions pending", len(retry))
		}
		pending = retry
	}

	if !coversAll(results, partitions) {
		return nil, newDispatchError(KindTaskFailure, nil,
			"%d results for %d partitions", len(results), len(partitions))
	}

	return results, nil
}

// dispatch runs the operations of the pending partitions concurrently, returns
// the partitions need to be re-dispatched
func (d *Dispatcher) dispatch(ctx context.Context, table *partition.Table, factory operation.Factory,
	pending []int32, results map[int32]interface{}) ([]int32, error) {
	var lock sync.Mutex
	var retry []int32

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range pending {
		id := id
		owner := table.Owner(id)
		g.Go(func() error {
			if owner == "" {
				lock.Lock()
				retry = append(retry, id)
				lock.Unlock()
				return nil
			}

			value, err := d.env.Invoker.Invoke(gctx, owner, factory.Create(id))
			if err != nil {
				if operation.IsRetryable(err) {
					lock.Lock()
					retry = append(retry, id)
					lock.Unlock()
					return nil
				}

				return err
			}

			lock.Lock()
			results[id] = value
			lock.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(retry, func(i, j int) bool { return retry[i] < retry[j] })
	return retry, nil
}

func coversAll(results map[int32]interface{}, partitions []int32) bool {
	if len(results) != len(partitions) {
		return false
	}

	for _, id := range partitions {
		if _, ok := results[id]; !ok {
			return false
		}
	}

	return true
}
