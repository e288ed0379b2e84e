package etcd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/log"
	"github.com/fagongzi/util/json"
	"github.com/infinivision/gridcore/pkg/meta"
)

var (
	registryKeyPrefix = "registry-gridcore-"
)

// Registry etcd registry
type Registry struct {
	sync.Mutex

	opts    options
	client  *clientv3.Client
	lessor  clientv3.Lease
	cancels map[string]context.CancelFunc
}

// NewRegistry returns a etcd registry
func NewRegistry(client *clientv3.Client, opts ...Option) (*Registry, error) {
	reg := &Registry{
		client:  client,
		lessor:  clientv3.NewLease(client),
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(&reg.opts)
	}
	reg.opts.adjust()
	return reg, nil
}

// Register register the member to etcd, and keepalive with a lease
func (r *Registry) Register(member meta.MemberInfo) error {
	ctx, cancel := context.WithCancel(r.client.Ctx())
	ch, err := r.doRegistry(ctx, member)
	if err != nil {
		cancel()
		return err
	}

	r.Lock()
	if prev, ok := r.cancels[member.ID]; ok {
		prev()
	}
	r.cancels[member.ID] = cancel
	r.Unlock()

	go r.keepalive(ctx, member, ch)
	return nil
}

// Deregister stop the keepalive and remove the member
func (r *Registry) Deregister(member meta.MemberInfo) error {
	r.Lock()
	if cancel, ok := r.cancels[member.ID]; ok {
		cancel()
		delete(r.cancels, member.ID)
	}
	r.Unlock()

	_, err := r.client.KV.Delete(r.client.Ctx(), r.registryKey(member.ID))
	return err
}

func (r *Registry) keepalive(ctx context.Context, member meta.MemberInfo, ch <-chan *clientv3.LeaseKeepAliveResponse) {
	var err error
	for {
		if ch == nil {
			ch, err = r.doRegistry(ctx, member)
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				log.Errorf("[registry-etcd]: retry %s failed with %+v, retry after %s",
					member.ID, err, r.opts.retryInterval)
				select {
				case <-time.After(r.opts.retryInterval):
				case <-ctx.Done():
					return
				}
				continue
			}

			log.Infof("[registry-etcd]: retry %s succeed", member.ID)
		}

		select {
		case _, ok := <-ch:
			if ok {
				continue
			}

			if ctx.Err() != nil {
				log.Infof("[registry-etcd]: %s deregistered", member.ID)
				return
			}
			log.Errorf("[registry-etcd]: %s lease keepalive failed, retry", member.ID)
		case <-ctx.Done():
			log.Infof("[registry-etcd]: %s keepalive stopped", member.ID)
			return
		}

		ch = nil
	}
}

func (r *Registry) doRegistry(ctx context.Context, member meta.MemberInfo) (<-chan *clientv3.LeaseKeepAliveResponse, error) {
	resp, err := r.lessor.Grant(ctx, r.opts.leaseTTL)
	if err != nil {
		return nil, err
	}

	_, err = r.client.KV.Put(ctx, r.registryKey(member.ID), string(json.MustMarshal(&member)), clientv3.WithLease(resp.ID))
	if err != nil {
		return nil, err
	}

	return r.lessor.KeepAlive(ctx, resp.ID)
}

func (r *Registry) registryKey(id string) string {
	return fmt.Sprintf("%s%s-%s", registryKeyPrefix, r.opts.group, id)
}
