package task

import (
	"sync"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/meta"
)

// Factory creates a task for one request
type Factory func(req *meta.ClientMessage) Task

// Registry maps message types to task factories
type Registry struct {
	sync.RWMutex

	factories map[meta.MessageType]Factory
}

// NewRegistry returns a empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[meta.MessageType]Factory),
	}
}

// DefaultRegistry returns a registry with all built-in tasks
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(meta.TypeMapPut, newMapPutTask)
	r.Register(meta.TypeMapGet, newMapGetTask)
	r.Register(meta.TypeMapRemove, newMapRemoveTask)
	r.Register(meta.TypeMapKeySet, newMapKeySetTask)
	r.Register(meta.TypeMapSize, newMapSizeTask)
	r.Register(meta.TypeAddPartitionLostListener, newAddPartitionLostListenerTask)
	r.Register(meta.TypeRemovePartitionLostListener, newRemovePartitionLostListenerTask)
	return r
}

// Register register the factory of the message type
func (r *Registry) Register(t meta.MessageType, factory Factory) {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.factories[t]; ok {
		log.Fatalf("task: %s already registered", t.Name())
	}

	r.factories[t] = factory
}

// Create creates a task for the request
func (r *Registry) Create(req *meta.ClientMessage) (Task, bool) {
	r.RLock()
	factory, ok := r.factories[req.Type]
	r.RUnlock()

	if !ok {
		return nil, false
	}

	return factory(req), true
}
