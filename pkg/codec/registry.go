package codec

import (
	"sync"

	"github.com/fagongzi/log"
)

var (
	// DefaultAliases legacy type names mapped to the current ones
	DefaultAliases = map[string]string{
		"com.hazelcast.impl.Keys":        "gridcore.Keys",
		"com.hazelcast.impl.CMap$Values": "gridcore.Values",
		"com.hazelcast.impl.MemberImpl":  "gridcore.Member",
	}
)

// Factory creates a empty structured value for decode
type Factory func() DataSerializable

// Registry maps type names to factories, aliases are resolved first
type Registry struct {
	sync.RWMutex

	factories map[string]Factory
	aliases   map[string]string
}

// NewRegistry returns a registry with the alias table
func NewRegistry(aliases map[string]string) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string, len(aliases)),
	}

	for old, current := range aliases {
		r.aliases[old] = current
	}

	return r
}

// Register register a factory for the type name
func (r *Registry) Register(name string, factory Factory) {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.factories[name]; ok {
		log.Fatalf("codec: type %s already registered", name)
	}

	r.factories[name] = factory
}

// AddAlias add a legacy name for a current type name
func (r *Registry) AddAlias(old, current string) {
	r.Lock()
	r.aliases[old] = current
	r.Unlock()
}

// Resolve returns the factory and the current name of the type
func (r *Registry) Resolve(name string) (Factory, string, error) {
	r.RLock()
	defer r.RUnlock()

	current := name
	if value, ok := r.aliases[name]; ok {
		current = value
	}

	factory, ok := r.factories[current]
	if !ok {
		return nil, "", newError(KindUnresolvableTypeAlias, nil, "type %s", name)
	}

	return factory, current, nil
}
