package lock

import (
	"sync"
)

// NewMemResourceLocker returns a lock in memory
func NewMemResourceLocker() ResourceLock {
	return &memLocker{
		resources: make(map[string]map[string]string),
	}
}

type memLocker struct {
	mu sync.Mutex

	resources map[string]map[string]string
}

func (l *memLocker) Lock(resource string, owner string, keys ...string) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, conflict := l.lockable(resource, owner, keys...); !ok {
		return false, conflict, nil
	}

	if len(keys) == 0 {
		return true, "", nil
	}

	locks, ok := l.resources[resource]
	if !ok {
		locks = make(map[string]string)
		l.resources[resource] = locks
	}

	for _, key := range keys {
		locks[key] = owner
	}
	return true, "", nil
}

func (l *memLocker) Unlock(resource string, owner string, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	locks, ok := l.resources[resource]
	if !ok {
		return nil
	}

	for _, key := range keys {
		if locks[key] == owner {
			delete(locks, key)
		}
	}

	if len(locks) == 0 {
		delete(l.resources, resource)
	}
	return nil
}

func (l *memLocker) Lockable(resource string, owner string, keys ...string) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, conflict := l.lockable(resource, owner, keys...)
	return ok, conflict, nil
}

func (l *memLocker) lockable(resource string, owner string, keys ...string) (bool, string) {
	locks, ok := l.resources[resource]
	if !ok {
		return true, ""
	}

	for _, key := range keys {
		if holder, ok := locks[key]; ok && holder != owner {
			return false, holder
		}
	}

	return true, ""
}
