package local

// Storage local data storage
type Storage interface {
	// Get returns the key value, nil if not found
	Get(key []byte) ([]byte, error)
	// Set sets the key value to the local storage
	Set(key, value []byte) error
	// Remove remove the key from the local storage
	Remove(key []byte) error
	// Range visit the values that start with prefix in key order until fn
	// returns false, set limit to 0 for no limit
	Range(prefix []byte, limit uint64, fn func(key, value []byte) bool) error
	// Close close the storage
	Close() error
}
