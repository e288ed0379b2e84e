package lock

// ResourceLock is a lock for the keys of a resource, the lock of a key is
// held by one owner, lock again by the same owner succeeds
type ResourceLock interface {
	// Lock get the lock of all keys on the resource
	// If there is conflict, returns false,conflict owner,nil and no key is locked
	Lock(resource string, owner string, keys ...string) (bool, string, error)
	// Unlock release the locks held by the owner on the resource
	Unlock(resource string, owner string, keys ...string) error
	// Lockable returns the keys are lockable by the owner on resource
	// If there is conflict, returns false,conflict owner,nil
	Lockable(resource string, owner string, keys ...string) (bool, string, error)
}
