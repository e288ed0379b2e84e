package lock

import (
	"fmt"

	"github.com/garyburd/redigo/redis"
	"github.com/infinivision/gridcore/pkg/cedis"
)

const (
	lockOK = "OK"
)

var (
	lockableScript = redis.NewScript(1, `
local owner = ARGV[1]
for i = 2, #ARGV do
	local holder = redis.call('HGET', KEYS[1], ARGV[i])
	if holder and holder ~= owner then
		return holder
	end
end
return 'OK'`)

	lockScript = redis.NewScript(1, `
local owner = ARGV[1]
for i = 2, #ARGV do
	local holder = redis.call('HGET', KEYS[1], ARGV[i])
	if holder and holder ~= owner then
		return holder
	end
end
for i = 2, #ARGV do
	redis.call('HSET', KEYS[1], ARGV[i], owner)
end
return 'OK'`)

	unlockScript = redis.NewScript(1, `
local owner = ARGV[1]
for i = 2, #ARGV do
	if redis.call('HGET', KEYS[1], ARGV[i]) == owner then
		redis.call('HDEL', KEYS[1], ARGV[i])
	end
end
return 'OK'`)
)

// NewCellResourceLocker returns a lock base on cell, the locks of a resource
// are kept in one hash
func NewCellResourceLocker(cell *cedis.Cedis) ResourceLock {
	return &resourceLocker{
		cell: cell,
	}
}

type resourceLocker struct {
	cell *cedis.Cedis
}

func (l *resourceLocker) Lockable(resource string, owner string, keys ...string) (bool, string, error) {
	return l.eval(lockableScript, resource, owner, keys...)
}

func (l *resourceLocker) Lock(resource string, owner string, keys ...string) (bool, string, error) {
	return l.eval(lockScript, resource, owner, keys...)
}

func (l *resourceLocker) Unlock(resource string, owner string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, _, err := l.eval(unlockScript, resource, owner, keys...)
	return err
}

func (l *resourceLocker) eval(script *redis.Script, resource string, owner string, keys ...string) (bool, string, error) {
	if len(keys) == 0 {
		return true, "", nil
	}

	args := make([]interface{}, 0, len(keys)+2)
	args = append(args, lockKey(resource))
	args = append(args, owner)
	for _, key := range keys {
		args = append(args, key)
	}

	rsp, err := redis.String(l.cell.Eval(script, args...))
	if err != nil {
		return false, "", err
	}

	if rsp != lockOK {
		return false, rsp, nil
	}
	return true, "", nil
}

func lockKey(resource string) string {
	return fmt.Sprintf("__gridcore_lock_%s__", resource)
}
