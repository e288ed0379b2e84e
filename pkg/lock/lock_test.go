package lock

import (
	"testing"

	"github.com/infinivision/gridcore/pkg/cedis"
	"github.com/stretchr/testify/assert"
)

func testResourceLock(t *testing.T, l ResourceLock, resource string) {
	ok, conflict, err := l.Lock(resource, "t1", "k1", "k2")
	assert.Nil(t, err, "check lock failed")
	assert.True(t, ok, "check lock failed")
	assert.Equal(t, "", conflict, "check lock conflict failed")

	ok, _, err = l.Lock(resource, "t1", "k1")
	assert.Nil(t, err, "check relock failed")
	assert.True(t, ok, "check relock by owner failed")

	ok, conflict, err = l.Lock(resource, "t2", "k3", "k2")
	assert.Nil(t, err, "check conflict lock failed")
	assert.False(t, ok, "check conflict lock failed")
	assert.Equal(t, "t1", conflict, "check conflict owner failed")

	ok, _, err = l.Lockable(resource, "t2", "k3")
	assert.Nil(t, err, "check lockable failed")
	assert.True(t, ok, "check no key locked on conflict failed")

	ok, conflict, err = l.Lockable(resource, "t2", "k1")
	assert.Nil(t, err, "check lockable failed")
	assert.False(t, ok, "check lockable conflict failed")
	assert.Equal(t, "t1", conflict, "check lockable conflict owner failed")

	assert.Nil(t, l.Unlock(resource, "t2", "k1"), "check unlock by other failed")
	ok, _, _ = l.Lockable(resource, "t2", "k1")
	assert.False(t, ok, "check unlock by other is no-op failed")

	assert.Nil(t, l.Unlock(resource, "t1", "k1", "k2"), "check unlock failed")
	ok, _, err = l.Lock(resource, "t2", "k1", "k2")
	assert.Nil(t, err, "check lock after unlock failed")
	assert.True(t, ok, "check lock after unlock failed")
	assert.Nil(t, l.Unlock(resource, "t2", "k1", "k2"), "check unlock failed")

	ok, _, err = l.Lock(resource, "t1")
	assert.Nil(t, err, "check lock without keys failed")
	assert.True(t, ok, "check lock without keys failed")
}

func TestMemResourceLock(t *testing.T) {
	testResourceLock(t, NewMemResourceLocker(), "m")
}

func TestCellResourceLock(t *testing.T) {
	cell := cedis.NewCedis(cedis.WithCellProxies("127.0.0.1:6379"))
	defer cell.Close()

	if err := cell.Ping(); err != nil {
		t.Skipf("redis is not available: %+v", err)
		return
	}

	_, err := cell.Do("DEL", lockKey(t.Name()))
	assert.Nil(t, err, "check clean failed")
	testResourceLock(t, NewCellResourceLocker(cell), t.Name())
}
