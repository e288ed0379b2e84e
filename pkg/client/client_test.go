package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/member"
	"github.com/infinivision/gridcore/pkg/task"
	"github.com/stretchr/testify/assert"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err, "check listen failed")
	defer l.Close()
	return l.Addr().String()
}

func startCluster(t *testing.T, opts ...member.Option) (*member.Cluster, []string) {
	addrs := []string{freeAddr(t), freeAddr(t)}
	opts = append(opts, member.WithPartitions(16), member.WithReactorLoops(2), member.WithOperationWorkers(2))

	c, err := member.NewCluster(addrs, opts...)
	assert.Nil(t, err, "check create cluster failed")
	assert.Nil(t, c.Start(), "check start cluster failed")
	t.Cleanup(c.Stop)
	return c, addrs
}

func newTestClient(t *testing.T, addr string) *Client {
	c, err := NewClient(context.Background(), Cfg{Addr: addr, Timeout: time.Second * 5})
	assert.Nil(t, err, "check create client failed")
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMapOperations(t *testing.T) {
	_, addrs := startCluster(t)
	c := newTestClient(t, addrs[0])
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		old, err := c.MapPut(ctx, "m", fmt.Sprintf("k%d", i), int64(i))
		assert.Nil(t, err, "check put failed")
		assert.Nil(t, old, "check put old value failed")
	}

	old, err := c.MapPut(ctx, "m", "k1", int64(100))
	assert.Nil(t, err, "check put again failed")
	assert.Equal(t, int64(1), old, "check replaced value failed")

	value, err := c.MapGet(ctx, "m", "k1")
	assert.Nil(t, err, "check get failed")
	assert.Equal(t, int64(100), value, "check get value failed")

	value, err = c.MapGet(ctx, "m", "missing")
	assert.Nil(t, err, "check get missing failed")
	assert.Nil(t, value, "check missing value failed")

	size, err := c.MapSize(ctx, "m")
	assert.Nil(t, err, "check size failed")
	assert.Equal(t, uint64(10), size, "check size value failed")

	keys, err := c.MapKeySet(ctx, "m")
	assert.Nil(t, err, "check key set failed")
	assert.Equal(t, 10, len(keys), "check key set size failed")

	var names []string
	for _, key := range keys {
		names = append(names, key.(string))
	}
	sort.Strings(names)
	assert.Equal(t, "k0", names[0], "check first key failed")
	assert.Equal(t, "k9", names[9], "check last key failed")

	old, err = c.MapRemove(ctx, "m", "k0")
	assert.Nil(t, err, "check remove failed")
	assert.Equal(t, int64(0), old, "check removed value failed")

	size, err = c.MapSize(ctx, "m")
	assert.Nil(t, err, "check size after remove failed")
	assert.Equal(t, uint64(9), size, "check size after remove value failed")

	keys, err = c.MapKeySet(ctx, "empty")
	assert.Nil(t, err, "check empty key set failed")
	assert.Equal(t, 0, len(keys), "check empty key set size failed")
}

func TestAnyMemberServesAllPartitions(t *testing.T) {
	_, addrs := startCluster(t)
	c1 := newTestClient(t, addrs[0])
	c2 := newTestClient(t, addrs[1])
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := c1.MapPut(ctx, "m", int32(i), "v")
		assert.Nil(t, err, "check put failed")
	}

	size, err := c2.MapSize(ctx, "m")
	assert.Nil(t, err, "check size from other member failed")
	assert.Equal(t, uint64(20), size, "check size value failed")

	value, err := c2.MapGet(ctx, "m", int32(7))
	assert.Nil(t, err, "check get from other member failed")
	assert.Equal(t, "v", value, "check value failed")
}

func TestKeySetAfterMigration(t *testing.T) {
	cluster, addrs := startCluster(t)
	c := newTestClient(t, addrs[0])
	ctx := context.Background()

	assert.Nil(t, cluster.Migrate(3, addrs[1]), "check migrate failed")
	assert.NotNil(t, cluster.Migrate(3, "unknown:1"), "check migrate to unknown failed")

	_, err := c.MapKeySet(ctx, "m")
	assert.Nil(t, err, "check key set after migrate failed")
}

func TestPermissionDenied(t *testing.T) {
	_, addrs := startCluster(t, member.WithTaskOptions(task.WithAuthorizer(denyAll{})))
	c := newTestClient(t, addrs[0])

	_, err := c.MapKeySet(context.Background(), "m")
	assert.NotNil(t, err, "check denied failed")
	assert.True(t, errors.Is(err, meta.ErrPermissionDenied), "check denied code failed")
}

func TestPartitionLostListener(t *testing.T) {
	cluster, addrs := startCluster(t)
	c := newTestClient(t, addrs[1])
	ctx := context.Background()

	events := make(chan meta.PartitionLostEvent, 1)
	registration, err := c.AddPartitionLostListener(ctx, func(event meta.PartitionLostEvent) {
		events <- event
	})
	assert.Nil(t, err, "check add listener failed")
	assert.NotEmpty(t, registration, "check registration failed")

	cluster.LosePartition(5, 1)
	select {
	case event := <-events:
		assert.Equal(t, int32(5), event.PartitionID, "check event partition failed")
		assert.Equal(t, int32(1), event.LostBackup, "check event lost backup failed")
		assert.Equal(t, cluster.Partitions().Snapshot().Owner(5), event.Member, "check event member failed")
	case <-time.After(time.Second * 5):
		assert.Fail(t, "check event timeout")
	}

	ok, err := c.RemovePartitionLostListener(ctx, registration)
	assert.Nil(t, err, "check remove listener failed")
	assert.True(t, ok, "check remove listener result failed")
	assert.Equal(t, 0, countOf(&c.listeners), "check local listener removed failed")
	assert.Equal(t, 0, countOf(&c.registrations), "check registration removed failed")

	ok, err = c.RemovePartitionLostListener(ctx, registration)
	assert.Nil(t, err, "check remove listener again failed")
	assert.False(t, ok, "check remove listener again result failed")
}

func countOf(m *sync.Map) int {
	n := 0
	m.Range(func(key, value interface{}) bool {
		n++
		return true
	})
	return n
}

func TestCallAfterClose(t *testing.T) {
	_, addrs := startCluster(t)
	c := newTestClient(t, addrs[0])
	assert.Nil(t, c.Close(), "check close failed")

	_, err := c.MapGet(context.Background(), "m", "k")
	assert.NotNil(t, err, "check call after close failed")
}

type denyAll struct{}

func (d denyAll) Authorize(conn task.Responder, permission *task.Permission) error {
	return errors.New("denied")
}
