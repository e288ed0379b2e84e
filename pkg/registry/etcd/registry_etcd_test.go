package etcd

import (
	"context"
	"testing"
	"time"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/util/json"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func TestRegistryKey(t *testing.T) {
	reg := &Registry{}
	WithGroup("g1")(&reg.opts)
	reg.opts.adjust()

	assert.Equal(t, int64(10), reg.opts.leaseTTL, "check default lease failed")
	assert.Equal(t, "registry-gridcore-g1-m1", reg.registryKey("m1"), "check key failed")
}

func TestRegistry(t *testing.T) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{"http://127.0.0.1:2379"},
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Skipf("etcd is not available, %+v", err)
		return
	}
	defer c.Close()

	reg, err := NewRegistry(c, WithLease(1))
	assert.Nil(t, err, "check create registry failed")

	member := meta.MemberInfo{ID: "m1", Addr: "127.0.0.1:5701"}
	assert.Nil(t, reg.Register(member), "check register failed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	resp, err := c.Get(ctx, reg.registryKey(member.ID))
	assert.Nil(t, err, "check get failed")
	assert.Equal(t, 1, len(resp.Kvs), "check registered failed")

	value := meta.MemberInfo{}
	json.MustUnmarshal(&value, resp.Kvs[0].Value)
	assert.Equal(t, member, value, "check registered value failed")

	assert.Nil(t, reg.Deregister(member), "check deregister failed")
	resp, err = c.Get(ctx, reg.registryKey(member.ID))
	assert.Nil(t, err, "check get after deregister failed")
	assert.Equal(t, 0, len(resp.Kvs), "check deregistered failed")
}
