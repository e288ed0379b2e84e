package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func TestRedisCreateStorage(t *testing.T) {
	_, err := CreateStorage("redis://127.0.0.1:6379?cluster=c1&retry=3&maxActive=100&maxIdle=10&idleTimeout=30&dialTimeout=10&readTimeout=30&writeTimeout=10")
	assert.Nil(t, err, "create redis storage url failed")
}

func TestCellCreateStorage(t *testing.T) {
	_, err := CreateStorage("cell://127.0.0.1:6379?proxy=127.0.0.1:6380&retry=3&maxActive=100&maxIdle=10&idleTimeout=30&dialTimeout=10&readTimeout=30&writeTimeout=10")
	assert.Nil(t, err, "create cell storage url failed")
}

func TestUnsupportedCreateStorage(t *testing.T) {
	_, err := CreateStorage("zk://127.0.0.1:2181")
	assert.NotNil(t, err, "create unsupported storage url failed")
}

func TestBadgerStorage(t *testing.T) {
	dir, err := os.MkdirTemp("", "gridcore-storage-")
	assert.Nilf(t, err, "check temp dir failed with %+v", err)
	defer os.RemoveAll(dir)

	s, err := CreateStorage("badger://" + filepath.ToSlash(filepath.Join(dir, "xa")))
	assert.Nilf(t, err, "create badger storage url failed with %+v", err)

	xid := meta.NewXid("b1")
	record := &meta.PreparedRecord{
		Xid:    xid,
		Member: "m1",
		Writes: []meta.StagedWrite{{Op: meta.RemoveOp, Map: "m", Key: []byte("k")}},
	}
	assert.Nil(t, s.Put(record), "check badger put failed")
	assert.Nil(t, s.Put(&meta.PreparedRecord{Xid: meta.NewXid("b2")}), "check badger put failed")

	value, err := s.Get(xid)
	assert.Nilf(t, err, "check badger get failed with %+v", err)
	assert.True(t, xid.Equal(value.Xid), "check badger xid failed")
	assert.Equal(t, record.Writes, value.Writes, "check badger writes failed")

	c, err := s.Count()
	assert.Nilf(t, err, "check badger count failed with %+v", err)
	assert.Equal(t, uint64(2), c, "check badger count failed")

	loaded := 0
	err = s.Load(func(r *meta.PreparedRecord) error {
		loaded++
		return nil
	})
	assert.Nilf(t, err, "check badger load failed with %+v", err)
	assert.Equal(t, 2, loaded, "check badger load failed")

	assert.Nil(t, s.Remove(xid), "check badger remove failed")
	value, err = s.Get(xid)
	assert.Nilf(t, err, "check badger get failed with %+v", err)
	assert.Nil(t, value, "check badger removed failed")
}
