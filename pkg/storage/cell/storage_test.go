package cell

import (
	"testing"

	"github.com/infinivision/gridcore/pkg/cedis"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func newRedisStorage(t *testing.T) *Storage {
	s := NewStorage(cedis.NewCedis(cedis.WithCellProxies("127.0.0.1:6379")), WithCluster(t.Name()))
	conn := s.cell.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", s.key)
	if err != nil {
		t.Skipf("redis is not available: %+v", err)
	}

	return s
}

func TestPutGetRemoveFromRedis(t *testing.T) {
	s := newRedisStorage(t)
	xid := meta.NewXid("b1")

	r, err := s.Get(xid)
	assert.Nilf(t, err, "check redis storage failed with %+v", err)
	assert.Nil(t, r, "check redis storage failed")

	record := &meta.PreparedRecord{
		Xid:    xid,
		Member: "m1",
		Writes: []meta.StagedWrite{{Op: meta.PutOp, Map: "m", Key: []byte("k"), Value: []byte("v")}},
	}
	assert.Nil(t, s.Put(record), "check redis put failed")

	r, err = s.Get(xid)
	assert.Nilf(t, err, "check redis storage failed with %+v", err)
	assert.True(t, xid.Equal(r.Xid), "check redis xid failed")
	assert.Equal(t, record.Writes, r.Writes, "check redis writes failed")

	c, err := s.Count()
	assert.Nilf(t, err, "check redis storage failed with %+v", err)
	assert.Equal(t, uint64(1), c, "check redis count failed")

	assert.Nil(t, s.Remove(xid), "check redis remove failed")
	c, _ = s.Count()
	assert.Equal(t, uint64(0), c, "check redis count failed")
}

func TestLoadFromRedis(t *testing.T) {
	s := newRedisStorage(t)
	for i := 0; i < 10; i++ {
		s.Put(&meta.PreparedRecord{Xid: meta.NewXid("b")})
	}

	c := 0
	err := s.Load(func(r *meta.PreparedRecord) error {
		c++
		return nil
	})
	assert.Nilf(t, err, "check redis load failed with %+v", err)
	assert.Equal(t, 10, c, "check redis load failed")
}
