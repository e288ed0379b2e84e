package mem

import (
	"errors"
	"testing"

	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func TestCountAndPut(t *testing.T) {
	s := NewStorage()
	c, err := s.Count()
	assert.Nilf(t, err, "check mem storage failed with %+v", err)
	assert.Equal(t, uint64(0), c, "check mem storage failed")

	err = s.Put(&meta.PreparedRecord{Xid: meta.NewXid("b1")})
	assert.Nilf(t, err, "check mem storage failed with %+v", err)

	c, err = s.Count()
	assert.Nilf(t, err, "check mem storage failed with %+v", err)
	assert.Equal(t, uint64(1), c, "check mem storage failed")
}

func TestGetAndRemove(t *testing.T) {
	s := NewStorage()
	xid := meta.NewXid("b1")

	r, err := s.Get(xid)
	assert.Nilf(t, err, "check mem storage failed with %+v", err)
	assert.Nil(t, r, "check mem storage failed")

	s.Put(&meta.PreparedRecord{Xid: xid, Member: "m1"})
	r, err = s.Get(xid)
	assert.Nilf(t, err, "check mem storage failed with %+v", err)
	assert.Equal(t, "m1", r.Member, "check mem storage failed")

	assert.Nil(t, s.Remove(xid), "check mem storage remove failed")
	r, _ = s.Get(xid)
	assert.Nil(t, r, "check mem storage failed")
}

func TestLoad(t *testing.T) {
	s := NewStorage()
	for i := 0; i < 128; i++ {
		s.Put(&meta.PreparedRecord{Xid: meta.NewXid("b")})
	}

	c := 0
	err := s.Load(func(r *meta.PreparedRecord) error {
		c++
		return nil
	})
	assert.Nilf(t, err, "check mem storage failed with %+v", err)
	assert.Equal(t, 128, c, "check mem storage failed")

	c = 0
	err = s.Load(func(r *meta.PreparedRecord) error {
		c++
		if c == 10 {
			return errors.New("stop")
		}
		return nil
	})
	assert.NotNil(t, err, "check mem storage load error failed")
	assert.Equal(t, 10, c, "check mem storage failed")
}
