package storage

import (
	"github.com/fagongzi/util/json"
	"github.com/infinivision/gridcore/pkg/local"
	"github.com/infinivision/gridcore/pkg/meta"
)

var (
	preparedPrefix = []byte("xa/prepared/")
)

// localStorage keeps the prepared records in a local kv storage
type localStorage struct {
	kv local.Storage
}

// NewLocalStorage returns a prepared log implementation by the local kv storage
func NewLocalStorage(kv local.Storage) Storage {
	return &localStorage{kv: kv}
}

func preparedKey(xid meta.Xid) []byte {
	key := make([]byte, 0, len(preparedPrefix)+64)
	key = append(key, preparedPrefix...)
	return append(key, xid.Key()...)
}

func (s *localStorage) Count() (uint64, error) {
	c := uint64(0)
	err := s.kv.Range(preparedPrefix, 0, func(key, value []byte) bool {
		c++
		return true
	})
	return c, err
}

func (s *localStorage) Get(xid meta.Xid) (*meta.PreparedRecord, error) {
	data, err := s.kv.Get(preparedKey(xid))
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, nil
	}

	r := &meta.PreparedRecord{}
	json.MustUnmarshal(r, data)
	return r, nil
}

func (s *localStorage) Put(record *meta.PreparedRecord) error {
	return s.kv.Set(preparedKey(record.Xid), json.MustMarshal(record))
}

func (s *localStorage) Remove(xid meta.Xid) error {
	return s.kv.Remove(preparedKey(xid))
}

func (s *localStorage) Load(applyFunc func(*meta.PreparedRecord) error) error {
	var applyErr error
	err := s.kv.Range(preparedPrefix, 0, func(key, value []byte) bool {
		r := &meta.PreparedRecord{}
		json.MustUnmarshal(r, value)
		applyErr = applyFunc(r)
		return applyErr == nil
	})
	if err != nil {
		return err
	}

	return applyErr
}
