package mem

import (
	"github.com/infinivision/gridcore/pkg/meta"
)

// Storage storage using memory, the records are lost with the process
type Storage struct {
	records *kvTree
}

// NewStorage returns a prepared log implementation by memory
func NewStorage() *Storage {
	return &Storage{
		records: newKVTree(),
	}
}

// Count returns the count of the prepared branches in storage
func (s *Storage) Count() (uint64, error) {
	return uint64(s.records.Count()), nil
}

// Get returns the prepared record
func (s *Storage) Get(xid meta.Xid) (*meta.PreparedRecord, error) {
	return s.records.Get(xid.Key()), nil
}

// Put puts the prepared record into storage
func (s *Storage) Put(record *meta.PreparedRecord) error {
	s.records.Put(record.Xid.Key(), record)
	return nil
}

// Remove remove the prepared record from storage
func (s *Storage) Remove(xid meta.Xid) error {
	s.records.Delete(xid.Key())
	return nil
}

// Load load all prepared records from storage
func (s *Storage) Load(applyFunc func(*meta.PreparedRecord) error) error {
	return s.records.Scan(func(key string, value *meta.PreparedRecord) (bool, error) {
		return true, applyFunc(value)
	})
}
