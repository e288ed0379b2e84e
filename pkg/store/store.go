package store

import (
	"sync"
)

// Store partition owned map records
type Store struct {
	sync.RWMutex

	partitions map[int32]map[string]*recordTree
}

// New returns a empty store
func New() *Store {
	return &Store{
		partitions: make(map[int32]map[string]*recordTree),
	}
}

func (s *Store) tree(partition int32, name string, create bool) *recordTree {
	s.RLock()
	if maps, ok := s.partitions[partition]; ok {
		if rt, ok := maps[name]; ok {
			s.RUnlock()
			return rt
		}
	}
	s.RUnlock()

	if !create {
		return nil
	}

	s.Lock()
	defer s.Unlock()

	maps, ok := s.partitions[partition]
	if !ok {
		maps = make(map[string]*recordTree)
		s.partitions[partition] = maps
	}

	rt, ok := maps[name]
	if !ok {
		rt = newRecordTree()
		maps[name] = rt
	}
	return rt
}

// Put puts the record, returns the old value
func (s *Store) Put(partition int32, name string, key, value []byte) []byte {
	return s.tree(partition, name, true).Put(key, value)
}

// Get returns the value, nil if not exists
func (s *Store) Get(partition int32, name string, key []byte) []byte {
	if rt := s.tree(partition, name, false); rt != nil {
		return rt.Get(key)
	}

	return nil
}

// Remove removes the record, returns the old value
func (s *Store) Remove(partition int32, name string, key []byte) []byte {
	if rt := s.tree(partition, name, false); rt != nil {
		return rt.Delete(key)
	}

	return nil
}

// Keys returns all keys of the map in the partition
func (s *Store) Keys(partition int32, name string) [][]byte {
	keys := [][]byte{}
	if rt := s.tree(partition, name, false); rt != nil {
		rt.Scan(func(key, value []byte) bool {
			keys = append(keys, key)
			return true
		})
	}

	return keys
}

// Len returns the record count of the map in the partition
func (s *Store) Len(partition int32, name string) int {
	if rt := s.tree(partition, name, false); rt != nil {
		return rt.Len()
	}

	return 0
}
