package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

type treeItem struct {
	key   []byte
	value []byte
}

// Less returns true if the item key is less than the other.
func (item *treeItem) Less(other btree.Item) bool {
	return bytes.Compare(item.key, other.(*treeItem).key) < 0
}

// recordTree ordered records of one map in one partition
type recordTree struct {
	sync.RWMutex
	tree *btree.BTree
}

func newRecordTree() *recordTree {
	return &recordTree{
		tree: btree.New(64),
	}
}

// Len returns number of records
func (rt *recordTree) Len() int {
	rt.RLock()
	defer rt.RUnlock()

	return rt.tree.Len()
}

// Put puts a record, returns the old value
func (rt *recordTree) Put(key, value []byte) []byte {
	rt.Lock()
	defer rt.Unlock()

	old := rt.tree.ReplaceOrInsert(&treeItem{
		key:   key,
		value: value,
	})
	if old == nil {
		return nil
	}

	return old.(*treeItem).value
}

// Delete deletes a record, returns the old value
func (rt *recordTree) Delete(key []byte) []byte {
	rt.Lock()
	defer rt.Unlock()

	old := rt.tree.Delete(&treeItem{key: key})
	if old == nil {
		return nil
	}

	return old.(*treeItem).value
}

// Get returns the value, nil if the key is not exists
func (rt *recordTree) Get(key []byte) []byte {
	rt.RLock()
	defer rt.RUnlock()

	item := rt.tree.Get(&treeItem{key: key})
	if item == nil {
		return nil
	}

	return item.(*treeItem).value
}

// Scan scans all records in key order
func (rt *recordTree) Scan(handler func(key, value []byte) bool) {
	rt.RLock()
	var items []*treeItem
	rt.tree.Ascend(func(i btree.Item) bool {
		items = append(items, i.(*treeItem))
		return true
	})
	rt.RUnlock()

	for _, item := range items {
		if !handler(item.key, item.value) {
			return
		}
	}
}
