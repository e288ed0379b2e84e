package mem

import (
	"sync"

	"github.com/google/btree"
	"github.com/infinivision/gridcore/pkg/meta"
)

type treeItem struct {
	key   string
	value *meta.PreparedRecord
}

// Less returns true if the item key is less than the other.
func (item *treeItem) Less(other btree.Item) bool {
	return item.key < other.(*treeItem).key
}

// kvTree prepared records ordered by xid key
type kvTree struct {
	sync.RWMutex
	tree *btree.BTree
}

func newKVTree() *kvTree {
	return &kvTree{
		tree: btree.New(64),
	}
}

// Count returns number of currently values
func (kv *kvTree) Count() int {
	kv.RLock()
	defer kv.RUnlock()

	return kv.tree.Len()
}

// Put puts a key, value to the tree
func (kv *kvTree) Put(key string, value *meta.PreparedRecord) {
	kv.Lock()
	kv.tree.ReplaceOrInsert(&treeItem{
		key:   key,
		value: value,
	})
	kv.Unlock()
}

// Delete deletes a key, return false if not the key is not exists
func (kv *kvTree) Delete(key string) bool {
	kv.Lock()
	defer kv.Unlock()

	return nil != kv.tree.Delete(&treeItem{key: key})
}

// Get get value, return nil if not the key is not exists
func (kv *kvTree) Get(key string) *meta.PreparedRecord {
	kv.RLock()
	defer kv.RUnlock()

	item := kv.tree.Get(&treeItem{key: key})
	if item == nil {
		return nil
	}

	return item.(*treeItem).value
}

// Scan scans all values in key order, stop if handler returns false or error
func (kv *kvTree) Scan(handler func(key string, value *meta.PreparedRecord) (bool, error)) error {
	kv.RLock()
	var items []*treeItem
	kv.tree.Ascend(func(i btree.Item) bool {
		items = append(items, i.(*treeItem))
		return true
	})
	kv.RUnlock()

	for _, item := range items {
		next, err := handler(item.key, item.value)
		if err != nil {
			return err
		}

		if !next {
			break
		}
	}

	return nil
}
