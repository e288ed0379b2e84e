package partition

import (
	"hash/fnv"
)

const (
	// DefaultCount default partition count
	DefaultCount = 271
)

// Table an immutable snapshot of the partition ownership
type Table struct {
	Version uint64   `json:"version"`
	Owners  []string `json:"owners"`
}

// Count returns the partition count
func (t *Table) Count() int32 {
	return int32(len(t.Owners))
}

// Owner returns the owner member of the partition, "" if not assigned
func (t *Table) Owner(id int32) string {
	if id < 0 || id >= t.Count() {
		return ""
	}

	return t.Owners[id]
}

// Partitions returns all partition ids
func (t *Table) Partitions() []int32 {
	values := make([]int32, 0, len(t.Owners))
	for id := range t.Owners {
		values = append(values, int32(id))
	}
	return values
}

// PartitionsOf returns the partitions owned by the member
func (t *Table) PartitionsOf(member string) []int32 {
	var values []int32
	for id, owner := range t.Owners {
		if owner == member {
			values = append(values, int32(id))
		}
	}
	return values
}

// PartitionOf returns the partition of the key
func PartitionOf(key []byte, count int32) int32 {
	h := fnv.New32a()
	h.Write(key)
	return int32(h.Sum32() % uint32(count))
}
