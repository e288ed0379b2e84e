package operation

import (
	"context"

	"github.com/infinivision/gridcore/pkg/store"
)

// PutOperation puts a record, the result is the old value
type PutOperation struct {
	PartitionID int32
	Name        string
	Key         []byte
	Value       []byte
}

// Partition returns the target partition
func (op *PutOperation) Partition() int32 { return op.PartitionID }

// Run runs the operation
func (op *PutOperation) Run(ctx context.Context, s *store.Store) (interface{}, error) {
	return s.Put(op.PartitionID, op.Name, op.Key, op.Value), nil
}

// GetOperation gets a record value
type GetOperation struct {
	PartitionID int32
	Name        string
	Key         []byte
}

// Partition returns the target partition
func (op *GetOperation) Partition() int32 { return op.PartitionID }

// Run runs the operation
func (op *GetOperation) Run(ctx context.Context, s *store.Store) (interface{}, error) {
	return s.Get(op.PartitionID, op.Name, op.Key), nil
}

// RemoveOperation removes a record, the result is the old value
type RemoveOperation struct {
	PartitionID int32
	Name        string
	Key         []byte
}

// Partition returns the target partition
func (op *RemoveOperation) Partition() int32 { return op.PartitionID }

// Run runs the operation
func (op *RemoveOperation) Run(ctx context.Context, s *store.Store) (interface{}, error) {
	return s.Remove(op.PartitionID, op.Name, op.Key), nil
}

// KeySetOperation returns the keys of the map in the partition
type KeySetOperation struct {
	PartitionID int32
	Name        string
}

// Partition returns the target partition
func (op *KeySetOperation) Partition() int32 { return op.PartitionID }

// Run runs the operation
func (op *KeySetOperation) Run(ctx context.Context, s *store.Store) (interface{}, error) {
	return s.Keys(op.PartitionID, op.Name), nil
}

// SizeOperation returns the record count of the map in the partition
type SizeOperation struct {
	PartitionID int32
	Name        string
}

// Partition returns the target partition
func (op *SizeOperation) Partition() int32 { return op.PartitionID }

// Run runs the operation
func (op *SizeOperation) Run(ctx context.Context, s *store.Store) (interface{}, error) {
	return s.Len(op.PartitionID, op.Name), nil
}

// KeySetFactory creates KeySetOperation
type KeySetFactory struct {
	Name string
}

// Create creates the operation of the partition
func (f KeySetFactory) Create(partition int32) Operation {
	return &KeySetOperation{PartitionID: partition, Name: f.Name}
}

// SizeFactory creates SizeOperation
type SizeFactory struct {
	Name string
}

// Create creates the operation of the partition
func (f SizeFactory) Create(partition int32) Operation {
	return &SizeOperation{PartitionID: partition, Name: f.Name}
}
