package storage

import (
	"github.com/infinivision/gridcore/pkg/meta"
)

// Storage the durable log of the prepared transaction branches
type Storage interface {
	// Count returns the count of the prepared branches in storage
	Count() (uint64, error)
	// Get returns the prepared record, nil if not found
	Get(xid meta.Xid) (*meta.PreparedRecord, error)
	// Put puts the prepared record into storage
	Put(record *meta.PreparedRecord) error
	// Remove remove the prepared record from storage
	Remove(xid meta.Xid) error
	// Load load all prepared records from storage
	Load(applyFunc func(*meta.PreparedRecord) error) error
}
