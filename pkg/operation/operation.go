package operation

import (
	"context"
	"errors"

	"github.com/infinivision/gridcore/pkg/store"
)

var (
	// ErrWrongTarget the member does not own the partition
	ErrWrongTarget = errors.New("partition is not owned by the member")
	// ErrMemberLeft the member is not in the cluster
	ErrMemberLeft = errors.New("member left the cluster")
	// ErrStopped the operation service is stopped
	ErrStopped = errors.New("operation service is stopped")
)

// IsRetryable returns true if the error is caused by a partition ownership change
func IsRetryable(err error) bool {
	return errors.Is(err, ErrWrongTarget) || errors.Is(err, ErrMemberLeft)
}

// Operation a partition local operation
type Operation interface {
	// Partition returns the target partition
	Partition() int32
	// Run runs on the partition worker of the owner member
	Run(ctx context.Context, s *store.Store) (interface{}, error)
}

// Factory creates one operation per partition
type Factory interface {
	Create(partition int32) Operation
}

// Invoker invokes the operation on the member
type Invoker interface {
	Invoke(ctx context.Context, member string, op Operation) (interface{}, error)
}
