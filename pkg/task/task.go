package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
)

const (
	// ActionRead read action
	ActionRead = "read"
	// ActionPut put action
	ActionPut = "put"
	// ActionRemove remove action
	ActionRemove = "remove"
	// ActionListen listen action
	ActionListen = "listen"
)

// Permission the capability a task requires
type Permission struct {
	Type    string
	Name    string
	Actions []string
}

// MapPermission returns a permission on the map
func MapPermission(name string, actions ...string) *Permission {
	return &Permission{
		Type:    "map",
		Name:    name,
		Actions: actions,
	}
}

func (p *Permission) String() string {
	return fmt.Sprintf("%s:%s %s", p.Type, p.Name, strings.Join(p.Actions, ","))
}

// Responder the connection a task responds to
type Responder interface {
	ID() uint64
	IsClosed() bool
	Respond(msg *meta.ClientMessage) error
}

// Authorizer checks the permission of the connection
type Authorizer interface {
	Authorize(conn Responder, permission *Permission) error
}

type allowAll struct{}

func (a allowAll) Authorize(conn Responder, permission *Permission) error {
	return nil
}

// Env the member side collaborators of tasks
type Env struct {
	Member     string
	Partitions *partition.Service
	Invoker    operation.Invoker
}

// Task one request bound to one connection
type Task interface {
	// Decode decodes the request parameters
	Decode(msg *meta.ClientMessage) error
	// Encode encodes the result to the response body
	Encode(result interface{}) (*goetty.ByteBuf, error)
	// RequiredPermission returns nil if the task requires no permission
	RequiredPermission() *Permission
	// DistributedObjectName returns "" for registry-wide tasks
	DistributedObjectName() string
	// MethodName returns the method name for attribution
	MethodName() string
}

// TargetedTask executes one partition operation
type TargetedTask interface {
	Task

	Operation(table *partition.Table) operation.Operation
}

// AllPartitionsTask fans out to all partitions and reduces the partial results
type AllPartitionsTask interface {
	Task

	Factory() operation.Factory
	Reduce(results map[int32]interface{}) (interface{}, error)
}

// LocalTask executes on the member without a partition operation
type LocalTask interface {
	Task

	Call(ctx context.Context, env *Env, conn Responder) (interface{}, error)
}
