package operation

import (
	"context"
	"sync"
)

// Cluster routes operations to the operation services of the members in
// this process
type Cluster struct {
	sync.RWMutex

	members map[string]*Service
}

// NewCluster returns a empty cluster
func NewCluster() *Cluster {
	return &Cluster{
		members: make(map[string]*Service),
	}
}

// Join add the member service
func (c *Cluster) Join(svc *Service) {
	c.Lock()
	c.members[svc.Member()] = svc
	c.Unlock()
}

// Leave remove the member
func (c *Cluster) Leave(member string) {
	c.Lock()
	delete(c.members, member)
	c.Unlock()
}

// Members returns the member ids
func (c *Cluster) Members() []string {
	c.RLock()
	defer c.RUnlock()

	var values []string
	for member := range c.members {
		values = append(values, member)
	}
	return values
}

// Invoke invoke the operation on the member
func (c *Cluster) Invoke(ctx context.Context, member string, op Operation) (interface{}, error) {
	c.RLock()
	svc, ok := c.members[member]
	c.RUnlock()

	if !ok {
		return nil, ErrMemberLeft
	}

	return svc.Execute(ctx, op)
}
