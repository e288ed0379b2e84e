package member

import (
	"errors"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	"github.com/infinivision/gridcore/pkg/xa"
)

// Cluster the members of one process sharing the partition table and the
// transactional state
type Cluster struct {
	partitions *partition.Service
	invoker    *operation.Cluster
	members    []*Member
	xa         *xa.Service
}

// NewCluster returns a cluster with one member per address, the partitions
// are assigned round robin over the members
func NewCluster(addrs []string, opts ...Option) (*Cluster, error) {
	if len(addrs) == 0 {
		return nil, errors.New("cluster without members")
	}

	value := &options{}
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()

	c := &Cluster{
		partitions: partition.NewService(value.partitions, id.NewSnowflakeGenerator(value.nodeID)),
		invoker:    operation.NewCluster(),
	}
	for _, addr := range addrs {
		c.members = append(c.members, NewMember(addr, c.partitions, c.invoker, opts...))
	}
	c.partitions.Assign(addrs)

	svc, err := xa.NewService(c.partitions, c.members[0].Dispatcher(), value.xaOptions...)
	if err != nil {
		return nil, err
	}
	c.xa = svc
	return c, nil
}

// Start start all members
func (c *Cluster) Start() error {
	for idx, m := range c.members {
		err := m.Start()
		if err != nil {
			for _, started := range c.members[:idx] {
				started.Stop()
			}
			return err
		}
	}

	log.Infof("cluster: %d members started with %d partitions",
		len(c.members),
		c.partitions.Snapshot().Count())
	return nil
}

// Stop stop all members
func (c *Cluster) Stop() {
	for i := len(c.members) - 1; i >= 0; i-- {
		c.members[i].Stop()
	}
}

// Members returns the members
func (c *Cluster) Members() []*Member {
	return c.members
}

// Member returns the member by id
func (c *Cluster) Member(id string) (*Member, bool) {
	for _, m := range c.members {
		if m.ID() == id {
			return m, true
		}
	}

	return nil, false
}

// Partitions returns the partition service
func (c *Cluster) Partitions() *partition.Service {
	return c.partitions
}

// XA returns the xa service
func (c *Cluster) XA() *xa.Service {
	return c.xa
}

// Migrate move the partition to the member
func (c *Cluster) Migrate(id int32, to string) error {
	if _, ok := c.Member(to); !ok {
		return operation.ErrMemberLeft
	}

	_, err := c.partitions.Migrate(id, to)
	return err
}

// LosePartition notify the listeners the partition is lost
func (c *Cluster) LosePartition(id int32, lostBackups int32) {
	table := c.partitions.Snapshot()
	c.partitions.FirePartitionLost(meta.PartitionLostEvent{
		PartitionID: id,
		LostBackup:  lostBackups,
		Member:      table.Owner(id),
	})
}
