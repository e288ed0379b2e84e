package partition

import (
	"context"
	"fmt"
	"sync"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
)

// LostListener receives partition lost events
type LostListener func(event meta.PartitionLostEvent)

// Service holds the current partition table of the cluster
type Service struct {
	sync.RWMutex

	table    *Table
	changedC chan struct{}

	ids       id.Generator
	listeners map[string]LostListener
}

// NewService returns a partition service with count unassigned partitions
func NewService(count int32, ids id.Generator) *Service {
	if count <= 0 {
		count = DefaultCount
	}

	return &Service{
		table: &Table{
			Owners: make([]string, count),
		},
		changedC:  make(chan struct{}),
		ids:       ids,
		listeners: make(map[string]LostListener),
	}
}

// Snapshot returns the current table
func (s *Service) Snapshot() *Table {
	s.RLock()
	value := s.table
	s.RUnlock()
	return value
}

// Refresh waits until the table is newer than the version or ctx done,
// returns the current table in both cases
func (s *Service) Refresh(ctx context.Context, version uint64) *Table {
	for {
		s.RLock()
		table, changedC := s.table, s.changedC
		s.RUnlock()

		if table.Version > version {
			return table
		}

		select {
		case <-changedC:
		case <-ctx.Done():
			return s.Snapshot()
		}
	}
}

// Assign assign all partitions to the members by round robin
func (s *Service) Assign(members []string) *Table {
	if len(members) == 0 {
		log.Fatalf("partition: assign without members")
	}

	s.Lock()
	owners := make([]string, len(s.table.Owners))
	for id := range owners {
		owners[id] = members[id%len(members)]
	}
	table := s.update(owners)
	s.Unlock()

	log.Infof("partition: %d partitions assigned to %d members, version %d",
		len(owners),
		len(members),
		table.Version)
	return table
}

// Migrate move the partition to the member
func (s *Service) Migrate(partition int32, to string) (*Table, error) {
	s.Lock()
	defer s.Unlock()

	if partition < 0 || partition >= s.table.Count() {
		return nil, fmt.Errorf("partition %d out of range", partition)
	}

	owners := make([]string, len(s.table.Owners))
	copy(owners, s.table.Owners)
	from := owners[partition]
	owners[partition] = to
	table := s.update(owners)

	log.Infof("%s: migrated from %s to %s, version %d",
		meta.TagPartition(partition),
		from,
		to,
		table.Version)
	return table, nil
}

func (s *Service) update(owners []string) *Table {
	s.table = &Table{
		Version: s.table.Version + 1,
		Owners:  owners,
	}
	close(s.changedC)
	s.changedC = make(chan struct{})
	return s.table
}

// AddPartitionLostListener add a listener, returns the registration id
func (s *Service) AddPartitionLostListener(listener LostListener) (string, error) {
	registration, err := id.GenString(s.ids)
	if err != nil {
		return "", err
	}

	s.Lock()
	s.listeners[registration] = listener
	s.Unlock()
	return registration, nil
}

// RemovePartitionLostListener remove the listener, returns false if not registered
func (s *Service) RemovePartitionLostListener(registration string) bool {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.listeners[registration]; !ok {
		return false
	}

	delete(s.listeners, registration)
	return true
}

// FirePartitionLost notify all listeners
func (s *Service) FirePartitionLost(event meta.PartitionLostEvent) {
	s.RLock()
	listeners := make([]LostListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.RUnlock()

	log.Warnf("%s: lost, backup %d, member %s",
		meta.TagPartition(event.PartitionID),
		event.LostBackup,
		event.Member)
	for _, l := range listeners {
		l(event)
	}
}
