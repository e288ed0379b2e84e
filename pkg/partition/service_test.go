package partition

import (
	"context"
	"testing"
	"time"

	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func TestPartitionOf(t *testing.T) {
	p := PartitionOf([]byte("key"), 271)
	assert.True(t, p >= 0 && p < 271, "check range failed")
	assert.Equal(t, p, PartitionOf([]byte("key"), 271), "check stable failed")
}

func TestAssignAndMigrate(t *testing.T) {
	s := NewService(7, id.NewMemGenerator())
	table := s.Assign([]string{"m1", "m2"})
	assert.Equal(t, uint64(1), table.Version, "check version failed")
	assert.Equal(t, int32(7), table.Count(), "check count failed")
	assert.Equal(t, []int32{0, 2, 4, 6}, table.PartitionsOf("m1"), "check m1 partitions failed")
	assert.Equal(t, "m2", table.Owner(1), "check owner failed")
	assert.Equal(t, "", table.Owner(7), "check out of range failed")

	next, err := s.Migrate(1, "m1")
	assert.Nil(t, err, "check migrate failed")
	assert.Equal(t, uint64(2), next.Version, "check version failed")
	assert.Equal(t, "m1", next.Owner(1), "check migrated owner failed")
	assert.Equal(t, "m2", table.Owner(1), "check snapshot immutable failed")

	_, err = s.Migrate(100, "m1")
	assert.NotNil(t, err, "check migrate out of range failed")
}

func TestRefresh(t *testing.T) {
	s := NewService(3, id.NewMemGenerator())
	table := s.Assign([]string{"m1"})

	go func() {
		time.Sleep(time.Millisecond * 20)
		s.Migrate(0, "m2")
	}()

	value := s.Refresh(context.Background(), table.Version)
	assert.Equal(t, table.Version+1, value.Version, "check refresh failed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()
	value = s.Refresh(ctx, value.Version)
	assert.Equal(t, table.Version+1, value.Version, "check refresh timeout failed")
}

func TestPartitionLostListener(t *testing.T) {
	s := NewService(3, id.NewMemGenerator())

	var events []meta.PartitionLostEvent
	registration, err := s.AddPartitionLostListener(func(event meta.PartitionLostEvent) {
		events = append(events, event)
	})
	assert.Nil(t, err, "check add listener failed")

	s.FirePartitionLost(meta.PartitionLostEvent{PartitionID: 1})
	assert.Equal(t, 1, len(events), "check event failed")

	assert.True(t, s.RemovePartitionLostListener(registration), "check remove failed")
	assert.False(t, s.RemovePartitionLostListener(registration), "check remove twice failed")

	s.FirePartitionLost(meta.PartitionLostEvent{PartitionID: 2})
	assert.Equal(t, 1, len(events), "check removed listener failed")
}
