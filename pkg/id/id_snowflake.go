package id

import (
	"errors"
	"time"

	"github.com/sony/sonyflake"
)

var (
	// epoch of the snowflake ids, ids of different runs stay ordered
	epoch = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
)

type snowflakeGenerator struct {
	flake *sonyflake.Sonyflake
}

// NewSnowflakeGenerator returns a generator whose ids are unique among the
// nodes with different node ids
func NewSnowflakeGenerator(nodeID uint16) Generator {
	return &snowflakeGenerator{
		flake: sonyflake.NewSonyflake(sonyflake.Settings{
			StartTime: epoch,
			MachineID: func() (uint16, error) {
				return nodeID, nil
			},
		}),
	}
}

func (g *snowflakeGenerator) Gen() (uint64, error) {
	if g.flake == nil {
		return 0, errors.New("snowflake generator not initialized")
	}

	return g.flake.NextID()
}
