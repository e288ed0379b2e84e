package member

import (
	"context"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/conn"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err, "check listen failed")
	defer l.Close()
	return l.Addr().String()
}

func TestNewClusterWithoutMembers(t *testing.T) {
	_, err := NewCluster(nil)
	assert.NotNil(t, err, "check empty cluster failed")
}

func TestOptionsDefaultToCPUCount(t *testing.T) {
	opts := &options{}
	opts.adjust()
	assert.Equal(t, runtime.NumCPU(), opts.reactorLoops, "check default loops failed")
	assert.Equal(t, uint64(runtime.NumCPU()), opts.operationWorkers, "check default workers failed")

	opts = &options{}
	WithReactorLoops(3)(opts)
	WithOperationWorkers(5)(opts)
	opts.adjust()
	assert.Equal(t, 3, opts.reactorLoops, "check loops failed")
	assert.Equal(t, uint64(5), opts.operationWorkers, "check workers failed")
}

func TestClusterAssign(t *testing.T) {
	addrs := []string{freeAddr(t), freeAddr(t), freeAddr(t)}
	c, err := NewCluster(addrs, WithPartitions(9))
	assert.Nil(t, err, "check create cluster failed")

	table := c.Partitions().Snapshot()
	assert.Equal(t, int32(9), table.Count(), "check partition count failed")
	for _, addr := range addrs {
		assert.Equal(t, 3, len(table.PartitionsOf(addr)), "check partitions of %s failed", addr)
	}

	m, ok := c.Member(addrs[1])
	assert.True(t, ok, "check member failed")
	assert.Equal(t, addrs[1], m.ID(), "check member id failed")

	_, ok = c.Member("unknown:1")
	assert.False(t, ok, "check unknown member failed")
	assert.NotNil(t, c.XA(), "check xa failed")
}

func TestServeRawFrames(t *testing.T) {
	addrs := []string{freeAddr(t)}
	c, err := NewCluster(addrs, WithPartitions(4), WithReactorLoops(1))
	assert.Nil(t, err, "check create cluster failed")
	assert.Nil(t, c.Start(), "check start failed")
	defer c.Stop()

	endpoint, err := meta.ParseEndpoint(addrs[0])
	assert.Nil(t, err, "check endpoint failed")

	cc, err := conn.Dial(context.Background(), endpoint)
	assert.Nil(t, err, "check dial failed")
	defer cc.Close()

	body := goetty.NewByteBuf(32)
	meta.WriteString("m", body)
	req := meta.NewRequest(meta.TypeMapSize, meta.AnyPartition, body)
	req.CorrelationID = 42
	assert.Nil(t, cc.WriteData(req), "check write failed")

	rsp := &meta.ClientMessage{}
	assert.Nil(t, cc.Read(rsp), "check read failed")
	assert.True(t, rsp.IsResponse(), "check response failed")
	assert.False(t, rsp.IsError(), "check error failed")
	assert.Equal(t, uint64(42), rsp.CorrelationID, "check correlation failed")

	buf := rsp.BodyBuf()
	assert.Equal(t, uint64(0), meta.ReadUInt64(buf), "check size failed")
	buf.Release()

	req = meta.NewRequest(meta.MessageType(0x7fff), meta.AnyPartition, nil)
	req.CorrelationID = 43
	assert.Nil(t, cc.WriteData(req), "check write unknown failed")

	rsp = &meta.ClientMessage{}
	assert.Nil(t, cc.Read(rsp), "check read unknown failed")
	assert.True(t, rsp.IsError(), "check unknown error failed")
	assert.True(t, rsp.ErrorResponse().Is(meta.ErrTargetNotFound), "check unknown code failed")

	m, _ := c.Member(addrs[0])
	assert.Equal(t, 1, m.Sessions(), "check sessions failed")

	cc.Close()
	deadline := time.Now().Add(time.Second * 5)
	for m.Sessions() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond * 10)
	}
	assert.Equal(t, 0, m.Sessions(), "check sessions after close failed")
}
