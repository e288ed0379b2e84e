package conn

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func startEchoServer(t *testing.T) (net.Listener, meta.Endpoint) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err, "check listen failed")

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}

			go func() {
				defer c.Close()
				io.Copy(c, c)
			}()
		}
	}()

	addr := l.Addr().(*net.TCPAddr)
	return l, meta.NewEndpoint("127.0.0.1", addr.Port)
}

func TestDialAndEcho(t *testing.T) {
	l, endpoint := startEchoServer(t)
	defer l.Close()

	c, err := Dial(context.Background(), endpoint)
	assert.Nil(t, err, "check dial failed")
	defer c.Close()

	assert.True(t, c.ID() > 0, "check id failed")
	assert.Equal(t, endpoint, c.Endpoint(), "check endpoint failed")

	payload := []byte{byte(codec.TagInt32), 0, 0, 0, 9}
	assert.Nil(t, c.WriteData(codec.NewData(payload)), "check write data failed")

	value, err := c.ReadData()
	assert.Nil(t, err, "check read data failed")
	assert.Equal(t, payload, value.Payload, "check payload failed")

	assert.Nil(t, c.WriteRaw([]byte{0, 0, 0, 1, 7}), "check write raw failed")
	value, err = c.ReadData()
	assert.Nil(t, err, "check read raw failed")
	assert.Equal(t, []byte{7}, value.Payload, "check raw payload failed")
}

func TestDistinctIDs(t *testing.T) {
	l, endpoint := startEchoServer(t)
	defer l.Close()

	n := 20
	conns := make(chan *Connection, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := Dial(context.Background(), endpoint)
			if err == nil {
				conns <- c
			}
		}()
	}
	wg.Wait()
	close(conns)

	ids := make(map[uint64]struct{})
	for c := range conns {
		ids[c.ID()] = struct{}{}
		c.Close()
	}
	assert.Equal(t, n, len(ids), "check distinct ids failed")
}

func TestCloseIdempotent(t *testing.T) {
	l, endpoint := startEchoServer(t)
	defer l.Close()

	c, err := Dial(context.Background(), endpoint)
	assert.Nil(t, err, "check dial failed")

	assert.Nil(t, c.Close(), "check first close failed")
	assert.Nil(t, c.Close(), "check second close failed")
	assert.True(t, c.IsClosed(), "check closed failed")

	err = c.WriteRaw([]byte{1})
	assert.True(t, errors.Is(err, ErrAlreadyClosed), "check write after close failed")

	_, err = c.ReadData()
	assert.True(t, errors.Is(err, ErrAlreadyClosed), "check read after close failed")
}

func TestDialFailed(t *testing.T) {
	l, endpoint := startEchoServer(t)
	l.Close()

	_, err := Dial(context.Background(), endpoint, WithConnectTimeout(time.Second))
	assert.NotNil(t, err, "check dial closed port failed")

	var value *Error
	assert.True(t, errors.As(err, &value), "check error type failed")
	assert.True(t, value.Kind == KindHandshakeFailure || value.Kind == KindConnectTimeout, "check error kind failed")
}

func TestReadAfterPeerClosed(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err, "check listen failed")
	defer l.Close()

	go func() {
		c, err := l.Accept()
		if err == nil {
			c.Write([]byte{0, 0, 0, 8, 1})
			c.Close()
		}
	}()

	endpoint := meta.NewEndpoint("127.0.0.1", l.Addr().(*net.TCPAddr).Port)
	c, err := Dial(context.Background(), endpoint)
	assert.Nil(t, err, "check dial failed")

	_, err = c.ReadData()
	assert.True(t, errors.Is(err, codec.ErrTruncatedStream), "check truncated failed")
	assert.True(t, c.IsClosed(), "check closed on failure failed")
}

func TestOptions(t *testing.T) {
	opts := newOptions()
	assert.Equal(t, time.Millisecond*3000, opts.connectTimeout, "check connect timeout failed")
	assert.Equal(t, time.Second*5, opts.linger, "check linger failed")
	assert.Equal(t, 16<<10, opts.sendBufferSize, "check send buffer failed")
	assert.Equal(t, 16<<10, opts.receiveBufferSize, "check receive buffer failed")
	assert.True(t, opts.keepAlive, "check keepalive failed")

	opts = newOptions(WithKeepAlive(false), WithLinger(0))
	assert.False(t, opts.keepAlive, "check keepalive option failed")
	assert.Equal(t, time.Duration(0), opts.linger, "check linger option failed")
}
