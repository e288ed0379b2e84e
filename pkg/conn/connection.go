package conn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ids is the process-wide connection id space. The first connection gets 1,
	// ids are never reused and are not unique across processes.
	ids = id.NewMemGenerator()
)

// Connection owns one socket to one member
type Connection struct {
	id       uint64
	endpoint meta.Endpoint

	socket net.Conn
	writer *bufio.Writer
	reader *bufio.Reader
	out    *codec.ObjectDataOutput
	in     *codec.ObjectDataInput

	writeMu sync.Mutex
	readMu  sync.Mutex
	closed  int32
}

// Dial connect to the endpoint
func Dial(ctx context.Context, endpoint meta.Endpoint, opts ...Option) (*Connection, error) {
	cfg := newOptions(opts...)
	addr := endpoint.String()

	ctx, cancel := context.WithTimeout(ctx, cfg.connectTimeout)
	defer cancel()

	dialer := &net.Dialer{
		KeepAlive: -1,
	}
	socket, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		metrics.ConnectionCounter.WithLabelValues(metrics.StatusFailed).Inc()
		if isTimeout(ctx, err) {
			return nil, &Error{Kind: KindConnectTimeout, Addr: addr, Cause: err}
		}

		return nil, &Error{
			Kind:  KindHandshakeFailure,
			Addr:  addr,
			Cause: pkgerrors.Wrap(err, "dial"),
		}
	}

	err = configure(socket, cfg)
	if err != nil {
		socket.Close()
		metrics.ConnectionCounter.WithLabelValues(metrics.StatusFailed).Inc()
		return nil, &Error{
			Kind:  KindHandshakeFailure,
			Addr:  addr,
			Cause: pkgerrors.Wrap(err, "configure socket"),
		}
	}

	c := &Connection{
		id:       id.MustGen(ids),
		endpoint: endpoint,
		socket:   socket,
		writer:   bufio.NewWriterSize(socket, cfg.streamBufferSize),
		reader:   bufio.NewReaderSize(socket, cfg.streamBufferSize),
	}
	c.out = codec.NewObjectDataOutput(c.writer)
	c.in = codec.NewObjectDataInput(c.reader)

	metrics.ConnectionCounter.WithLabelValues(metrics.StatusOpened).Inc()
	log.Debugf("%s: opened", c)
	return c, nil
}

func configure(socket net.Conn, cfg *options) error {
	tcp, ok := socket.(*net.TCPConn)
	if !ok {
		return fmt.Errorf("not a tcp socket %T", socket)
	}

	err := tcp.SetKeepAlive(cfg.keepAlive)
	if err != nil {
		return err
	}

	err = tcp.SetLinger(int(cfg.linger.Seconds()))
	if err != nil {
		return err
	}

	err = tcp.SetReadBuffer(cfg.receiveBufferSize)
	if err != nil {
		return err
	}

	err = tcp.SetWriteBuffer(cfg.sendBufferSize)
	if err != nil {
		return err
	}

	return tcp.SetNoDelay(true)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ID returns the process unique id
func (c *Connection) ID() uint64 {
	return c.id
}

// Endpoint returns the remote endpoint
func (c *Connection) Endpoint() meta.Endpoint {
	return c.endpoint
}

// IsClosed returns true if the connection is closed
func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// WriteRaw write the bytes and flush
func (c *Connection) WriteRaw(data []byte) error {
	return c.write(func() error {
		return c.out.Write(data)
	})
}

// WriteData write the value by its own writer and flush
func (c *Connection) WriteData(value codec.DataWriter) error {
	return c.write(func() error {
		return value.WriteData(c.out)
	})
}

func (c *Connection) write(fn func() error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.IsClosed() {
		return &Error{Kind: KindAlreadyClosed, Addr: c.endpoint.String()}
	}

	err := fn()
	if err == nil {
		err = c.writer.Flush()
	}

	if err != nil {
		log.Errorf("%s: write failed with %+v", c, err)
		c.Close()
		return err
	}

	return nil
}

// Read blocks until one complete payload read into value
func (c *Connection) Read(value codec.DataReader) error {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if c.IsClosed() {
		return &Error{Kind: KindAlreadyClosed, Addr: c.endpoint.String()}
	}

	err := value.ReadData(c.in)
	if err != nil {
		if !c.IsClosed() {
			log.Errorf("%s: read failed with %+v", c, err)
			c.Close()
		}
		return err
	}

	return nil
}

// ReadData blocks until one complete data payload read
func (c *Connection) ReadData() (*codec.Data, error) {
	value := &codec.Data{}
	err := c.Read(value)
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Close close the output, input and the socket, the repeat calls are no-op
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	// the buffered streams have no resources of their own, closing the
	// socket releases both directions and unblocks a pending read
	err := c.socket.Close()
	metrics.ConnectionCounter.WithLabelValues(metrics.StatusClosed).Inc()
	log.Debugf("%s: closed", c)
	return err
}

func (c *Connection) String() string {
	return fmt.Sprintf("Connection [%d -> %s]", c.id, c.endpoint.String())
}
