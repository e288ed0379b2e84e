package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/infinivision/gridcore/pkg/conn"
	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/task"
	"github.com/pkg/errors"
)

// PartitionLostHandler handle the partition lost events
type PartitionLostHandler func(event meta.PartitionLostEvent)

// Cfg client cfg
type Cfg struct {
	Addr        string
	Timeout     time.Duration
	Codec       *codec.Codec
	ConnOptions []conn.Option
}

func (cfg *Cfg) adjust() {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second * 10
	}

	if cfg.Codec == nil {
		cfg.Codec = codec.New()
	}
}

// Client a client bound to one member, the requests of all goroutines are
// multiplexed on one connection and matched by correlation id
type Client struct {
	cfg  Cfg
	conn *conn.Connection
	ids  id.Generator

	calls     sync.Map
	listeners sync.Map
	closeOnce sync.Once
	closedC   chan struct{}

	// registration -> correlation id of the listener
	registrations sync.Map
}

// NewClient connect to the member and returns a client
func NewClient(ctx context.Context, cfg Cfg) (*Client, error) {
	cfg.adjust()

	endpoint, err := meta.ParseEndpoint(cfg.Addr)
	if err != nil {
		return nil, err
	}

	c, err := conn.Dial(ctx, endpoint, cfg.ConnOptions...)
	if err != nil {
		return nil, err
	}

	value := &Client{
		cfg:     cfg,
		conn:    c,
		ids:     id.NewMemGenerator(),
		closedC: make(chan struct{}),
	}
	go value.readLoop()
	return value, nil
}

// Close close the client, the pending calls are failed
func (c *Client) Close() error {
	err := c.conn.Close()
	c.closeOnce.Do(func() {
		close(c.closedC)
	})
	return err
}

// MapPut put the value and returns the old value, nil if absent
func (c *Client) MapPut(ctx context.Context, name string, key, value interface{}) (interface{}, error) {
	k, err := c.cfg.Codec.EncodeValue(key)
	if err != nil {
		return nil, err
	}

	v, err := c.cfg.Codec.EncodeValue(value)
	if err != nil {
		return nil, err
	}

	body := goetty.NewByteBuf(16 + len(name) + len(k) + len(v))
	meta.WriteString(name, body)
	meta.WriteData(k, body)
	meta.WriteData(v, body)
	return c.callForValue(ctx, meta.TypeMapPut, body)
}

// MapGet returns the value, nil if absent
func (c *Client) MapGet(ctx context.Context, name string, key interface{}) (interface{}, error) {
	body, err := c.keyBody(name, key)
	if err != nil {
		return nil, err
	}

	return c.callForValue(ctx, meta.TypeMapGet, body)
}

// MapRemove remove the key and returns the old value, nil if absent
func (c *Client) MapRemove(ctx context.Context, name string, key interface{}) (interface{}, error) {
	body, err := c.keyBody(name, key)
	if err != nil {
		return nil, err
	}

	return c.callForValue(ctx, meta.TypeMapRemove, body)
}

// MapKeySet returns the keys of all partitions
func (c *Client) MapKeySet(ctx context.Context, name string) ([]interface{}, error) {
	body := goetty.NewByteBuf(16 + len(name))
	meta.WriteString(name, body)

	rsp, err := c.call(ctx, meta.TypeMapKeySet, meta.AnyPartition, body)
	if err != nil {
		return nil, err
	}
	defer rsp.Release()

	data, ok := meta.MaybeReadDataSlice(rsp)
	if !ok {
		return nil, codec.ErrTruncatedStream
	}

	keys := make([]interface{}, 0, len(data))
	for _, value := range data {
		key, err := c.cfg.Codec.DecodeValue(value)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// MapSize returns the entry count of all partitions
func (c *Client) MapSize(ctx context.Context, name string) (uint64, error) {
	body := goetty.NewByteBuf(16 + len(name))
	meta.WriteString(name, body)

	rsp, err := c.call(ctx, meta.TypeMapSize, meta.AnyPartition, body)
	if err != nil {
		return 0, err
	}
	defer rsp.Release()

	if rsp.Readable() < 8 {
		return 0, codec.ErrTruncatedStream
	}
	return meta.ReadUInt64(rsp), nil
}

// AddPartitionLostListener register the handler, returns the registration id.
// The handler runs on the read goroutine of the client.
func (c *Client) AddPartitionLostListener(ctx context.Context, handler PartitionLostHandler) (string, error) {
	correlationID := id.MustGen(c.ids)
	c.listeners.Store(correlationID, handler)

	rsp, err := c.doCall(ctx, correlationID, meta.TypeAddPartitionLostListener, meta.AnyPartition, nil)
	if err != nil {
		c.listeners.Delete(correlationID)
		return "", err
	}
	defer rsp.Release()

	registration, ok := meta.MaybeReadString(rsp)
	if !ok {
		c.listeners.Delete(correlationID)
		return "", codec.ErrTruncatedStream
	}

	c.registrations.Store(registration, correlationID)
	return registration, nil
}

// RemovePartitionLostListener remove the registration, returns false if the
// registration is unknown
func (c *Client) RemovePartitionLostListener(ctx context.Context, registration string) (bool, error) {
	body := goetty.NewByteBuf(16 + len(registration))
	meta.WriteString(registration, body)

	rsp, err := c.call(ctx, meta.TypeRemovePartitionLostListener, meta.AnyPartition, body)
	if err != nil {
		return false, err
	}
	defer rsp.Release()

	if rsp.Readable() < 1 {
		return false, codec.ErrTruncatedStream
	}

	if correlationID, ok := c.registrations.Load(registration); ok {
		c.registrations.Delete(registration)
		c.listeners.Delete(correlationID)
	}
	return meta.ReadBool(rsp), nil
}

func (c *Client) keyBody(name string, key interface{}) (*goetty.ByteBuf, error) {
	k, err := c.cfg.Codec.EncodeValue(key)
	if err != nil {
		return nil, err
	}

	body := goetty.NewByteBuf(16 + len(name) + len(k))
	meta.WriteString(name, body)
	meta.WriteData(k, body)
	return body, nil
}

func (c *Client) callForValue(ctx context.Context, t meta.MessageType, body *goetty.ByteBuf) (interface{}, error) {
	rsp, err := c.call(ctx, t, meta.AnyPartition, body)
	if err != nil {
		return nil, err
	}
	defer rsp.Release()

	data, ok := meta.MaybeReadData(rsp)
	if !ok {
		return nil, codec.ErrTruncatedStream
	}

	if codec.IsNull(data) {
		return nil, nil
	}
	return c.cfg.Codec.DecodeValue(data)
}

func (c *Client) call(ctx context.Context, t meta.MessageType, partition int32, body *goetty.ByteBuf) (*goetty.ByteBuf, error) {
	return c.doCall(ctx, id.MustGen(c.ids), t, partition, body)
}

func (c *Client) doCall(ctx context.Context, correlationID uint64, t meta.MessageType, partition int32, body *goetty.ByteBuf) (*goetty.ByteBuf, error) {
	req := meta.NewRequest(t, partition, body)
	req.CorrelationID = correlationID

	completeC := make(chan *meta.ClientMessage, 1)
	c.calls.Store(correlationID, completeC)
	defer c.calls.Delete(correlationID)

	err := c.conn.WriteData(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	select {
	case rsp := <-completeC:
		if rsp.IsError() {
			return nil, rsp.ErrorResponse().Err()
		}
		return rsp.BodyBuf(), nil
	case <-c.closedC:
		return nil, meta.ErrClosed
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "%s", req)
	}
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		msg := &meta.ClientMessage{}
		err := c.conn.Read(msg)
		if err != nil {
			if !c.conn.IsClosed() {
				log.Errorf("%s: read failed with %+v", c, err)
			}
			return
		}

		if msg.IsEvent() {
			c.onEvent(msg)
			continue
		}

		if value, ok := c.calls.Load(msg.CorrelationID); ok {
			value.(chan *meta.ClientMessage) <- msg
			continue
		}

		log.Debugf("%s: drop %s, the call is completed", c, msg)
	}
}

func (c *Client) onEvent(msg *meta.ClientMessage) {
	value, ok := c.listeners.Load(msg.CorrelationID)
	if !ok {
		log.Debugf("%s: drop %s, no listener", c, msg)
		return
	}

	switch msg.Type {
	case meta.TypePartitionLostEvent:
		event, ok := task.DecodePartitionLostEvent(msg)
		if !ok {
			log.Errorf("%s: bad event %s", c, msg)
			return
		}
		value.(PartitionLostHandler)(event)
	default:
		log.Warnf("%s: unknown event %s", c, msg)
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("client[%s]", c.cfg.Addr)
}
