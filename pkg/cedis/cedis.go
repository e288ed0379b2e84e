package cedis

import (
	"sync/atomic"

	"github.com/garyburd/redigo/redis"
)

// Cedis redis client over the elasticell proxies or redis servers, the
// connections are picked round robin over the proxies
type Cedis struct {
	ops        uint64
	opts       options
	proxyPools []*redis.Pool
}

// NewCedis create a elasticell client
func NewCedis(opts ...Option) *Cedis {
	c := &Cedis{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	c.opts.adjust()

	for _, proxy := range c.opts.proxies {
		c.proxyPools = append(c.proxyPools, c.newPool(proxy))
	}

	return c
}

func (c *Cedis) newPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxActive:   c.opts.maxActive,
		MaxIdle:     c.opts.maxIdle,
		IdleTimeout: c.opts.idleTimeout,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp",
				addr,
				redis.DialWriteTimeout(c.opts.writeTimeout),
				redis.DialConnectTimeout(c.opts.dialTimeout),
				redis.DialReadTimeout(c.opts.readTimeout))
		},
	}
}

// Get returns a redis connection, the caller must close it
func (c *Cedis) Get() redis.Conn {
	return c.proxyPools[int(atomic.AddUint64(&c.ops, 1)%uint64(len(c.proxyPools)))].Get()
}

// Do executes the command on a pooled connection
func (c *Cedis) Do(cmd string, args ...interface{}) (interface{}, error) {
	conn := c.Get()
	defer conn.Close()

	return conn.Do(cmd, args...)
}

// Eval executes the script on a pooled connection
func (c *Cedis) Eval(script *redis.Script, keysAndArgs ...interface{}) (interface{}, error) {
	conn := c.Get()
	defer conn.Close()

	return script.Do(conn, keysAndArgs...)
}

// Ping returns nil if the proxy is reachable
func (c *Cedis) Ping() error {
	_, err := c.Do("PING")
	return err
}

// Close close all pools
func (c *Cedis) Close() error {
	var err error
	for _, pool := range c.proxyPools {
		if e := pool.Close(); e != nil {
			err = e
		}
	}
	return err
}
