package cell

import (
	"github.com/fagongzi/util/json"
	"github.com/garyburd/redigo/redis"
	"github.com/infinivision/gridcore/pkg/cedis"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/pkg/errors"
)

// Storage storage using elasticell or redis, all prepared records of the
// cluster are kept in one hash field by the xid key
type Storage struct {
	opts options
	key  string
	cell *cedis.Cedis
}

// NewStorage returns a prepared log implementation by cell
func NewStorage(cell *cedis.Cedis, opts ...Option) *Storage {
	s := &Storage{
		cell: cell,
	}

	for _, opt := range opts {
		opt(&s.opts)
	}
	s.opts.adjust()

	s.key = preparedKey(s.opts.cluster)
	return s
}

// Count returns the count of the prepared branches in storage
func (s *Storage) Count() (uint64, error) {
	count := uint64(0)
	err := s.doWithRetry(func(conn redis.Conn) error {
		value, err := redis.Uint64(conn.Do("HLEN", s.key))
		count = value
		return err
	})

	return count, err
}

// Get returns the prepared record
func (s *Storage) Get(xid meta.Xid) (*meta.PreparedRecord, error) {
	var r *meta.PreparedRecord
	err := s.doWithRetry(func(conn redis.Conn) error {
		ret, err := conn.Do("HGET", s.key, xid.Key())
		if err != nil {
			return err
		}

		if ret != nil {
			data, err := redis.Bytes(ret, err)
			if err != nil {
				return err
			}

			if len(data) != 0 {
				r = &meta.PreparedRecord{}
				json.MustUnmarshal(r, data)
			}
		}

		return nil
	})

	return r, err
}

// Put puts the prepared record into cell
func (s *Storage) Put(record *meta.PreparedRecord) error {
	return s.doWithRetry(func(conn redis.Conn) error {
		_, err := conn.Do("HSET", s.key, record.Xid.Key(), json.MustMarshal(record))
		return err
	})
}

// Remove remove the prepared record from cell
func (s *Storage) Remove(xid meta.Xid) error {
	return s.doWithRetry(func(conn redis.Conn) error {
		_, err := conn.Do("HDEL", s.key, xid.Key())
		return err
	})
}

// Load get the all prepared records from cell
func (s *Storage) Load(applyFunc func(*meta.PreparedRecord) error) error {
	if !s.opts.isCell {
		return s.loadFromRedis(applyFunc)
	}

	return s.doWithRetry(func(conn redis.Conn) error {
		start := []byte("")
		for {
			ret, err := conn.Do("HSCANGET", s.key, start, s.opts.scanBatch)
			if err != nil {
				return err
			}
			if ret == nil {
				return nil
			}

			values, err := redis.StringMap(ret, err)
			if err != nil {
				return err
			}

			for key, value := range values {
				// the start key is included by the range
				if len(start) > 0 && key == string(start) {
					continue
				}

				r := &meta.PreparedRecord{}
				json.MustUnmarshal(r, []byte(value))
				err = applyFunc(r)
				if err != nil {
					return err
				}

				if key > string(start) {
					start = []byte(key)
				}
			}

			if len(values) < s.opts.scanBatch {
				return nil
			}
		}
	})
}

func (s *Storage) loadFromRedis(applyFunc func(*meta.PreparedRecord) error) error {
	return s.doWithRetry(func(conn redis.Conn) error {
		ret, err := conn.Do("HGETALL", s.key)
		if err != nil {
			return err
		}
		if ret == nil {
			return nil
		}

		values, err := redis.StringMap(ret, err)
		if err != nil {
			return err
		}

		for _, value := range values {
			r := &meta.PreparedRecord{}
			json.MustUnmarshal(r, []byte(value))
			err = applyFunc(r)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *Storage) doWithRetry(doFunc func(conn redis.Conn) error) error {
	times := 0

	for {
		conn := s.cell.Get()
		err := doFunc(conn)
		conn.Close()

		if err == nil {
			return nil
		}

		if times >= s.opts.maxRetryTimes {
			return errors.Wrapf(err, "%s after %d retries", s.key, times)
		}
		times++
	}
}
