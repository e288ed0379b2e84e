package storage

import (
	"fmt"
	"net/url"

	"github.com/fagongzi/util/format"
	"github.com/infinivision/gridcore/pkg/cedis"
	"github.com/infinivision/gridcore/pkg/local"
	"github.com/infinivision/gridcore/pkg/storage/cell"
	"github.com/infinivision/gridcore/pkg/storage/mem"
)

const (
	protocolMem    = "mem"
	protocolCell   = "cell"
	protocolRedis  = "redis"
	protocolBadger = "badger"
)

const (
	paramMaxRetryTimes = "retry"
	paramCluster       = "cluster"
)

// CreateStorage returns the prepared log storage by the url, examples:
// mem://
// badger:///var/lib/gridcore/xa
// redis://ip:port?cluster=c1&retry=3
// cell://ip:port?proxy=ip:port&retry=3&maxActive=100&maxIdle=10&idleTimeout=30&dialTimeout=10&readTimeout=30&writeTimeout=10
func CreateStorage(protocolAddr string) (Storage, error) {
	u, err := url.Parse(protocolAddr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case protocolMem:
		return mem.NewStorage(), nil
	case protocolCell:
		return createCellStorage(u, true)
	case protocolRedis:
		return createCellStorage(u, false)
	case protocolBadger:
		kv, err := local.NewBadgerStorage(u.Path)
		if err != nil {
			return nil, err
		}
		return NewLocalStorage(kv), nil
	}

	return nil, fmt.Errorf("the schema %s is not support", u.Scheme)
}

func createCellStorage(u *url.URL, isCell bool) (Storage, error) {
	opts := []cell.Option{cell.WithElasticell(isCell)}
	retry := u.Query().Get(paramMaxRetryTimes)
	if retry != "" {
		opts = append(opts, cell.WithRetry(format.MustParseStrInt(retry)))
	}

	cluster := u.Query().Get(paramCluster)
	if cluster != "" {
		opts = append(opts, cell.WithCluster(cluster))
	}

	return cell.NewStorage(cedis.NewCedis(cedis.OptionsFromURL(u)...), opts...), nil
}
