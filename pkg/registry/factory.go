package registry

import (
	"fmt"
	"net/url"
)

var (
	protocolEtcd   = "etcd"
	protocolConsul = "consul"
)

// NewRegistry returns a registry by url, etcd://host:port?servers=..&lease=..&group=..
// or consul://host:port?group=..
func NewRegistry(addr string) (Registry, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case protocolEtcd:
		return newEtcdRegistry(u)
	case protocolConsul:
		return newConsulRegistry(u)
	}

	return nil, fmt.Errorf("the schema %s is not support", u.Scheme)
}
