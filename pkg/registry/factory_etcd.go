package registry

import (
	"fmt"
	"net/url"
	"time"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/util/format"
	"github.com/infinivision/gridcore/pkg/registry/etcd"
)

const (
	paramServers  = "servers"
	paramUsername = "user"
	paramPassword = "password"

	paramLease = "lease"
	paramGroup = "group"
)

func etcdConfig(u *url.URL) clientv3.Config {
	cfg := clientv3.Config{
		DialTimeout: time.Second * 5,
	}

	servers := []string{fmt.Sprintf("http://%s", u.Host)}
	for _, value := range u.Query()[paramServers] {
		servers = append(servers, fmt.Sprintf("http://%s", value))
	}
	cfg.Endpoints = servers

	cfg.Username = u.Query().Get(paramUsername)
	cfg.Password = u.Query().Get(paramPassword)
	return cfg
}

func etcdOptions(u *url.URL) []etcd.Option {
	var opts []etcd.Option
	lease := u.Query().Get(paramLease)
	if lease != "" {
		opts = append(opts, etcd.WithLease(format.MustParseStrInt64(lease)))
	}

	group := u.Query().Get(paramGroup)
	if group != "" {
		opts = append(opts, etcd.WithGroup(group))
	}
	return opts
}

func newEtcdRegistry(u *url.URL) (Registry, error) {
	client, err := clientv3.New(etcdConfig(u))
	if err != nil {
		return nil, err
	}

	return etcd.NewRegistry(client, etcdOptions(u)...)
}
