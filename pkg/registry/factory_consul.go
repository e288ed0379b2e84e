package registry

import (
	"net/url"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/infinivision/gridcore/pkg/registry/consul"
)

func newConsulRegistry(u *url.URL) (Registry, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = u.Host
	cfg.Scheme = "http"

	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	var opts []consul.Option
	group := u.Query().Get(paramGroup)
	if group != "" {
		opts = append(opts, consul.WithGroup(group))
	}

	return consul.NewRegistry(cli, opts...)
}
