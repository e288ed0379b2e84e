package consul

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fagongzi/log"
	consulapi "github.com/hashicorp/consul/api"
	"github.com/infinivision/gridcore/pkg/meta"
)

var (
	registryKeyPrefix = "registry-gridcore-"
)

// Registry consul registry
type Registry struct {
	opts options
	cli  *consulapi.Client
}

// NewRegistry returns a new consul registry
func NewRegistry(cli *consulapi.Client, opts ...Option) (*Registry, error) {
	reg := &Registry{
		cli: cli,
	}
	for _, opt := range opts {
		opt(&reg.opts)
	}
	reg.opts.adjust()
	return reg, nil
}

// Register registers the member to Consul, consul keeps the member alive by
// a tcp check on the client address
func (r *Registry) Register(member meta.MemberInfo) error {
	svc, err := r.service(member)
	if err != nil {
		return err
	}

	err = r.cli.Agent().ServiceRegister(svc)
	if err != nil {
		return err
	}

	log.Infof("[registry-consul]: %s registered as %s", member.ID, svc.Name)
	return nil
}

// Deregister removes the member from Consul
func (r *Registry) Deregister(member meta.MemberInfo) error {
	return r.cli.Agent().ServiceDeregister(member.ID)
}

func (r *Registry) service(member meta.MemberInfo) (*consulapi.AgentServiceRegistration, error) {
	host, portstr, err := net.SplitHostPort(member.Addr)
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(portstr)
	if err != nil {
		return nil, err
	}

	svc := &consulapi.AgentServiceRegistration{
		ID:      member.ID,
		Name:    r.registryKey(),
		Address: host,
		Port:    port,
		Tags:    []string{"gridcore"},
	}
	if member.AdminAddr != "" {
		svc.Meta = map[string]string{"admin": member.AdminAddr}
	}
	svc.Check = r.healthCheck(member)
	return svc, nil
}

func (r *Registry) healthCheck(member meta.MemberInfo) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		TCP:      member.Addr,
		Timeout:  r.opts.checkTimeout.String(),
		Interval: r.opts.checkInterval.String(),
	}
}

func (r *Registry) registryKey() string {
	return fmt.Sprintf("%s%s", registryKeyPrefix, r.opts.group)
}
