package lock

import (
	"fmt"
	"net/url"

	"github.com/infinivision/gridcore/pkg/cedis"
)

// CreateResourceLock returns the resource lock by the url, examples:
// mem://
// redis://ip:port?maxActive=100
// cell://ip:port?proxy=ip:port&maxActive=100&maxIdle=10&dialTimeout=10
func CreateResourceLock(protocolAddr string) (ResourceLock, error) {
	u, err := url.Parse(protocolAddr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "mem":
		return NewMemResourceLocker(), nil
	case "cell", "redis":
		return NewCellResourceLocker(cedis.NewCedis(cedis.OptionsFromURL(u)...)), nil
	}

	return nil, fmt.Errorf("the schema %s is not support", u.Scheme)
}
