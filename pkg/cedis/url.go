package cedis

import (
	"net/url"
	"time"

	"github.com/fagongzi/util/format"
)

const (
	paramProxies      = "proxy"
	paramMaxActive    = "maxActive"
	paramMaxIdle      = "maxIdle"
	paramIdleTimeout  = "idleTimeout"
	paramDialTimeout  = "dialTimeout"
	paramReadTimeout  = "readTimeout"
	paramWriteTimeout = "writeTimeout"
)

// OptionsFromURL returns the options by the url, the host and all proxy
// params are the proxies, the timeouts are in seconds:
// cell://ip:port?proxy=ip:port&maxActive=100&maxIdle=10&idleTimeout=30&dialTimeout=10&readTimeout=30&writeTimeout=10
func OptionsFromURL(u *url.URL) []Option {
	var opts []Option

	proxies := []string{u.Host}
	proxies = append(proxies, u.Query()[paramProxies]...)
	opts = append(opts, WithCellProxies(proxies...))

	maxActive := u.Query().Get(paramMaxActive)
	if maxActive != "" {
		opts = append(opts, WithMaxActive(format.MustParseStrInt(maxActive)))
	}

	maxIdle := u.Query().Get(paramMaxIdle)
	if maxIdle != "" {
		opts = append(opts, WithMaxIdle(format.MustParseStrInt(maxIdle)))
	}

	if value := seconds(u, paramIdleTimeout); value > 0 {
		opts = append(opts, WithIdleTimeout(value))
	}

	if value := seconds(u, paramDialTimeout); value > 0 {
		opts = append(opts, WithDialTimeout(value))
	}

	if value := seconds(u, paramReadTimeout); value > 0 {
		opts = append(opts, WithReadTimeout(value))
	}

	if value := seconds(u, paramWriteTimeout); value > 0 {
		opts = append(opts, WithWriteTimeout(value))
	}

	return opts
}

func seconds(u *url.URL, param string) time.Duration {
	value := u.Query().Get(param)
	if value == "" {
		return 0
	}

	return time.Second * time.Duration(format.MustParseStrInt64(value))
}
