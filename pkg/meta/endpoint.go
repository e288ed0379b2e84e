package meta

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint identifies one cluster member
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NewEndpoint returns a endpoint
func NewEndpoint(host string, port int) Endpoint {
	return Endpoint{
		Host: host,
		Port: port,
	}
}

// ParseEndpoint parse a host:port address
func ParseEndpoint(addr string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, err
	}

	value, err := strconv.Atoi(port)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid port in %s", addr)
	}

	if value <= 0 || value > 65535 {
		return Endpoint{}, fmt.Errorf("port out of range in %s", addr)
	}

	return NewEndpoint(host, value), nil
}

// MustParseEndpoint parse a host:port address, panic if failed
func MustParseEndpoint(addr string) Endpoint {
	value, err := ParseEndpoint(addr)
	if err != nil {
		panic(err)
	}

	return value
}

// String returns host:port
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// IsZero returns true if the endpoint is not resolved
func (e Endpoint) IsZero() bool {
	return e.Host == "" && e.Port == 0
}
