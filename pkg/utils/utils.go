// Package utils contains some common utilities used by all other packages.
package utils

import (
	"net"
	"strconv"
)

// SplitHostPort splits a "host:port" pair into its parts. When no port
// is present (or it does not parse), defaultPort is returned instead.
func SplitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}
