package cmdutil

import (
	"net"
	"os"
	"strconv"
)

// Environment variables used to locate the rfs server.
const (
	EnvServer     = "RFS_SERVER"
	EnvServerPort = "RFS_SERVERPORT"

	DefaultServer = "127.0.0.1"
	DefaultPort   = 15440
)

// EnvOr returns the value of the environment variable key, or def if it's
// unset or empty.
func EnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvBool reports whether the environment variable key is set to a true
// value as understood by strconv.ParseBool.
func EnvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// ServerAddr returns the host:port of the rfs server from RFS_SERVER and
// RFS_SERVERPORT.
func ServerAddr() string {
	host := EnvOr(EnvServer, DefaultServer)
	port := EnvOr(EnvServerPort, strconv.Itoa(DefaultPort))
	return net.JoinHostPort(host, port)
}

// ListenAddr returns the default listen URL for the rfs server, honoring
// RFS_SERVERPORT.
func ListenAddr() string {
	port := EnvOr(EnvServerPort, strconv.Itoa(DefaultPort))
	return "tcp://" + net.JoinHostPort("0.0.0.0", port)
}
