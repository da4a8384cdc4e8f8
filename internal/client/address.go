// Package client implements the voiceclone-client side: server address
// resolution, reference upload, and the synthesis round trip.
package client

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultServerAddress is used when neither the flag nor the environment
// names a backend.
const DefaultServerAddress = "127.0.0.1:8000"

// DefaultPort is appended when the resolved address has no port.
const DefaultPort = "8000"

// envAddress carries the environment-variable default for the backend.
type envAddress struct {
	ServerIP string `env:"SERVER_IP"`
}

// ResolveServerAddress picks the backend address. The --server_ip flag value
// takes precedence over the SERVER_IP environment variable; with neither
// set, the local default applies.
func ResolveServerAddress(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	var fromEnv envAddress

	err := env.Parse(&fromEnv)
	if err != nil {
		return "", fmt.Errorf("failed to parse environment: %w", err)
	}

	if fromEnv.ServerIP != "" {
		return fromEnv.ServerIP, nil
	}

	return DefaultServerAddress, nil
}

// hostPort normalizes an address to host:port, appending the default port
// when the address carries none.
func hostPort(address string) string {
	address = strings.TrimSuffix(address, "/")
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimPrefix(address, "ws://")

	if !strings.Contains(address, ":") {
		return address + ":" + DefaultPort
	}

	return address
}
