package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge represents a rev4ctl bridge server found on the network
type Bridge struct {
	// Instance is the advertised mDNS instance name (e.g., "rev4-livingroom")
	Instance string

	// Host is the mDNS hostname (e.g., "pi.local.")
	Host string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the bridge HTTP port
	Port int

	// Metadata contains the TXT record data
	// Common fields: "protocol=rev4_switch", "version=0.9", "path=/ws", "tls=0"
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("Bridge %s (%s) at %s", b.Instance, b.Host, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// WebSocketURL returns the URL a client dials to reach the bridge.
func (b *Bridge) WebSocketURL() string {
	scheme := "ws"
	if b.GetMetadata(TXTKeyTLS) == "1" {
		scheme = "wss"
	}
	path := b.GetMetadata(TXTKeyPath)
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
