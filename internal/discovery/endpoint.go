package discovery

import (
	"fmt"
	"time"
)

// Endpoint represents a discovered g2link bridge on the network
type Endpoint struct {
	// Instance is the advertised service instance name, normally the
	// hostname of the machine running the bridge (e.g., "office-pi")
	Instance string

	// Hostname is the mDNS hostname (e.g., "office-pi.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.16")
	IP string

	// Port is the WebSocket port (typically 8765)
	Port int

	// Version is the bridge version from the TXT record, if advertised
	Version string

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("g2link bridge %s (%s) at %s:%d", e.Instance, e.Hostname, e.IP, e.Port)
}

// Addr returns the host:port address of the endpoint, in the form
// accepted by bridge.Dial
func (e *Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// URL returns the WebSocket URL for the endpoint
func (e *Endpoint) URL() string {
	return fmt.Sprintf("ws://%s:%d", e.IP, e.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
