// Package discovery provides mDNS-based discovery of g2link bridges.
//
// A bridge registers itself under the "_g2link._tcp" service type when it
// starts, so any machine on the same network can locate it without
// configuration. This package implements the browsing side: it broadcasts
// multicast DNS queries, collects the bridge advertisements that answer,
// and returns them as Endpoint values ready to hand to bridge.Dial.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries for "_g2link._tcp" on the local network
//  2. Listens for service advertisements from running bridges
//  3. Collects endpoint information (instance name, IP, port, version)
//  4. Returns the list of discovered bridges after the timeout period
//
// # Usage Example
//
//	// Discover bridges with a 5-second timeout
//	endpoints, err := discovery.ScanForBridges(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Connect to the first bridge found
//	for _, endpoint := range endpoints {
//	    fmt.Printf("Found: %s at %s (version %s)\n",
//	        endpoint.Instance, endpoint.Addr(), endpoint.Version)
//	}
//
// # Endpoint Information
//
// Each discovered endpoint includes:
//   - Instance: Advertised name, normally the bridge machine's hostname
//   - Hostname: mDNS hostname
//   - IP: IPv4 address (IPv6 when no IPv4 address was advertised)
//   - Port: WebSocket port (typically 8765)
//   - Version: Bridge version from the TXT record
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
