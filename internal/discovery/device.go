package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a discovered Lumin device on the network
type Device struct {
	// Name is the mDNS instance name with the domain stripped (e.g., "lumin-a1b2c3")
	Name string

	// Hostname is the mDNS hostname (e.g., "lumin-a1b2c3.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 if the device advertised no IPv4
	IP string

	// Port is the advertised port (typically 80)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Lumin Device %s (%s) at %s", d.Name, d.Hostname, d.Address())
}

// Address returns the host part used to build request URLs. The port is
// only included when it differs from the HTTP default.
func (d *Device) Address() string {
	if d.Port == 0 || d.Port == DefaultPort {
		if net.ParseIP(d.IP).To4() == nil && net.ParseIP(d.IP) != nil {
			return "[" + d.IP + "]"
		}
		return d.IP
	}
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
