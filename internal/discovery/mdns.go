package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/logging"
)

const (
	// ServiceType is the mDNS service type Lumin devices register
	ServiceType = "_lumin._tcp"

	// HTTPServiceType is the generic HTTP service type, for firmware that
	// only announces its web server
	HTTPServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// HostnamePrefix identifies Lumin devices among other mDNS hosts
	HostnamePrefix = "lumin"

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for Lumin devices
	DefaultPort = 80
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	// Service is the mDNS service type to browse
	Service string

	// Prefix filters hostnames; entries not starting with it are ignored
	Prefix string
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: ServiceType,
		Prefix:  HostnamePrefix,
	}
}

func (s *Scanner) service() string {
	if s.Service == "" {
		return ServiceType
	}
	return s.Service
}

// Scan discovers all Lumin devices on the local network until the scanner
// timeout elapses or ctx is done. Devices seen more than once are reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	collector := newCollector()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			if device := s.parseServiceEntry(entry); device != nil {
				collector.add(device)
			}
		}
	}()

	logging.Debug("Browsing for devices",
		zap.String("service", s.service()),
		zap.Duration("timeout", s.Timeout))

	if err := resolver.Browse(ctx, s.service(), ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// zeroconf closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	devices := collector.list()
	logging.Debug("Discovery finished", zap.Int("devices", len(devices)))
	return devices, nil
}

// Find waits for a device whose name or hostname matches name.
// Returns an error if it is not seen within the scanner timeout.
func (s *Scanner) Find(ctx context.Context, name string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	deviceChan := make(chan *Device, 1)

	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device != nil && device.matches(name) {
				select {
				case deviceChan <- device:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, s.service(), ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		// The match may have landed right as the context was cancelled
		select {
		case device := <-deviceChan:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("device %s not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry is not a Lumin device
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	if !strings.HasPrefix(strings.ToLower(hostname), strings.ToLower(s.Prefix)) {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	name := entry.Instance
	if name == "" {
		name = hostname
	}

	return &Device{
		Name:         trimLocal(name),
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func (d *Device) matches(name string) bool {
	name = trimLocal(name)
	return strings.EqualFold(d.Name, name) || strings.EqualFold(trimLocal(d.Hostname), name)
}

func trimLocal(name string) string {
	name = strings.TrimSuffix(name, ".")
	return strings.TrimSuffix(name, ".local")
}

// collector de-duplicates devices by hostname, keeping the latest sighting
type collector struct {
	mu      sync.Mutex
	order   []string
	devices map[string]*Device
}

func newCollector() *collector {
	return &collector{devices: make(map[string]*Device)}
}

func (c *collector) add(d *Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(d.Hostname)
	if _, seen := c.devices[key]; !seen {
		c.order = append(c.order, key)
	}
	c.devices[key] = d
}

func (c *collector) list() []*Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Device, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.devices[key])
	}
	return out
}
