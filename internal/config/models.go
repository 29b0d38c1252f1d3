package config

import (
	"strings"
	"time"

	"github.com/lumin/requestclient/internal/transport"
)

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name (mDNS name or nickname)
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is what the client remembers about one device
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Address  string    `yaml:"address,omitempty"`   // Last known host or host:port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/request time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	UserAgent       string `yaml:"user_agent,omitempty"` // Identification header sent on every request
	TimeoutSeconds  int    `yaml:"timeout_seconds"`      // Per-request transport timeout (0 = none)
	DiscoverTimeout int    `yaml:"discover_timeout"`     // mDNS discovery timeout in seconds
	LogLevel        string `yaml:"log_level,omitempty"`  // off, error, warn, info, debug, trace
}

func defaultPreferences() *Preferences {
	return &Preferences{
		UserAgent:       transport.DefaultUserAgent,
		TimeoutSeconds:  int(transport.DefaultTimeout / time.Second),
		DiscoverTimeout: 10,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice retrieves a device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the device entry for name, creating it if needed.
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{}
	r.Devices[name] = device
	return device
}

// UpdateDeviceLastSeen records the address a device was last seen at.
func (r *Registry) UpdateDeviceLastSeen(name, address string) {
	device := r.EnsureDevice(name)
	device.LastSeen = time.Now()
	device.Address = address
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(name, nickname string) {
	device := r.EnsureDevice(name)
	device.Nickname = nickname
}

// ResolveAddress maps a device name or nickname to its stored address.
// Anything not found in the registry is returned unchanged, on the
// assumption it is already an address.
func (r *Registry) ResolveAddress(nameOrAddress string) string {
	if device, ok := r.Devices[nameOrAddress]; ok && device.Address != "" {
		return device.Address
	}
	for _, device := range r.Devices {
		if device.Nickname != "" && strings.EqualFold(device.Nickname, nameOrAddress) && device.Address != "" {
			return device.Address
		}
	}
	return nameOrAddress
}

// TransportConfig builds a transport configuration from the preferences.
func (r *Registry) TransportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	if r.Preferences == nil {
		return cfg
	}
	if r.Preferences.UserAgent != "" {
		cfg.UserAgent = r.Preferences.UserAgent
	}
	if r.Preferences.TimeoutSeconds >= 0 {
		cfg.Timeout = time.Duration(r.Preferences.TimeoutSeconds) * time.Second
	}
	return cfg
}
