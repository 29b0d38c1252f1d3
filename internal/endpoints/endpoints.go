package endpoints

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// ControlPort is the port the device's control API listens on, written as a URL suffix
	ControlPort = ":81"

	// CommandPrefix is the path prefix shared by built-in device commands
	CommandPrefix = "/control/builtin/command/"

	// DefaultHost is used when a device has no known address
	DefaultHost = "localhost"
)

// ErrUnknownEndpoint is returned by Lookup for names not in the table
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Endpoint is a named device command
type Endpoint struct {
	Name   string
	Path   string // port and path suffix, e.g. ":81/control/builtin/command/ping"
	Method string // "GET" or "POST"
}

// WithArgs returns the path with args appended verbatim
func (e Endpoint) WithArgs(args string) string {
	return e.Path + args
}

// String returns "METHOD path"
func (e Endpoint) String() string {
	return fmt.Sprintf("%-4s %s", e.Method, e.Path)
}

func command(name, method string) Endpoint {
	return Endpoint{Name: name, Path: ControlPort + CommandPrefix + name, Method: method}
}

var table = map[string]Endpoint{
	"ping":            command("ping", "GET"),
	"save":            command("save", "GET"),
	"resetConfig":     command("resetConfig", "GET"),
	"rebootDevice":    command("rebootDevice", "GET"),
	"restartCamera":   command("restartCamera", "GET"),
	"getStoredConfig": command("getStoredConfig", "GET"),
	"setTxPower":      command("setTxPower", "POST"),
	"setDevice":       command("setDevice", "POST"),
	"wifi":            command("wifi", "POST"),
	"wifiStrength":    command("wifiStrength", "POST"),
	"jsonHandler":     command("jsonHandler", "POST"),
	"ota":             {Name: "ota", Path: ControlPort + "/update", Method: "POST"},
}

// Lookup returns the endpoint registered under name
func Lookup(name string) (Endpoint, error) {
	ep, ok := table[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return ep, nil
}

// Names returns all endpoint names, sorted
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every endpoint, sorted by name
func All() []Endpoint {
	names := Names()
	all := make([]Endpoint, 0, len(names))
	for _, name := range names {
		all = append(all, table[name])
	}
	return all
}

// DeviceURL returns the device identifier for an address: "http://<address>",
// or "http://localhost" when address is empty. An address that already has a
// scheme is returned unchanged.
func DeviceURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		address = DefaultHost
	}
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return address
	}
	return "http://" + address
}
