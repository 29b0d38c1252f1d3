// Package config manages the client's YAML configuration file.
//
// The file records devices the client has seen (name, nickname, last known
// address) and preferences that feed the transport: the identification
// header, the request timeout, the discovery timeout and the log level.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/lumin/config.yaml or $HOME/.config/lumin/config.yaml
//   - macOS: $HOME/.config/lumin/config.yaml
//   - Windows: %LOCALAPPDATA%\lumin\config.yaml
//
// # Usage Example
//
//	path, err := config.GetConfigPath()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry, err := config.LoadFrom(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry.UpdateDeviceLastSeen("lumin-a1b2c3", "192.168.4.1")
//	t := transport.New(registry.TransportConfig())
//	if err := registry.SaveTo(path); err != nil {
//	    log.Fatal(err)
//	}
//
// Writes go through a temporary file and rename so a crash never leaves a
// half-written file. The file never holds credentials.
package config
