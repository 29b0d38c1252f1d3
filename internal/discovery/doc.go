// Package discovery provides mDNS-based discovery of Lumin devices.
//
// Lumin devices register "_lumin._tcp" over multicast DNS under a hostname
// starting with "lumin". The scanner browses that service in "local." by
// default (older firmware that only announces "_http._tcp" can be browsed by
// setting Scanner.Service) and keeps only hosts carrying the Lumin prefix.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 5 * time.Second
//	devices, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Println(device.Name, device.BaseURL())
//	}
//
// Device.Address is the host part expected by the request dispatcher, so a
// discovered device can be used directly as a device identifier.
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Devices must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
