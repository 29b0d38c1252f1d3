// Package endpoints names the built-in commands of a Lumin device's control API.
//
// Each endpoint is a port-and-path suffix plus the method the device expects.
// Combined with a device identifier from DeviceURL it forms the arguments for
// dispatch.Dispatcher.Run:
//
//	ep, _ := endpoints.Lookup("ping")
//	text := d.Run(ctx, ep.Path, endpoints.DeviceURL("192.168.4.1"), ep.Method, "")
//	// GET http://192.168.4.1:81/control/builtin/command/ping
package endpoints
