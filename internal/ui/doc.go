// Package ui renders terminal output for the lumin-request CLI.
//
// Components follow a "render once and print" pattern built on Lipgloss:
//
//   - Header: banner showing the request being made
//   - Result: success, failure and warning boxes with key-value details
//   - Body: the device response, JSON indented and long output truncated
//   - RenderTable: listings such as named endpoints and discovered devices
//
// Output goes through a Printer so commands can be pointed at any writer:
//
//	p := ui.NewPrinter(cmd.OutOrStdout())
//	p.PrintHeader("Device Request", "lumin-request call ping",
//	    ui.Detail{Key: "Device", Value: "192.168.4.1"})
//	p.PrintBody(response)
//
// Logging is controlled separately via LUMIN_LOG_LEVEL and goes to stderr,
// so it never interleaves with the boxes printed here.
package ui
