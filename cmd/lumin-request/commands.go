package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/bridge"
	"github.com/lumin/requestclient/internal/discovery"
	"github.com/lumin/requestclient/internal/dispatch"
	"github.com/lumin/requestclient/internal/endpoints"
	"github.com/lumin/requestclient/internal/logging"
	"github.com/lumin/requestclient/internal/transport"
	"github.com/lumin/requestclient/internal/ui"
)

// Request command flags
var (
	deviceName    string
	requestMethod string
	rawOutput     bool
	callArgs      string
	scanTimeout   int
	scanService   string
	listenAddr    string
	bridgePath    string
)

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(endpointsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(bridgeCmd)

	for _, c := range []*cobra.Command{requestCmd, callCmd} {
		c.Flags().StringVar(&deviceName, "device", "", "Device name, nickname or address (empty = localhost)")
		c.Flags().BoolVar(&rawOutput, "raw", false, "Print only the response text (or error text)")
	}
	requestCmd.Flags().StringVarP(&requestMethod, "method", "X", "GET", "HTTP method (GET or POST, case-sensitive)")
	callCmd.Flags().StringVar(&callArgs, "args", "", "Raw text appended to the endpoint path (e.g. '?power=52')")

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
	scanCmd.Flags().StringVar(&scanService, "service", discovery.ServiceType, "mDNS service type to browse")

	bridgeCmd.Flags().StringVar(&listenAddr, "listen", bridge.DefaultListen, "Address the bridge listens on")
	bridgeCmd.Flags().StringVar(&bridgePath, "path", bridge.DefaultPath, "Websocket endpoint path")
}

// requestCmd sends a request to an arbitrary endpoint path
var requestCmd = &cobra.Command{
	Use:   "request <endpoint> [body]",
	Short: "Send a request to an endpoint path",
	Long: `Send a GET or POST request to a device.

The request URL is the device address followed by the endpoint, joined
without any separator, so the endpoint usually starts with ':' or '/'.`,
	Example: `  # Ping the device's control port
  lumin-request request :81/control/builtin/command/ping --device 192.168.4.1

  # POST a JSON body
  lumin-request request :81/control/builtin/command/setDevice '{"mode":1}' -X POST --device lumin-a1b2c3

  # Print the bare response for scripting
  lumin-request request :81/control/builtin/command/getStoredConfig --raw`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, args[0], requestMethod, argOrEmpty(args, 1))
	},
}

// callCmd sends a request to a named endpoint
var callCmd = &cobra.Command{
	Use:   "call <name> [body]",
	Short: "Call a named device endpoint",
	Long: `Call one of the device's named control endpoints.

The method is taken from the endpoint table; see 'lumin-request endpoints'.`,
	Example: `  lumin-request call ping --device lumin-a1b2c3
  lumin-request call setTxPower --args '?power=52' --device 192.168.4.1
  lumin-request call wifi '{"ssid":"home","password":"secret"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ep, err := endpoints.Lookup(args[0])
		if err != nil {
			return fmt.Errorf("%w (see 'lumin-request endpoints')", err)
		}
		return runRequest(cmd, ep.WithArgs(callArgs), ep.Method, argOrEmpty(args, 1))
	},
}

func argOrEmpty(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

// findDevice looks a device up over mDNS
var findDevice = func(ctx context.Context, name string, timeout time.Duration) (*discovery.Device, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	return scanner.Find(ctx, name)
}

// showHeader reports whether boxed output starts with a request banner
var showHeader = ui.IsTerminal

// resolveMu guards the registry while bridge commands resolve concurrently
var resolveMu sync.Mutex

// deviceIdentifier maps the --device value to the URL prefix requests are built on.
// A bare Lumin device name missing from the registry is looked up over mDNS
// and recorded.
func deviceIdentifier(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if app.registry == nil {
		return endpoints.DeviceURL(name)
	}

	resolveMu.Lock()
	defer resolveMu.Unlock()

	address := app.registry.ResolveAddress(name)
	if address == name && isDeviceName(name) {
		address = discoverAddress(ctx, name)
	}
	return endpoints.DeviceURL(address)
}

// isDeviceName reports whether s is a bare device name rather than an address
func isDeviceName(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), discovery.HostnamePrefix) &&
		!strings.ContainsAny(s, ".:/ ")
}

// discoverAddress finds name over mDNS and records its address.
// On failure name is returned unchanged.
func discoverAddress(ctx context.Context, name string) string {
	timeout := scanDuration(0, app.registry.Preferences.DiscoverTimeout)
	logging.Debug("Device not in config, searching over mDNS",
		zap.String("device", name),
		zap.Duration("timeout", timeout),
	)

	device, err := findDevice(ctx, name, timeout)
	if err != nil {
		logging.Debug("Device lookup failed", zap.String("device", name), zap.Error(err))
		return name
	}

	address := device.Address()
	app.registry.UpdateDeviceLastSeen(name, address)
	if err := app.registry.SaveTo(app.registryPath); err != nil {
		logging.Warn("Failed to save config", zap.String("path", app.registryPath), zap.Error(err))
	}
	return address
}

func runRequest(cmd *cobra.Command, endpoint, method, body string) error {
	device := deviceIdentifier(cmd.Context(), deviceName)
	out := cmd.OutOrStdout()

	if rawOutput {
		fmt.Fprintln(out, app.dispatcher.Run(cmd.Context(), endpoint, device, method, body))
		return nil
	}

	p := ui.NewPrinter(out)
	if showHeader() {
		p.PrintHeader("Device Request", cmd.CommandPath(),
			ui.Detail{Key: "Device", Value: device},
			ui.Detail{Key: "Method", Value: method},
			ui.Detail{Key: "Endpoint", Value: endpoint},
		)
	}

	start := time.Now()
	result := app.dispatcher.Dispatch(cmd.Context(), endpoint, device, method, body)
	elapsed := time.Since(start).Round(time.Millisecond)

	printResult(p, method, device+endpoint, result, elapsed)
	if !result.OK() {
		return errRequestFailed
	}
	return nil
}

func printResult(p *ui.Printer, method, url string, result dispatch.Result, elapsed time.Duration) {
	title := method + " " + url
	if result.OK() {
		p.PrintSuccess(title,
			ui.Detail{Key: "Elapsed", Value: elapsed.String()},
			ui.Detail{Key: "Bytes", Value: strconv.Itoa(len(result.Data))},
		)
		p.PrintBody(result.Data)
		return
	}
	p.PrintError(title, result.Err, troubleshootingFor(result.Err))
}

// troubleshootingFor suggests next steps for a failed request
func troubleshootingFor(err error) []string {
	if dispatch.IsInvalidMethod(err) {
		return []string{"Use GET or POST (upper case)"}
	}

	var tErr *transport.Error
	if !errors.As(err, &tErr) {
		return nil
	}

	switch tErr.Kind {
	case transport.FailureConnectionRefused:
		return []string{
			"Check the device is powered on",
			"Check the port in the endpoint (control commands use :81)",
		}
	case transport.FailureTimeout:
		return []string{
			"Check the device is reachable from this network",
			"Try increasing --timeout",
		}
	case transport.FailureDNS:
		return []string{
			"Check the device name or use its IP address",
			"Run 'lumin-request scan' to refresh known devices",
		}
	case transport.FailureHostUnreachable, transport.FailureNetworkUnreachable:
		return []string{"Verify your computer is on the same network as the device"}
	case transport.FailureRequest:
		return []string{"Check the endpoint forms a valid URL with the device address"}
	}
	return nil
}

// endpointsCmd lists the named endpoints
var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List named device endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.NewPrinter(cmd.OutOrStdout()).PrintTable([]string{"NAME", "METHOD", "PATH"}, endpointRows())
		return nil
	},
}

func endpointRows() [][]string {
	all := endpoints.All()
	rows := make([][]string, 0, len(all))
	for _, ep := range all {
		rows = append(rows, []string{ep.Name, ep.Method, ep.Path})
	}
	return rows
}

// scanCmd discovers devices and records them in the registry
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Lumin devices on the network",
	Long: `Scan for Lumin devices using mDNS/DNS-SD discovery.

Discovered devices are saved to the config file so they can be addressed
by name with --device.`,
	Example: `  # Scan for the configured time (default 10 seconds)
  lumin-request scan

  # Quick 3-second scan
  lumin-request scan --timeout 3

  # Browse plain HTTP announcements
  lumin-request scan --service _http._tcp`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Service = scanService
	scanner.Timeout = scanDuration(scanTimeout, app.registry.Preferences.DiscoverTimeout)

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Println(fmt.Sprintf("Scanning for Lumin devices (timeout: %s)...", scanner.Timeout))

	devices, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		p.PrintWarning("No devices found",
			ui.Detail{Key: "Service", Value: scanner.Service},
			ui.Detail{Key: "Timeout", Value: scanner.Timeout.String()},
		)
		return nil
	}

	recordDevices(devices)
	if err := app.registry.SaveTo(app.registryPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	p.PrintTable([]string{"NAME", "ADDRESS", "HOSTNAME"}, deviceRows(devices))
	p.Println(fmt.Sprintf("Use 'lumin-request call ping --device %s' to talk to a device", devices[0].Name))
	return nil
}

func scanDuration(flagSeconds, configSeconds int) time.Duration {
	switch {
	case flagSeconds > 0:
		return time.Duration(flagSeconds) * time.Second
	case configSeconds > 0:
		return time.Duration(configSeconds) * time.Second
	default:
		return discovery.DefaultScanTimeout
	}
}

func recordDevices(devices []*discovery.Device) {
	for _, d := range devices {
		app.registry.UpdateDeviceLastSeen(d.Name, d.Address())
	}
}

func deviceRows(devices []*discovery.Device) [][]string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.Name, d.Address(), d.Hostname})
	}
	return rows
}

// bridgeCmd serves the dispatcher to a host application
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve requests to a host application over websocket",
	Long: `Start a local websocket endpoint that accepts JSON commands
{id, endpoint, deviceName, method, body} and replies with
{id, status: "ok", data} or {id, status: "error", error}.

deviceName is resolved through the config file like --device. An empty
deviceName is passed through unchanged.`,
	Example: `  lumin-request bridge
  lumin-request bridge --listen 127.0.0.1:9000 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := bridge.NewHandler(app.dispatcher, bridge.WithResolver(bridgeResolver(cmd.Context())))
		srv := bridge.NewServer(bridge.Config{Listen: listenAddr, Path: bridgePath}, handler)
		if err := srv.Listen(); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Bridge listening",
			ui.Detail{Key: "URL", Value: srv.URL()},
		)
		logging.Info("Bridge started", zap.String("addr", srv.Addr()))
		return srv.Start(cmd.Context())
	},
}

// bridgeResolver resolves deviceName like --device; an empty name passes through
func bridgeResolver(ctx context.Context) bridge.DeviceResolver {
	return func(name string) string {
		if strings.TrimSpace(name) == "" {
			return name
		}
		return deviceIdentifier(ctx, name)
	}
}
