// Lumin-request sends named and raw HTTP requests to Lumin devices.
//
// It resolves device names through the local registry (populated by
// 'scan'), builds the request URL by appending the endpoint to the device
// address, and prints the device's response. The same dispatcher can be
// exposed to a host application over a local websocket with 'bridge'.
//
// Usage:
//
//	lumin-request [command] [flags]
//
// See 'lumin-request --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/config"
	"github.com/lumin/requestclient/internal/dispatch"
	"github.com/lumin/requestclient/internal/logging"
	"github.com/lumin/requestclient/internal/transport"
	"github.com/lumin/requestclient/internal/version"
)

// errRequestFailed is returned after a failure has already been printed
var errRequestFailed = errors.New("request failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		if !errors.Is(err, errRequestFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	userAgent  string
	timeoutSec int
)

// app holds what PersistentPreRunE builds for the subcommands
var app struct {
	registry     *config.Registry
	registryPath string
	transport    *transport.Transport
	dispatcher   *dispatch.Dispatcher
}

var rootCmd = &cobra.Command{
	Use:   "lumin-request",
	Short: "Lumin Device Request Client",
	Long: `A command-line client for the HTTP control endpoints of Lumin devices.

Requests are sent as GET or POST. POST bodies are parsed as JSON; a body that
is empty or not valid JSON is sent as JSON null. The device's response is
printed regardless of its HTTP status code.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the OS config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (off, error, warn, info, debug, trace); overrides "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent header sent with every request (default from config, then \""+transport.DefaultUserAgent+"\")")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", -1, "Request timeout in seconds, 0 disables (default from config)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the registry, configures logging and builds the dispatcher
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	registry, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Initialize(resolveLogLevel(logLevel, os.Getenv(logging.LogLevelEnvVar), registry.Preferences)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg := registry.TransportConfig()
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if timeoutSec >= 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	app.registry = registry
	app.registryPath = path
	app.transport = transport.New(cfg)
	app.dispatcher = dispatch.New(app.transport)

	logging.Debug("Client configured",
		zap.String("config", path),
		zap.String("user_agent", cfg.UserAgent),
		zap.Duration("timeout", cfg.Timeout),
	)
	return nil
}

// resolveLogLevel picks the flag, then the environment, then the config file
func resolveLogLevel(flag, env string, prefs *config.Preferences) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	if prefs != nil {
		return prefs.LogLevel
	}
	return ""
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lumin-request %s\n", version.Full())
	},
}
