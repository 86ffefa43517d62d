// G2link-bridge is a WebSocket bridge for Even G2 smart glasses.
//
// It owns the single BLE link a pair of glasses allows and exposes it to
// any number of local clients over a JSON-over-WebSocket protocol. Web
// apps, scripts and g2link-ctl can all drive the same pair of glasses
// through a running bridge.
//
// Usage:
//
//	g2link-bridge serve [flags]
//
// See 'g2link-bridge serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kordwall/g2link/internal/ble"
	"github.com/kordwall/g2link/internal/bridge"
	"github.com/kordwall/g2link/internal/config"
	"github.com/kordwall/g2link/internal/glasses"
	"github.com/kordwall/g2link/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "g2link-bridge",
	Short: "Even G2 Glasses WebSocket Bridge",
	Long: `A standalone WebSocket bridge for Even G2 smart glasses.

The glasses accept exactly one BLE connection. The bridge holds that
connection and multiplexes it: every WebSocket client can send commands
and receives every glasses notification.

Note: For direct command-line control, use the separate 'g2link-ctl' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	listenAddr string
	advertise  bool
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket bridge",
	Long: `Start the bridge and wait for WebSocket clients.

The BLE link is established lazily: the first client to call the connect
method triggers discovery and the session handshake. Glasses events fan
out to every connected client as they arrive.

Defaults for the listen address and mDNS advertisement come from the
registry file preferences; flags override them.`,
	Example: `  # Start on the default address (localhost:8765)
  g2link-bridge serve

  # Announce on the LAN so clients can find the bridge via mDNS
  g2link-bridge serve --listen 0.0.0.0:8765 --advertise

  # Watch the protocol traffic
  g2link-bridge serve --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address, host:port (default from registry, else "+bridge.DefaultListen+")")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the bridge over mDNS")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); G2LINK_LOG_LEVEL when empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		reg = config.NewRegistry()
	}

	listen := listenAddr
	adv := advertise
	if reg.Preferences != nil {
		if listen == "" {
			listen = reg.Preferences.BridgeListen
		}
		if !cmd.Flags().Changed("advertise") {
			adv = reg.Preferences.AdvertiseBridge
		}
	}

	sessionCfg := glasses.Config{Transport: ble.New()}
	if reg.Preferences != nil {
		sessionCfg.ScanTimeout = reg.Preferences.ScanWindow()
		sessionCfg.AuthPacketInterval = reg.Preferences.Pacing.AuthPacketInterval()
		sessionCfg.AuthSettleDelay = reg.Preferences.Pacing.AuthSettleDelay()
		sessionCfg.ResponseWindow = reg.Preferences.Pacing.ResponseWindow()
	}

	// The server does not exist yet when the session is assembled, so the
	// event handler is installed after construction. Events only flow once
	// a client has asked the running server to connect.
	session := glasses.NewSession(sessionCfg)

	srv, err := bridge.New(&bridge.Config{
		Listen:    listen,
		Advertise: adv,
		LogLevel:  logLevel,
		Glasses:   session,
	})
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}
	session.SetOnEvent(srv.HandleEvent)

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("g2link-bridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
