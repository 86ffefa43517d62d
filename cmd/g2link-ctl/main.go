// G2link-ctl is a control utility for Even G2 smart glasses.
//
// It drives the glasses directly over Bluetooth Low Energy: scanning,
// the session handshake, pushing text and teleprompter scripts, the
// navigation HUD, and raw frame access for protocol work. Commands can
// also be routed through a running g2link-bridge with --bridge.
//
// Usage:
//
//	g2link-ctl [command] [flags]
//
// Running without arguments launches the interactive console.
// See 'g2link-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kordwall/g2link/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "g2link-ctl",
	Short: "Even G2 Glasses Control Utility",
	Long: `A standalone utility for driving Even G2 smart glasses over BLE.

Provides glasses discovery, an interactive console, and direct commands
for text display, teleprompter, navigation and raw protocol access.

If no command is specified, the interactive console will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the console when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("g2link-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
