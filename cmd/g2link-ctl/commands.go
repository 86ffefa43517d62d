package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kordwall/g2link/internal/ble"
	"github.com/kordwall/g2link/internal/bridge"
	"github.com/kordwall/g2link/internal/capture"
	"github.com/kordwall/g2link/internal/config"
	"github.com/kordwall/g2link/internal/discovery"
	"github.com/kordwall/g2link/internal/glasses"
	"github.com/kordwall/g2link/internal/logging"
	"github.com/kordwall/g2link/internal/protocol"
	"github.com/kordwall/g2link/internal/ui"
	"github.com/kordwall/g2link/internal/urls"
	"github.com/kordwall/g2link/internal/wizard/tui"
)

// Command flags
var (
	deviceMAC   string
	bridgeAddr  string
	scanTimeout int
	logLevel    string
	verbose     bool
	rawWait     int
	navFlags    glasses.NavigationInfo
	forgetAll   bool
)

func init() {
	// Common flags for glasses commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceMAC, "device", "", "Glasses MAC address (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&bridgeAddr, "bridge", "", "Route through a g2link-bridge at this address instead of BLE")
	rootCmd.PersistentFlags().IntVar(&scanTimeout, "scan-timeout", 0, "BLE scan timeout in seconds (0 uses the registry preference)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); G2LINK_LOG_LEVEL when empty")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Show the raw frames exchanged with the glasses")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(nicknameCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(teleprompterCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(wakeCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(bridgesCmd)
	rootCmd.AddCommand(wizardCmd)
}

// initLogging applies --log-level, falling back to G2LINK_LOG_LEVEL
func initLogging() error {
	if logLevel != "" {
		return logging.Initialize(logLevel)
	}
	return logging.InitializeFromEnv()
}

// loadRegistry loads the on-disk registry, falling back to defaults when
// the config file is missing or unreadable
func loadRegistry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		return config.NewRegistry()
	}
	return reg
}

// newSession builds a BLE-backed session using registry pacing preferences
func newSession(reg *config.Registry, onEvent func(glasses.Event)) *glasses.Session {
	return newSessionWith(reg, ble.New(), onEvent)
}

// newSessionWith is newSession with the transport supplied, so connect can
// slip a frame tap between the session and the BLE link.
func newSessionWith(reg *config.Registry, transport glasses.Transport, onEvent func(glasses.Event)) *glasses.Session {
	cfg := glasses.Config{
		Transport: transport,
		OnEvent:   onEvent,
	}
	if scanTimeout > 0 {
		cfg.ScanTimeout = time.Duration(scanTimeout) * time.Second
	} else if reg.Preferences != nil {
		cfg.ScanTimeout = reg.Preferences.ScanWindow()
	}
	if reg.Preferences != nil {
		cfg.AuthPacketInterval = reg.Preferences.Pacing.AuthPacketInterval()
		cfg.AuthSettleDelay = reg.Preferences.Pacing.AuthSettleDelay()
		cfg.ResponseWindow = reg.Preferences.Pacing.ResponseWindow()
	}
	return glasses.NewSession(cfg)
}

// connectSession attaches to --device when set, otherwise scans and picks
// the best endpoint. The caller owns the Disconnect.
func connectSession(ctx context.Context, session *glasses.Session, reg *config.Registry) (glasses.Device, error) {
	if deviceMAC != "" {
		target := glasses.Device{Address: deviceMAC}
		if g := reg.GetGlasses(deviceMAC); g != nil {
			target.Name = g.Name
		}
		return session.ConnectTo(ctx, target)
	}
	device, err := session.Connect(ctx)
	if err != nil {
		return glasses.Device{}, err
	}
	reg.RecordSighting(device.Address, device.Name, device.RSSI)
	_ = reg.Save()
	return device, nil
}

// withGlasses runs fn against a live session: connect, fn, disconnect.
// When --bridge is set the BLE path is skipped and fn is not used; callers
// that support bridge routing check useBridge() first.
func withGlasses(fn func(ctx context.Context, session *glasses.Session, device glasses.Device) error) error {
	if err := initLogging(); err != nil {
		return err
	}
	defer logging.Sync()

	reg := loadRegistry()
	session := newSession(reg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ui.PrintPleaseWait("Connecting to glasses", "takes ~8s for the handshake")

	device, err := connectSession(ctx, session, reg)
	if err != nil {
		ui.PrintFailure("Connection failed", err, connectTroubleshooting(err))
		return err
	}
	defer session.Disconnect()

	return fn(ctx, session, device)
}

// useBridge reports whether commands should go through a running bridge
func useBridge() bool {
	return bridgeAddr != ""
}

// withBridge runs fn against a bridge client
func withBridge(fn func(ctx context.Context, client *bridge.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := bridge.Dial(ctx, bridgeAddr)
	if err != nil {
		return fmt.Errorf("failed to reach bridge at %s: %w", bridgeAddr, err)
	}
	defer client.Close()

	return fn(ctx, client)
}

// connectTroubleshooting picks failure hints based on the error class
func connectTroubleshooting(err error) []string {
	hints := []string{
		"Take the glasses out of the case and unfold them",
		"Close the vendor app on your phone; it holds the only BLE link",
		"Check the adapter: bluetoothctl power on",
	}
	if glasses.IsDiscoveryError(err) {
		hints = append(hints, "Try a longer scan: --scan-timeout 20")
	}
	if glasses.IsTimeoutError(err) {
		hints = append(hints, "Move closer to the glasses; the handshake is timing sensitive")
	}
	return append(hints, "Pairing guide: "+urls.Pairing)
}

// scanCmd discovers glasses over BLE
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Even G2 glasses over BLE",
	Long: `Scan for Even G2 glasses advertising over Bluetooth Low Energy.

Each pair of glasses advertises two endpoints, one per arm. The left arm
(_L_ in the name) hosts the control link; connect to that one.`,
	Example: `  # Scan with the default window
  g2link-ctl scan

  # Longer scan for a noisy radio environment
  g2link-ctl scan --scan-timeout 20`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}
	defer logging.Sync()

	reg := loadRegistry()
	session := newSession(reg, nil)

	window := time.Duration(scanTimeout) * time.Second
	if window <= 0 {
		window = glasses.DefaultScanTimeout
		if reg.Preferences != nil && reg.Preferences.ScanWindow() > 0 {
			window = reg.Preferences.ScanWindow()
		}
	}

	fmt.Printf("Scanning for glasses (timeout: %s)...\n\n", window)

	ctx, cancel := context.WithTimeout(context.Background(), window+5*time.Second)
	defer cancel()

	devices, err := session.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No glasses found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Take the glasses out of the case and unfold them")
		fmt.Println("  - Close the vendor app on your phone; it holds the only BLE link")
		fmt.Println("  - Check the adapter is powered: bluetoothctl power on")
		fmt.Println("  - Try increasing --scan-timeout on a noisy radio")
		fmt.Println("  - Pairing guide: " + urls.Pairing)
		return nil
	}

	fmt.Printf("Found %d endpoint(s):\n\n", len(devices))

	for i, device := range devices {
		arm := "right arm"
		if device.Left() {
			arm = "left arm (control link)"
		}
		label := device.Name
		if g := reg.GetGlasses(device.Address); g != nil && g.Nickname != "" {
			label = fmt.Sprintf("%s (%s)", g.Nickname, device.Name)
		}
		fmt.Printf("%d. %s\n", i+1, label)
		fmt.Printf("   Address: %s\n", device.Address)
		fmt.Printf("   Arm:     %s\n", arm)
		fmt.Printf("   Signal:  %d dBm\n", device.RSSI)
		fmt.Println()

		reg.RecordSighting(device.Address, device.Name, device.RSSI)
	}
	_ = reg.Save()

	fmt.Println("Use 'g2link-ctl connect --device <mac>' to test the handshake")
	fmt.Println("Use 'g2link-ctl' for the interactive console")

	return nil
}

// devicesCmd lists remembered glasses from the registry
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List remembered glasses",
	Long: `List every pair of glasses this machine has seen, with nicknames,
last-seen times and signal strength from the registry file.`,
	Example: `  g2link-ctl devices`,
	RunE:    runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()

	if len(reg.Glasses) == 0 {
		fmt.Println("No glasses remembered yet. Run 'g2link-ctl scan' first.")
		return nil
	}

	macs := make([]string, 0, len(reg.Glasses))
	for mac := range reg.Glasses {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	fmt.Printf("Remembered glasses (%d):\n\n", len(macs))
	for _, mac := range macs {
		g := reg.Glasses[mac]
		fmt.Printf("  %s\n", g.DisplayName())
		fmt.Printf("    Address:   %s\n", mac)
		if g.Nickname != "" {
			fmt.Printf("    BLE name:  %s\n", g.Name)
		}
		if !g.LastSeen.IsZero() {
			fmt.Printf("    Last seen: %s (%d dBm)\n", g.LastSeen.Format("2006-01-02 15:04"), g.LastRSSI)
		}
		fmt.Println()
	}

	return nil
}

// nicknameCmd assigns a friendly name to a pair of glasses
var nicknameCmd = &cobra.Command{
	Use:     "nickname <mac> <name>",
	Short:   "Set a nickname for a pair of glasses",
	Example: `  g2link-ctl nickname AA:BB:CC:DD:EE:01 "Daily pair"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := loadRegistry()
		reg.SetNickname(args[0], args[1])
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Printf("✓ %s is now %q\n", args[0], args[1])
		return nil
	},
}

// forgetCmd removes glasses from the registry
var forgetCmd = &cobra.Command{
	Use:   "forget [mac]",
	Short: "Forget remembered glasses",
	Long: `Remove a pair of glasses from the registry, or every remembered pair
with --all. The glasses themselves hold no pairing state; this only clears
local bookkeeping.`,
	Example: `  # Forget one pair
  g2link-ctl forget AA:BB:CC:DD:EE:01

  # Forget everything
  g2link-ctl forget --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runForget,
}

func init() {
	forgetCmd.Flags().BoolVar(&forgetAll, "all", false, "Forget every remembered pair")
}

func runForget(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()

	if forgetAll {
		if !ui.ForgetDevicesConfirmation(len(reg.Glasses)) {
			fmt.Println("Cancelled.")
			return nil
		}
		reg.Glasses = nil
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Println("✓ Registry cleared")
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("specify a MAC address or --all")
	}
	if !reg.Forget(args[0]) {
		return fmt.Errorf("no glasses remembered at %s", args[0])
	}
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	fmt.Printf("✓ Forgot %s\n", args[0])
	return nil
}

// connectCmd runs the full handshake as a diagnostic
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Test the connection handshake",
	Long: `Connect to the glasses, run the seven-frame session handshake, sync
the clock, and disconnect. Use this to verify the link before scripting
against the other commands.`,
	Example: `  # Auto-discover and connect
  g2link-ctl connect

  # Connect to a specific pair
  g2link-ctl connect --device AA:BB:CC:DD:EE:01

  # Watch the frames go by
  g2link-ctl connect --verbose`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}
	defer logging.Sync()

	reg := loadRegistry()

	params := map[string]string{}
	if deviceMAC != "" {
		params["device"] = deviceMAC
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Glasses Connect",
		Command: "g2link-ctl connect",
		Params:  params,
		StepNames: []string{
			"Scan for glasses",
			"Attach BLE link",
			"Run session handshake",
			"Sync clock",
		},
		Troubleshooting: connectTroubleshooting(nil),
		Verbose:         verbose,
	})

	transport := glasses.Transport(ble.New())
	if verbose {
		log := runner.FrameLog()
		transport = &glasses.FrameTap{
			Transport: transport,
			OnSend:    func(data []byte) { log.AddFrame("tx", data, frameSummary(data)) },
			OnReceive: func(data []byte) { log.AddFrame("rx", data, frameSummary(data)) },
		}
	}
	session := newSessionWith(reg, transport, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return runner.Run(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, "Scan for glasses", ui.StepRunning, "")

		var device glasses.Device
		var err error
		if deviceMAC != "" {
			onStep(1, "Scan for glasses", ui.StepSkipped, "using --device "+deviceMAC)
			onStep(2, "Attach BLE link", ui.StepRunning, "")
			device, err = connectSession(ctx, session, reg)
		} else {
			device, err = connectSession(ctx, session, reg)
			if err == nil {
				onStep(1, "Scan for glasses", ui.StepComplete, device.Name)
				onStep(2, "Attach BLE link", ui.StepRunning, "")
			}
		}
		if err != nil {
			return nil, err
		}
		onStep(2, "Attach BLE link", ui.StepComplete, device.Address)
		// Connect already ran the handshake; report it as its own step
		onStep(3, "Run session handshake", ui.StepComplete, "7 auth frames sent")
		defer session.Disconnect()

		onStep(4, "Sync clock", ui.StepRunning, "")
		if err := session.SyncTime(ctx); err != nil {
			return nil, err
		}
		onStep(4, "Sync clock", ui.StepComplete, "")

		return map[string]string{
			"Device":  device.Name,
			"Address": device.Address,
			"Signal":  fmt.Sprintf("%d dBm", device.RSSI),
		}, nil
	})
}

// frameSummary decodes a frame for the verbose log, falling back to
// nothing when the bytes do not parse.
func frameSummary(data []byte) string {
	frame, err := protocol.ParseFrame(data)
	if err != nil {
		return ""
	}
	return protocol.Classify(frame).String()
}

// textCmd pushes a line of text onto the display
var textCmd = &cobra.Command{
	Use:   "text <message>",
	Short: "Show text on the glasses display",
	Long: `Show a text message on the glasses via the transcription surface.
Long messages wrap and paginate automatically at the display width.`,
	Example: `  g2link-ctl text "Hello from the command line"

  # Through a running bridge
  g2link-ctl text "Hello" --bridge localhost:8765`,
	Args: cobra.MinimumNArgs(1),
	RunE: runText,
}

func runText(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	if useBridge() {
		return withBridge(func(ctx context.Context, client *bridge.Client) error {
			if err := client.SetText(ctx, message); err != nil {
				return err
			}
			fmt.Println("✓ Text sent via bridge")
			return nil
		})
	}

	return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
		if err := session.SetText(ctx, message); err != nil {
			ui.PrintFailure("Text display failed", err, []string{
				"Wake the display first: g2link-ctl wake",
				"Troubleshooting guide: " + urls.TroubleshootingGuide,
			})
			return err
		}
		ui.PrintSuccess("Text displayed", map[string]string{
			"Device":  device.Name,
			"Message": message,
		})
		return nil
	})
}

// teleprompterCmd streams a script to the teleprompter screen
var teleprompterCmd = &cobra.Command{
	Use:   "teleprompter <title> <file>",
	Short: "Load a script into the teleprompter",
	Long: `Load a text file into the teleprompter screen. The script is split
into display-sized pages and streamed to the glasses; pages past the
scroll position upload in the background. Use '-' to read from stdin.`,
	Example: `  g2link-ctl teleprompter "Keynote" speech.txt

  cat speech.txt | g2link-ctl teleprompter "Keynote" -`,
	Args: cobra.ExactArgs(2),
	RunE: runTeleprompter,
}

func runTeleprompter(cmd *cobra.Command, args []string) error {
	title := args[0]

	var body []byte
	var err error
	if args[1] == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	script := strings.TrimSpace(string(body))
	if script == "" {
		return fmt.Errorf("script is empty")
	}

	if useBridge() {
		return withBridge(func(ctx context.Context, client *bridge.Client) error {
			if err := client.SetTeleprompter(ctx, title, script); err != nil {
				return err
			}
			fmt.Println("✓ Script loaded via bridge")
			return nil
		})
	}

	return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
		pages := glasses.FormatTextPages(title, script)
		fmt.Printf("Streaming %d page(s) to %s...\n", len(pages), device.Name)

		if err := session.SetTeleprompter(ctx, title, script); err != nil {
			ui.PrintFailure("Teleprompter failed", err, []string{
				"Long scripts need a stable link; move closer to the glasses",
				"Troubleshooting guide: " + urls.TroubleshootingGuide,
			})
			return err
		}
		ui.PrintSuccess("Teleprompter running", map[string]string{
			"Device": device.Name,
			"Title":  title,
			"Pages":  fmt.Sprintf("%d", len(pages)),
		})
		return nil
	})
}

// navCmd groups the navigation HUD commands
var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Drive the navigation HUD",
	Long: `Drive the turn-by-turn navigation screen. Start the screen once,
push updates as the route progresses, and stop when done. The screen
times out on its own if no update or heartbeat arrives for a while.`,
}

var navStartCmd = &cobra.Command{
	Use:     "start",
	Short:   "Open the navigation screen",
	Example: `  g2link-ctl nav start`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if useBridge() {
			return withBridge(func(ctx context.Context, client *bridge.Client) error {
				if err := client.StartNavigation(ctx); err != nil {
					return err
				}
				fmt.Println("✓ Navigation screen open")
				return nil
			})
		}
		return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
			if err := session.StartNavigation(ctx); err != nil {
				return err
			}
			ui.PrintSuccess("Navigation screen open", map[string]string{"Device": device.Name})
			return nil
		})
	},
}

var navSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Push a navigation update",
	Long: `Push one HUD update: turn arrow, distance to the turn, road name,
ETA and the rest. Fields left empty keep their last displayed value.`,
	Example: `  g2link-ctl nav set --direction 2 --distance "200 m" --road "Main St" --eta "14:32"

  g2link-ctl nav set --distance "50 m" --remaining "1.2 km" --speed "18 km/h"`,
	RunE: runNavSet,
}

func init() {
	navSetCmd.Flags().IntVar(&navFlags.DirectionIndex, "direction", 0, "Turn arrow glyph index")
	navSetCmd.Flags().StringVar(&navFlags.Distance, "distance", "", "Distance to the next turn")
	navSetCmd.Flags().StringVar(&navFlags.Road, "road", "", "Road or exit name")
	navSetCmd.Flags().StringVar(&navFlags.TravelTime, "travel-time", "", "Time spent so far")
	navSetCmd.Flags().StringVar(&navFlags.RemainingDistance, "remaining", "", "Distance to the destination")
	navSetCmd.Flags().StringVar(&navFlags.ArrivalTime, "eta", "", "Estimated arrival time")
	navSetCmd.Flags().StringVar(&navFlags.Speed, "speed", "", "Current speed")

	navCmd.AddCommand(navStartCmd)
	navCmd.AddCommand(navSetCmd)
	navCmd.AddCommand(navStopCmd)
}

func runNavSet(cmd *cobra.Command, args []string) error {
	if useBridge() {
		return withBridge(func(ctx context.Context, client *bridge.Client) error {
			params := bridge.NavigationParams{
				Direction:      navFlags.DirectionIndex,
				Distance:       navFlags.Distance,
				Road:           navFlags.Road,
				ETA:            navFlags.ArrivalTime,
				Speed:          navFlags.Speed,
				RemainDistance: navFlags.RemainingDistance,
				SpendTime:      navFlags.TravelTime,
			}
			if err := client.SetNavigation(ctx, params); err != nil {
				return err
			}
			fmt.Println("✓ Navigation updated")
			return nil
		})
	}
	return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
		if err := session.SetNavigation(ctx, navFlags); err != nil {
			return err
		}
		ui.PrintSuccess("Navigation updated", map[string]string{"Device": device.Name})
		return nil
	})
}

var navStopCmd = &cobra.Command{
	Use:     "stop",
	Short:   "Close the navigation screen",
	Example: `  g2link-ctl nav stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if useBridge() {
			return withBridge(func(ctx context.Context, client *bridge.Client) error {
				if err := client.StopNavigation(ctx); err != nil {
					return err
				}
				fmt.Println("✓ Navigation stopped")
				return nil
			})
		}
		return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
			if err := session.StopNavigation(ctx); err != nil {
				return err
			}
			ui.PrintSuccess("Navigation stopped", map[string]string{"Device": device.Name})
			return nil
		})
	},
}

// dashboardCmd shows the dashboard screen
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Short:   "Show the dashboard screen",
	Example: `  g2link-ctl dashboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
			if err := session.ShowDashboard(ctx); err != nil {
				return err
			}
			ui.PrintSuccess("Dashboard shown", map[string]string{"Device": device.Name})
			return nil
		})
	},
}

// pageNames maps CLI names to screens
var pageNames = map[string]glasses.Page{
	"default":      glasses.PageDefault,
	"dashboard":    glasses.PageDashboard,
	"menu":         glasses.PageMenu,
	"notification": glasses.PageNotification,
	"translate":    glasses.PageTranslate,
	"teleprompter": glasses.PageTeleprompter,
	"evenai":       glasses.PageEvenAI,
	"navigation":   glasses.PageNavigation,
	"settings":     glasses.PageSettings,
	"transcribe":   glasses.PageTranscribe,
	"conversate":   glasses.PageConversate,
	"quicklist":    glasses.PageQuicklist,
}

// pageNameList returns the accepted page names, sorted
func pageNameList() string {
	names := make([]string, 0, len(pageNames))
	for name := range pageNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// pageCmd switches the active screen
var pageCmd = &cobra.Command{
	Use:   "page <name>",
	Short: "Switch the active screen",
	Long:  `Switch the glasses to a named screen.`,
	Example: `  g2link-ctl page dashboard
  g2link-ctl page teleprompter`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, ok := pageNames[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown page %q (accepted: %s)", args[0], pageNameList())
		}
		return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
			if err := session.SwitchPage(ctx, page); err != nil {
				return err
			}
			ui.PrintSuccess("Screen switched", map[string]string{
				"Device": device.Name,
				"Page":   page.String(),
			})
			return nil
		})
	},
}

// wakeCmd wakes the display from standby
var wakeCmd = &cobra.Command{
	Use:     "wake",
	Short:   "Wake the display",
	Example: `  g2link-ctl wake`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
			if err := session.WakeDisplay(ctx); err != nil {
				return err
			}
			ui.PrintSuccess("Display awake", map[string]string{"Device": device.Name})
			return nil
		})
	},
}

// rawCmd sends an arbitrary payload to a service
var rawCmd = &cobra.Command{
	Use:   "raw <service-hex> <payload-hex>",
	Short: "Send a raw payload to a service",
	Long: `Send an arbitrary payload to a service and print every reply that
arrives within the response window. The payload is framed, checksummed
and fragmented for you; you supply the service id (two hex bytes) and
the payload bytes.

This is a protocol research tool. An unknown payload can put the
firmware in a bad state that only a power cycle clears.`,
	Example: `  # Query the settings service
  g2link-ctl raw 0920 0800 --wait 1500

  # Through a running bridge
  g2link-ctl raw 0620 0a00 --bridge localhost:8765`,
	Args: cobra.ExactArgs(2),
	RunE: runRaw,
}

func init() {
	rawCmd.Flags().IntVar(&rawWait, "wait", 1000, "Response window in milliseconds")
}

func runRaw(cmd *cobra.Command, args []string) error {
	svc, err := hex.DecodeString(args[0])
	if err != nil || len(svc) != 2 {
		return fmt.Errorf("service must be two hex bytes, e.g. 0620")
	}
	payload, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid payload hex: %w", err)
	}

	if !ui.RawSendConfirmation() {
		fmt.Println("Cancelled.")
		return nil
	}

	window := time.Duration(rawWait) * time.Millisecond

	if useBridge() {
		return withBridge(func(ctx context.Context, client *bridge.Client) error {
			frames, err := client.SendRaw(ctx, svc[0], svc[1], payload, window)
			if err != nil {
				return err
			}
			printRawReplies(len(frames), func(i int) string {
				msg, err := protocol.ParseMessage(frames[i])
				if err != nil {
					return hex.EncodeToString(frames[i])
				}
				return msg.String()
			})
			return nil
		})
	}

	return withGlasses(func(ctx context.Context, session *glasses.Session, device glasses.Device) error {
		service := protocol.NewServiceID(svc[0], svc[1])
		fmt.Printf("Sending %d byte(s) to %s...\n", len(payload), service)

		replies, err := session.SendAndCollect(ctx, service, payload, window)
		if err != nil {
			return err
		}
		printRawReplies(len(replies), func(i int) string {
			return replies[i].String()
		})
		return nil
	})
}

// printRawReplies prints the collected responses from a raw send
func printRawReplies(count int, summary func(int) string) {
	if count == 0 {
		fmt.Println("No replies within the window.")
		return
	}
	fmt.Printf("Received %d repl%s:\n", count, plural(count, "y", "ies"))
	for i := 0; i < count; i++ {
		fmt.Printf("  %2d. %s\n", i+1, summary(i))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// decodeCmd parses a hex-encoded frame without touching the radio
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a hex-encoded frame",
	Long: `Parse a hex-encoded frame and print its header, payload fields and
checksum verdict. Accepts bytes with or without spaces and colons, so
Wireshark copy-paste works directly.

Frame format reference: ` + urls.FrameFormat,
	Example: `  g2link-ctl decode aa1208110001000620080016d2
  g2link-ctl decode "aa 12 08 11 00 01 00 06 20 08 00 16 d2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "").Replace(strings.Join(args, ""))
	data, err := hex.DecodeString(clean)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	frame, err := protocol.ParseFrame(data)
	if err != nil {
		return fmt.Errorf("frame rejected: %w", err)
	}

	fmt.Printf("Frame:    %s\n", frame)
	fmt.Printf("Type:     0x%02x (%s)\n", frame.Type, protocol.FrameTypeName(frame.Type))
	fmt.Printf("Sequence: 0x%02x\n", frame.Sequence)
	fmt.Printf("Service:  %s\n", frame.Service)
	if frame.Fragmented() {
		fmt.Printf("Fragment: %d of %d\n", frame.FragIndex+1, frame.FragTotal)
	}
	fmt.Printf("Payload:  %d byte(s): %s\n", len(frame.Payload), hex.EncodeToString(frame.Payload))

	msg := protocol.Classify(frame)
	fmt.Printf("Decoded:  %s\n", msg)

	return nil
}

// captureCmd analyzes a btsnoop capture file
var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Analyze a btsnoop capture",
	Long: `Extract glasses traffic from a btsnoop HCI capture (Android bug
reports, bluetoothd logs) and summarize it per service. With --frames
every extracted frame is printed in arrival order.

Capture workflow: ` + urls.CaptureAnalysis,
	Example: `  # Per-service summary
  g2link-ctl capture btsnoop_hci.log

  # Every frame, decoded
  g2link-ctl capture btsnoop_hci.log --frames`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

var captureFrames bool

func init() {
	captureCmd.Flags().BoolVar(&captureFrames, "frames", false, "Print every extracted frame")
}

func runCapture(cmd *cobra.Command, args []string) error {
	f, err := capture.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}

	packets := capture.ExtractPackets(f)
	if len(packets) == 0 {
		fmt.Println("No glasses frames found in the capture.")
		fmt.Println("\nThe extractor looks for ATT writes carrying the 0xAA frame magic.")
		fmt.Println("Capture workflow: " + urls.CaptureAnalysis)
		return nil
	}

	fmt.Printf("Extracted %d frame(s) from %d record(s)\n\n", len(packets), len(f.Records))

	if captureFrames {
		for _, p := range packets {
			dir := "→"
			if p.Received {
				dir = "←"
			}
			fmt.Printf("%4d %s %s %s\n", p.Index, p.Time.Format("15:04:05.000"), dir, p.Frame)
		}
		return nil
	}

	tallies := capture.SortedTallies(capture.TallyByService(packets))
	fmt.Printf("%-22s %8s %12s\n", "SERVICE", "FRAMES", "FRAGMENTED")
	for _, t := range tallies {
		fmt.Printf("%-22s %8d %12d\n", t.Service, t.Frames, t.Fragmented)
	}

	return nil
}

// bridgesCmd discovers running bridges on the LAN
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Find g2link bridges on the network",
	Long: `Discover running g2link-bridge instances via mDNS and print their
addresses. Pass one to --bridge to route commands through it.`,
	Example: `  g2link-ctl bridges`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Scanning for bridges...")

		endpoints, err := discovery.QuickScan()
		if err != nil {
			return fmt.Errorf("bridge scan failed: %w", err)
		}
		if len(endpoints) == 0 {
			fmt.Println("No bridges found.")
			fmt.Println("\nStart one with: g2link-bridge serve --advertise")
			return nil
		}

		fmt.Printf("Found %d bridge(s):\n\n", len(endpoints))
		for i, ep := range endpoints {
			fmt.Printf("%d. %s\n", i+1, ep)
			fmt.Printf("   Address: %s\n", ep.Addr())
			fmt.Printf("   URL:     %s\n", ep.URL())
			fmt.Println()
		}
		fmt.Println("Route commands through one with --bridge <address>")
		return nil
	},
}

// wizardCmd launches the interactive console
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive glasses console",
	Long: `Launch the full-screen interactive console.

The console provides:
- BLE discovery with remembered nicknames
- One-key connect with live handshake progress
- A streaming feed of inbound notifications
- Text entry straight onto the display
- Single-key screen switching, wake and time sync

This is the recommended way to explore a pair of glasses.`,
	Example: `  # Launch with discovery
  g2link-ctl wizard
  # Or simply (the console is the default):
  g2link-ctl

  # Skip discovery for a known pair
  g2link-ctl wizard --device AA:BB:CC:DD:EE:01`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}
	defer logging.Sync()

	reg := loadRegistry()

	events := make(chan glasses.Event, 32)
	session := newSession(reg, func(ev glasses.Event) {
		select {
		case events <- ev:
		default: // drop rather than stall the notify path
		}
	})

	var preselected *glasses.Device
	if deviceMAC != "" {
		target := glasses.Device{Address: deviceMAC}
		if g := reg.GetGlasses(deviceMAC); g != nil {
			target.Name = g.Name
		}
		preselected = &target
	}

	model := tui.NewAppModel(session, reg, events, preselected)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	_ = session.Disconnect()

	return nil
}
