// Package tui implements the terminal user interface for the g2link glasses console.
//
// This package provides an interactive, full-screen TUI for finding a pair of
// Even G2 glasses over BLE, completing the session handshake, and driving the
// display interactively. Built using the Bubble Tea framework, it follows the
// Elm architecture with immutable state updates and a clean Model-Update-View
// pattern.
//
// # Architecture
//
// The TUI is organized into two screens:
//   - Discovery: Scan for glasses over BLE and pick an endpoint
//   - Dashboard: Connected session with a live traffic feed and text entry
//
// All screens use a unified container pattern (RenderApplicationContainer) for
// consistent layout with header, content area, and context-sensitive footer.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: Scan and handshake indicators
//   - bubbles/textinput: The send-text box on the dashboard
//   - bubbles/list: Discovered glasses rendered as cards
//   - bubbles/help: Context-aware key binding help
//   - bubbles/viewport: Scrolling traffic feed
//   - lipgloss: Styling and layout
//
// # Usage Example
//
//	events := make(chan glasses.Event, 32)
//	session := glasses.NewSession(glasses.Config{
//	    Transport: transport,
//	    OnEvent: func(ev glasses.Event) {
//	        select {
//	        case events <- ev:
//	        default: // never block the notify path
//	        }
//	    },
//	})
//
//	app := tui.NewAppModel(session, registry, events, nil)
//	program := tea.NewProgram(app, tea.WithAltScreen())
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Screen Flow
//
// The typical user flow through the console:
//
//  1. Discovery Screen:
//     - Automatically scans for G2 advertisements over BLE
//     - Displays each endpoint as a card: name, address, arm, signal strength
//     - Glasses remembered in the registry show their nickname
//     - User selects an endpoint to connect
//
//  2. Dashboard Screen:
//     - Connects and runs the handshake against the chosen endpoint
//     - Status bar shows device, address, signal, and session state
//     - Traffic feed streams inbound notifications and sent commands
//     - Text box (press i) pushes a line of text onto the display
//     - Single keys trigger wake, dashboard page, teleprompter page, time sync
//     - ESC disconnects and returns to discovery
//
// # Session Events
//
// Inbound traffic reaches the TUI through a channel. The session's OnEvent
// callback pushes events in with a non-blocking send; a re-armed Bubble Tea
// command drains the channel, so notify-path goroutines never wait on the UI.
//
// # Key Bindings
//
// Each screen has context-aware key bindings:
//   - Discovery: ↑/↓ navigate, Enter connect, r rescan, q quit
//   - Dashboard: i type text, w wake, d dashboard, p teleprompter, y sync time, ESC back, q quit
//   - Dashboard (typing): Enter send, ESC cancel
//
// Help text automatically updates based on screen state (e.g., during a scan).
//
// # State Management
//
// The TUI maintains immutable state with explicit updates:
//   - Models contain all state (no global variables)
//   - Update() returns new model + commands
//   - View() is pure function of model state
//   - Commands represent async operations (scans, connects, session commands)
//
// # Thread Safety
//
// The Bubble Tea framework ensures thread safety through message passing.
// All model updates occur in a single goroutine; BLE I/O runs inside commands.
package tui
