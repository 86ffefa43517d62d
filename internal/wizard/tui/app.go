package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kordwall/g2link/internal/config"
	"github.com/kordwall/g2link/internal/glasses"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenDashboard Screen = "dashboard"
)

// sessionEventMsg carries a session event into the Bubble Tea loop
type sessionEventMsg struct {
	event glasses.Event
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	// Current screen state
	CurrentScreen Screen

	// Screen models
	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	// Shared application state
	Session  *glasses.Session
	Registry *config.Registry
	Events   <-chan glasses.Event

	SelectedDevice *glasses.Device

	// UI state
	Width  int
	Height int
}

// NewAppModel creates a new application model. The events channel is fed by
// the session's event callback; a preselected device (from a --device flag)
// skips discovery and goes straight to the dashboard.
func NewAppModel(session *glasses.Session, registry *config.Registry, events <-chan glasses.Event, device *glasses.Device) AppModel {
	model := AppModel{
		Session:        session,
		Registry:       registry,
		Events:         events,
		SelectedDevice: device,
	}

	if device != nil {
		model.CurrentScreen = ScreenDashboard
		model.DashboardModel = NewDashboardModel(session, *device, model.nicknameFor(device.Address))
	} else {
		model.CurrentScreen = ScreenDiscovery
		model.DiscoveryModel = NewDiscoveryModel(session, model.nicknames())
	}

	return model
}

// nicknames builds the address-to-nickname map from the registry
func (m AppModel) nicknames() map[string]string {
	known := make(map[string]string)
	if m.Registry == nil {
		return known
	}
	for mac, g := range m.Registry.Glasses {
		if g.Nickname != "" {
			known[mac] = g.Nickname
		}
	}
	return known
}

// nicknameFor returns the registry nickname for an address, if any
func (m AppModel) nicknameFor(address string) string {
	if m.Registry == nil {
		return ""
	}
	if g := m.Registry.GetGlasses(address); g != nil {
		return g.Nickname
	}
	return ""
}

// waitForEvent blocks on the session event channel. The returned command is
// re-armed after every delivery so events keep flowing into the loop.
func (m AppModel) waitForEvent() tea.Cmd {
	events := m.Events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenDiscovery:
		cmd = m.DiscoveryModel.Init()
	case ScreenDashboard:
		cmd = m.DashboardModel.Init()
	}
	return tea.Batch(cmd, m.waitForEvent())
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to all screens
		updated, _ := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		updated, _ = m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)
		return m, nil

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case sessionEventMsg:
		if m.CurrentScreen == ScreenDashboard {
			m.DashboardModel = m.DashboardModel.HandleSessionEvent(msg.event)
		}
		return m, m.waitForEvent()

	case scanCompleteMsg:
		// Remember every sighting before the screen renders the list
		if msg.err == nil && m.Registry != nil {
			for _, d := range msg.devices {
				m.Registry.RecordSighting(d.Address, d.Name, d.RSSI)
			}
			// Best effort; a read-only config dir should not break the wizard
			_ = m.Registry.Save()
		}
	}

	// Route to current screen
	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, c := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		cmd = c

		// Check if user selected a device
		if m.DiscoveryModel.Selected {
			m.SelectedDevice = m.DiscoveryModel.GetSelectedDevice()
			if m.SelectedDevice != nil {
				return m.transitionTo(ScreenDashboard)
			}
		}

		// Check for quit (normal mode only, not during scan)
		if !m.DiscoveryModel.Scanning {
			if keyMsg, ok := msg.(tea.KeyMsg); ok {
				if keyMsg.String() == "q" || keyMsg.String() == "esc" {
					return m, tea.Quit
				}
			}
		}

	case ScreenDashboard:
		updated, c := m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)
		cmd = c

		// Check if user wants to go back
		if m.DashboardModel.Back {
			return m.goBack()
		}

		if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.DashboardModel.Input.Focused() {
			if keyMsg.String() == "q" {
				_ = m.Session.Disconnect()
				return m, tea.Quit
			}
		}
	}

	return m, cmd
}

// transitionTo transitions to a new screen
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.CurrentScreen = screen

	var cmd tea.Cmd

	switch screen {
	case ScreenDiscovery:
		m.DiscoveryModel = NewDiscoveryModel(m.Session, m.nicknames())
		m.DiscoveryModel.Width = m.Width
		m.DiscoveryModel.Height = m.Height
		cmd = m.DiscoveryModel.Init()

	case ScreenDashboard:
		if m.SelectedDevice != nil {
			m.DashboardModel = NewDashboardModel(m.Session, *m.SelectedDevice, m.nicknameFor(m.SelectedDevice.Address))
			m.DashboardModel.Width = m.Width
			m.DashboardModel.Height = m.Height
			cmd = m.DashboardModel.Init()
		}
	}

	return m, cmd
}

// goBack returns to the previous screen
func (m AppModel) goBack() (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDashboard:
		// Drop the link before rescanning; the radio holds one connection
		_ = m.Session.Disconnect()
		return m.transitionTo(ScreenDiscovery)

	default:
		return m, tea.Quit
	}
}

// View renders the current screen
// Each screen handles its own container using RenderApplicationContainer()
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenDashboard:
		return m.DashboardModel.View()
	default:
		return "Unknown screen"
	}
}
