package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kordwall/g2link/internal/glasses"
)

// maxFeedLines bounds the traffic feed; old lines scroll off
const maxFeedLines = 200

// Controller is the slice of the session surface the dashboard screen needs.
type Controller interface {
	ConnectTo(ctx context.Context, device glasses.Device) (glasses.Device, error)
	Disconnect() error
	State() glasses.State
	SetText(ctx context.Context, text string) error
	WakeDisplay(ctx context.Context) error
	ShowDashboard(ctx context.Context) error
	SwitchPage(ctx context.Context, page glasses.Page) error
	SyncTime(ctx context.Context) error
}

// Messages for async operations
type connectCompleteMsg struct {
	device glasses.Device
	err    error
}

type actionResultMsg struct {
	action string
	err    error
}

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Send       key.Binding
	Wake       key.Binding
	Dashboard  key.Binding
	Teleprompt key.Binding
	SyncTime   key.Binding
	Focus      key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Wake, k.Dashboard, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Send, k.Wake},
		{k.Dashboard, k.Teleprompt, k.SyncTime},
		{k.Back, k.Quit},
	}
}

// DashboardModel is the connected-session screen: status, traffic feed,
// and a text box that pushes lines onto the display.
type DashboardModel struct {
	controller Controller
	device     glasses.Device
	nickname   string

	Feed       viewport.Model
	Input      textinput.Model
	Spinner    spinner.Model
	Help       help.Model
	Keys       dashboardKeyMap
	Connecting bool
	Back       bool
	Err        error
	LastAction string

	feedLines []string
	Width     int
	Height    int
}

// NewDashboardModel creates the dashboard screen for a chosen device
func NewDashboardModel(controller Controller, device glasses.Device, nickname string) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = "Text to show on the glasses..."
	ti.CharLimit = 400
	ti.Width = 50

	vp := viewport.New(60, 10)

	keys := dashboardKeyMap{
		Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send text")),
		Wake:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wake display")),
		Dashboard:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Teleprompt: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "teleprompter page")),
		SyncTime:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "sync time")),
		Focus:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "type text")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "disconnect")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}

	return DashboardModel{
		controller: controller,
		device:     device,
		nickname:   nickname,
		Feed:       vp,
		Input:      ti,
		Spinner:    sp,
		Help:       help.New(),
		Keys:       keys,
		Connecting: true,
	}
}

// Init starts the connect flow for the chosen device
func (m DashboardModel) Init() tea.Cmd {
	controller := m.controller
	device := m.device
	connect := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		dev, err := controller.ConnectTo(ctx, device)
		return connectCompleteMsg{device: dev, err: err}
	}
	return tea.Batch(m.Spinner.Tick, connect)
}

// runAction dispatches a session command off the UI goroutine
func (m DashboardModel) runAction(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return actionResultMsg{action: action, err: fn(ctx)}
	}
}

// appendFeed adds a timestamped line to the traffic feed
func (m *DashboardModel) appendFeed(style lipgloss.Style, line string) {
	stamp := FeedTimeStyle.Render(time.Now().Format("15:04:05"))
	m.feedLines = append(m.feedLines, stamp+" "+style.Render(line))
	if len(m.feedLines) > maxFeedLines {
		m.feedLines = m.feedLines[len(m.feedLines)-maxFeedLines:]
	}
	m.Feed.SetContent(strings.Join(m.feedLines, "\n"))
	m.Feed.GotoBottom()
}

// HandleSessionEvent folds a session event into the feed
func (m DashboardModel) HandleSessionEvent(ev glasses.Event) DashboardModel {
	switch ev.Kind {
	case glasses.EventConnected:
		m.appendFeed(FeedEventStyle, "connected to "+ev.Device)
	case glasses.EventDisconnected:
		m.appendFeed(FeedEventStyle, fmt.Sprintf("disconnected from %s (%s)", ev.Device, ev.Reason))
	case glasses.EventResponse:
		if ev.Message != nil {
			m.appendFeed(FeedRxStyle, "← "+ev.Message.String())
		}
	}
	return m
}

// Update handles dashboard screen messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Feed.Width = msg.Width - 10
		m.Feed.Height = max(4, msg.Height-16)
		m.Input.Width = msg.Width - 16
		return m, nil

	case spinner.TickMsg:
		if !m.Connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case connectCompleteMsg:
		m.Connecting = false
		m.Err = msg.err
		if msg.err == nil {
			m.device = msg.device
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.appendFeed(ErrorStyle, fmt.Sprintf("%s failed: %v", msg.action, msg.err))
		} else {
			m.appendFeed(FeedEventStyle, "→ "+msg.action)
		}
		m.LastAction = msg.action
		return m, nil

	case tea.KeyMsg:
		if m.Connecting {
			return m, nil
		}
		if m.Input.Focused() {
			switch msg.String() {
			case "enter":
				text := strings.TrimSpace(m.Input.Value())
				m.Input.SetValue("")
				m.Input.Blur()
				if text == "" {
					return m, nil
				}
				return m, m.runAction("text: "+text, func(ctx context.Context) error {
					return m.controller.SetText(ctx, text)
				})
			case "esc":
				m.Input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.Input, cmd = m.Input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.Keys.Focus):
			m.Input.Focus()
			return m, textinput.Blink
		case key.Matches(msg, m.Keys.Wake):
			return m, m.runAction("wake display", m.controller.WakeDisplay)
		case key.Matches(msg, m.Keys.Dashboard):
			return m, m.runAction("show dashboard", m.controller.ShowDashboard)
		case key.Matches(msg, m.Keys.Teleprompt):
			return m, m.runAction("teleprompter page", func(ctx context.Context) error {
				return m.controller.SwitchPage(ctx, glasses.PageTeleprompter)
			})
		case key.Matches(msg, m.Keys.SyncTime):
			return m, m.runAction("sync time", m.controller.SyncTime)
		case key.Matches(msg, m.Keys.Back):
			m.Back = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.Feed, cmd = m.Feed.Update(msg)
	return m, cmd
}

// View renders the dashboard screen
func (m DashboardModel) View() string {
	content := m.buildContent()
	helpText := m.Help.View(m.Keys)
	if m.Connecting {
		helpText = "connecting..."
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// displayName prefers the registry nickname over the advertised name
func (m DashboardModel) displayName() string {
	if m.nickname != "" {
		return m.nickname
	}
	return m.device.Name
}

// buildContent builds the dashboard screen content
func (m DashboardModel) buildContent() string {
	var b strings.Builder

	if m.Connecting {
		b.WriteString(RenderTitle("Connecting"))
		b.WriteString("\n")
		b.WriteString(m.Spinner.View())
		b.WriteString(fmt.Sprintf(" Handshaking with %s...", m.displayName()))
		return b.String()
	}

	if m.Err != nil {
		b.WriteString(RenderTitle("Connection failed"))
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle("Press esc to go back and rescan."))
		return b.String()
	}

	status := fmt.Sprintf("%s  •  %s  •  %s  •  %s",
		m.displayName(), m.device.Address, FormatRSSI(m.device.RSSI), m.controller.State())
	b.WriteString(StatusBarStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(m.Feed.View())
	b.WriteString("\n\n")

	inputStyle := BlurredInputStyle
	if m.Input.Focused() {
		inputStyle = FocusedInputStyle
	}
	b.WriteString(inputStyle.Render(m.Input.View()))

	return b.String()
}
