package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kordwall/g2link/internal/glasses"
)

// Scanner is the slice of the session surface the discovery screen needs.
type Scanner interface {
	Scan(ctx context.Context) ([]glasses.Device, error)
}

// Messages for async operations
type scanCompleteMsg struct {
	devices []glasses.Device
	err     error
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Quit},
	}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device glasses.Device
	known  string // Nickname from the registry, empty when unknown
}

// FilterValue filters by advertised name, nickname, or address
func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.known + " " + d.device.Address
}

// Title returns the display name for list rendering
func (d deviceItem) Title() string {
	if d.known != "" {
		return fmt.Sprintf("%s (%s)", d.known, d.device.Name)
	}
	return d.device.Name
}

// Description returns device details for list rendering
func (d deviceItem) Description() string {
	arm := "right arm"
	if d.device.Left() {
		arm = "left arm"
	}
	return fmt.Sprintf("%s • %s • %s", d.device.Address, arm, FormatRSSI(d.device.RSSI))
}

// deviceDelegate renders devices as bordered cards
type deviceDelegate struct{}

func (d deviceDelegate) Height() int                             { return 4 }
func (d deviceDelegate) Spacing() int                            { return 0 }
func (d deviceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deviceItem)
	if !ok {
		return
	}

	borderColor := SubtleColor
	titleColor := TextColor
	if index == m.Index() {
		borderColor = HighlightColor
		titleColor = HighlightColor
	}

	title := lipgloss.NewStyle().Foreground(titleColor).Bold(true).Render(di.Title())
	desc := lipgloss.NewStyle().Foreground(SubtleColor).Render(di.Description())

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(m.Width() - 4).
		Render(title + "\n" + desc)

	fmt.Fprint(w, card)
}

// DiscoveryModel is the BLE scan screen
type DiscoveryModel struct {
	scanner Scanner
	known   map[string]string // Address to nickname

	List     list.Model
	Spinner  spinner.Model
	Help     help.Model
	Keys     discoveryKeyMap
	Scanning bool
	Selected bool
	Err      error

	Width  int
	Height int
}

// NewDiscoveryModel creates the discovery screen. The known map carries
// registry nicknames keyed by address so remembered glasses are labeled.
func NewDiscoveryModel(scanner Scanner, known map[string]string) DiscoveryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	l := list.New(nil, deviceDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	keys := discoveryKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
		Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	}

	return DiscoveryModel{
		scanner: scanner,
		known:   known,
		List:    l,
		Spinner: sp,
		Help:    help.New(),
		Keys:    keys,
	}
}

// Init kicks off the first scan
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.startScan())
}

// startScan runs a BLE scan off the UI goroutine
func (m DiscoveryModel) startScan() tea.Cmd {
	scanner := m.scanner
	return func() tea.Msg {
		devices, err := scanner.Scan(context.Background())
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// GetSelectedDevice returns the highlighted device, nil when the list is empty
func (m DiscoveryModel) GetSelectedDevice() *glasses.Device {
	item, ok := m.List.SelectedItem().(deviceItem)
	if !ok {
		return nil
	}
	d := item.device
	return &d
}

// Update handles discovery screen messages
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-8, msg.Height-12)
		return m, nil

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err

		items := make([]list.Item, 0, len(msg.devices))
		for _, d := range msg.devices {
			items = append(items, deviceItem{device: d, known: m.known[d.Address]})
		}
		m.List.SetItems(items)
		return m, nil

	case tea.KeyMsg:
		if m.Scanning {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Rescan):
			m.Scanning = true
			m.Err = nil
			return m, tea.Batch(m.Spinner.Tick, m.startScan())

		case key.Matches(msg, m.Keys.Enter):
			if m.GetSelectedDevice() != nil {
				m.Selected = true
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	content := m.buildContent()
	helpText := m.Help.View(m.Keys)
	if m.Scanning {
		helpText = "scanning..."
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// buildContent builds the discovery screen content
func (m DiscoveryModel) buildContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Find your glasses"))
	b.WriteString("\n")

	switch {
	case m.Scanning:
		b.WriteString(m.Spinner.View())
		b.WriteString(" Scanning for Even G2 glasses over BLE...\n\n")
		b.WriteString(RenderSubtitle("Take the glasses out of the case and unfold them."))

	case m.Err != nil:
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle("Press r to scan again."))

	case len(m.List.Items()) == 0:
		b.WriteString(RenderInfo(strings.Join([]string{
			"No glasses found.",
			"",
			"  • Unfold the glasses; folded arms power the radio down",
			"  • Close the vendor app on your phone, it holds the link",
			"  • Check the adapter: bluetoothctl power on",
		}, "\n")))
		b.WriteString("\n")
		b.WriteString(RenderSubtitle("Press r to scan again."))

	default:
		b.WriteString(fmt.Sprintf("Found %d endpoint(s). The left arm hosts the link.\n\n", len(m.List.Items())))
		b.WriteString(m.List.View())
	}

	return b.String()
}
