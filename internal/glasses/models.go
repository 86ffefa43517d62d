package glasses

import (
	"fmt"
	"strings"
)

// Device identifies a pair of glasses found during a scan. The G2 advertises
// one endpoint per arm; the left arm carries "_L_" in its name and is the
// one the vendor app talks to.
type Device struct {
	Name    string // Advertised local name, e.g. "G2_48_L_123456"
	Address string // MAC address (or platform device identifier)
	RSSI    int16  // Signal strength at scan time, 0 when unknown
}

// Left reports whether the device is the left-arm endpoint.
func (d Device) Left() bool {
	return strings.Contains(d.Name, "_L_")
}

func (d Device) String() string {
	if d.Address == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}

// Page identifies a screen on the glasses. The values double as the high
// service byte for the per-screen services (teleprompter runs on 0x06-20,
// conversate on 0x0B-20 and so on).
type Page byte

const (
	PageDefault      Page = 0
	PageDashboard    Page = 1
	PageMenu         Page = 3
	PageNotification Page = 4
	PageTranslate    Page = 5
	PageTeleprompter Page = 6
	PageEvenAI       Page = 7
	PageNavigation   Page = 8
	PageSettings     Page = 9
	PageTranscribe   Page = 10
	PageConversate   Page = 11
	PageQuicklist    Page = 12
)

// String returns the screen name shown in the vendor app.
func (p Page) String() string {
	switch p {
	case PageDefault:
		return "default"
	case PageDashboard:
		return "dashboard"
	case PageMenu:
		return "menu"
	case PageNotification:
		return "notification"
	case PageTranslate:
		return "translate"
	case PageTeleprompter:
		return "teleprompter"
	case PageEvenAI:
		return "evenai"
	case PageNavigation:
		return "navigation"
	case PageSettings:
		return "settings"
	case PageTranscribe:
		return "transcribe"
	case PageConversate:
		return "conversate"
	case PageQuicklist:
		return "quicklist"
	default:
		return fmt.Sprintf("page(%d)", byte(p))
	}
}

// AIStatus is the state pushed with an Even AI control command.
type AIStatus byte

const (
	AIStatusWakeUp AIStatus = 1
	AIStatusEnter  AIStatus = 2
	AIStatusExit   AIStatus = 3
)

func (s AIStatus) String() string {
	switch s {
	case AIStatusWakeUp:
		return "wake_up"
	case AIStatusEnter:
		return "enter"
	case AIStatusExit:
		return "exit"
	default:
		return fmt.Sprintf("status(%d)", byte(s))
	}
}

// Skill identifies an Even AI skill slot.
type Skill byte

const (
	SkillBrightness     Skill = 1
	SkillTranslate      Skill = 2
	SkillNotification   Skill = 3
	SkillTeleprompt     Skill = 4
	SkillNavigate       Skill = 5
	SkillConversate     Skill = 6
	SkillQuicklist      Skill = 7
	SkillAutoBrightness Skill = 8
)

func (s Skill) String() string {
	switch s {
	case SkillBrightness:
		return "brightness"
	case SkillTranslate:
		return "translate"
	case SkillNotification:
		return "notification"
	case SkillTeleprompt:
		return "teleprompt"
	case SkillNavigate:
		return "navigate"
	case SkillConversate:
		return "conversate"
	case SkillQuicklist:
		return "quicklist"
	case SkillAutoBrightness:
		return "auto_brightness"
	default:
		return fmt.Sprintf("skill(%d)", byte(s))
	}
}

// AIEvent is the stream-control event sent alongside Even AI replies.
type AIEvent byte

const (
	AIEventNone           AIEvent = 0
	AIEventScroll         AIEvent = 1
	AIEventStreamComplete AIEvent = 2
)

func (e AIEvent) String() string {
	switch e {
	case AIEventNone:
		return "none"
	case AIEventScroll:
		return "scroll"
	case AIEventStreamComplete:
		return "stream_complete"
	default:
		return fmt.Sprintf("event(%d)", byte(e))
	}
}

// NavigationInfo carries one HUD update for the navigation screen. Empty
// strings are omitted from the payload; the glasses keep showing the last
// value they received for a field.
type NavigationInfo struct {
	DirectionIndex    int    // Turn arrow glyph index
	Distance          string // Distance to the next turn, e.g. "200 m"
	Road              string // Road or exit name
	TravelTime        string // Time spent so far
	RemainingDistance string // Distance to the destination
	ArrivalTime       string // ETA, e.g. "14:32"
	Speed             string // Current speed
	WorkMethod        int    // 0 in every capture; kept for replay fidelity
}

// CalendarEntry is one schedule row on the dashboard.
type CalendarEntry struct {
	ID           int // Schedule slot id
	Title        string
	Location     string
	TimeRange    string // Display string, e.g. "10:00 AM - 10:30 AM"
	EndTimestamp int64  // Unix seconds, 0 when unused
}

// Dashboard status bar and widget slots. The order arrays below are built
// from these values.
const (
	StatusWeather byte = 1
	StatusMessage byte = 2
	StatusBattery byte = 3

	WidgetNews     byte = 1
	WidgetStock    byte = 2
	WidgetSchedule byte = 3
)

// DashboardLayout selects which status items and widgets the dashboard
// shows and in what order.
type DashboardLayout struct {
	StatusOrder []byte // Status bar slots, left to right
	WidgetOrder []byte // Widget slots, top to bottom
}

// DefaultDashboardLayout mirrors the layout the vendor app configures on a
// fresh pair: full status bar, news then schedule then a doubled stock slot.
func DefaultDashboardLayout() DashboardLayout {
	return DashboardLayout{
		StatusOrder: []byte{StatusWeather, StatusMessage, StatusBattery},
		WidgetOrder: []byte{WidgetNews, WidgetSchedule, WidgetStock, WidgetStock},
	}
}

// NotificationSettings controls how phone notifications render.
type NotificationSettings struct {
	Enabled        bool
	AutoDisplay    bool
	DisplaySeconds int
	AvoidDisturb   bool
}

// DefaultNotificationSettings matches the capture: everything on, five
// second display.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:        true,
		AutoDisplay:    true,
		DisplaySeconds: 5,
		AvoidDisturb:   true,
	}
}
