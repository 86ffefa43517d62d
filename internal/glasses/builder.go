package glasses

import (
	"encoding/hex"

	"github.com/kordwall/g2link/internal/protocol"
)

// Command payload builders for the per-screen services. Every payload opens
// with field 1 (command id) and field 2 (message id); the session allocates
// the message id and picks the target service. Field numbers and constants
// below are replayed from btsnoop captures of the vendor app.

// commandHeader builds the two fields every command payload starts with.
func commandHeader(cmd, msgID uint64) []byte {
	payload := protocol.AppendVarintField(nil, 1, cmd)
	return protocol.AppendVarintField(payload, 2, msgID)
}

// Conversate service (0x0B-20)

const (
	cmdConversateSession = 1
	cmdConversateReply   = 2
	cmdConversateText    = 5
)

// BuildConversateConfig opens a conversate session. The glasses ignore
// transcription pushes until this has been sent once per connection.
//
// Payload structure:
//
//	field 1  varint  1
//	field 2  varint  msgID
//	field 3  bytes   {1:1, 2:{1:1, 2:1, 3:1, 4:1}}
func BuildConversateConfig(msgID uint64) []byte {
	inner := protocol.AppendVarintField(nil, 1, 1)
	inner = protocol.AppendVarintField(inner, 2, 1)
	inner = protocol.AppendVarintField(inner, 3, 1)
	inner = protocol.AppendVarintField(inner, 4, 1)

	session := protocol.AppendVarintField(nil, 1, 1)
	session = protocol.AppendBytesField(session, 2, inner)

	payload := commandHeader(cmdConversateSession, msgID)
	return protocol.AppendBytesField(payload, 3, session)
}

// BuildTranscription pushes live transcription text to the conversate
// screen. Non-final pushes update the current line in place; a final push
// commits it and scrolls.
//
// Payload structure:
//
//	field 1  varint  5
//	field 2  varint  msgID
//	field 7  bytes   {1:text, 2:final}
func BuildTranscription(msgID uint64, text string, final bool) []byte {
	var flag uint64
	if final {
		flag = 1
	}
	body := protocol.AppendStringField(nil, 1, text)
	body = protocol.AppendVarintField(body, 2, flag)

	payload := commandHeader(cmdConversateText, msgID)
	return protocol.AppendBytesField(payload, 7, body)
}

// BuildConversateReply renders an assistant reply on the conversate screen.
func BuildConversateReply(msgID uint64, text string) []byte {
	payload := commandHeader(cmdConversateReply, msgID)
	return protocol.AppendStringField(payload, 3, text)
}

// Even AI service (0x07-20)

const (
	cmdAIControl = 1
	cmdAIReply   = 5
	cmdAISkill   = 6
	cmdAIEvent   = 8
	cmdAIConfig  = 10
)

// DefaultStreamSpeed is the reply stream speed the vendor app configures.
const DefaultStreamSpeed = 32

// BuildAIControl pushes an Even AI state change (wake up, enter, exit).
//
// Payload structure:
//
//	field 1  varint  1
//	field 2  varint  msgID
//	field 3  bytes   {1:status}
func BuildAIControl(msgID uint64, status AIStatus) []byte {
	inner := protocol.AppendVarintField(nil, 1, uint64(status))
	payload := commandHeader(cmdAIControl, msgID)
	return protocol.AppendBytesField(payload, 3, inner)
}

// BuildAIReply streams reply text to the Even AI screen.
//
// Payload structure:
//
//	field 1  varint  5
//	field 2  varint  msgID
//	field 7  bytes   {1:1, 2:1 stream, 3:0 text mode, 4:text}
func BuildAIReply(msgID uint64, text string) []byte {
	body := protocol.AppendVarintField(nil, 1, 1)
	body = protocol.AppendVarintField(body, 2, 1)
	body = protocol.AppendVarintField(body, 3, 0)
	body = protocol.AppendStringField(body, 4, text)

	payload := commandHeader(cmdAIReply, msgID)
	return protocol.AppendBytesField(payload, 7, body)
}

// BuildAISkill invokes a skill slot. param and text ride along when the
// skill takes them (brightness level, teleprompter text) and are omitted
// when zero or empty, matching the vendor app.
//
// Payload structure:
//
//	field 1  varint  6
//	field 2  varint  msgID
//	field 8  bytes   {2:skill, 3?:param, 4?:text}
func BuildAISkill(msgID uint64, skill Skill, param uint64, text string) []byte {
	body := protocol.AppendVarintField(nil, 2, uint64(skill))
	if param != 0 {
		body = protocol.AppendVarintField(body, 3, param)
	}
	if text != "" {
		body = protocol.AppendStringField(body, 4, text)
	}

	payload := commandHeader(cmdAISkill, msgID)
	return protocol.AppendBytesField(payload, 8, body)
}

// BuildAIEvent signals stream control (scroll, stream complete) for a reply
// in progress.
func BuildAIEvent(msgID uint64, event AIEvent) []byte {
	inner := protocol.AppendVarintField(nil, 1, uint64(event))
	payload := commandHeader(cmdAIEvent, msgID)
	return protocol.AppendBytesField(payload, 10, inner)
}

// BuildAIConfig sets the voice switch and reply stream speed. The vendor app
// sends {0, 32} right after the handshake and again to refresh the
// dashboard.
//
// Payload structure:
//
//	field 1   varint  10
//	field 2   varint  msgID
//	field 13  bytes   {1:voiceSwitch, 2:streamSpeed}
func BuildAIConfig(msgID, voiceSwitch, streamSpeed uint64) []byte {
	inner := protocol.AppendVarintField(nil, 1, voiceSwitch)
	inner = protocol.AppendVarintField(inner, 2, streamSpeed)
	payload := commandHeader(cmdAIConfig, msgID)
	return protocol.AppendBytesField(payload, 13, inner)
}

// Navigation service (0x08-20)

const (
	cmdNavHeartbeat = 0
	cmdNavStart     = 5
	cmdNavInfo      = 7
	cmdNavExit      = 12
)

// BuildNavigationStart activates the navigation screen.
func BuildNavigationStart(msgID uint64) []byte {
	return commandHeader(cmdNavStart, msgID)
}

// BuildNavigationHeartbeat keeps the navigation screen alive. The glasses
// drop back to the dashboard when heartbeats stop for a while.
func BuildNavigationHeartbeat(msgID uint64) []byte {
	return commandHeader(cmdNavHeartbeat, msgID)
}

// BuildNavigationExit closes the navigation screen.
func BuildNavigationExit(msgID uint64) []byte {
	return commandHeader(cmdNavExit, msgID)
}

// BuildNavigationInfo pushes one HUD update. Empty strings are left out of
// the payload so the glasses keep their previous value for that field.
//
// Payload structure:
//
//	field 1  varint  7
//	field 2  varint  msgID
//	field 5  bytes   {1:directionIndex, 2?:distance, 3?:road, 4?:travelTime,
//	                  5?:remainingDistance, 6?:arrivalTime, 7?:speed,
//	                  8:workMethod}
func BuildNavigationInfo(msgID uint64, info NavigationInfo) []byte {
	body := protocol.AppendVarintField(nil, 1, uint64(info.DirectionIndex))
	if info.Distance != "" {
		body = protocol.AppendStringField(body, 2, info.Distance)
	}
	if info.Road != "" {
		body = protocol.AppendStringField(body, 3, info.Road)
	}
	if info.TravelTime != "" {
		body = protocol.AppendStringField(body, 4, info.TravelTime)
	}
	if info.RemainingDistance != "" {
		body = protocol.AppendStringField(body, 5, info.RemainingDistance)
	}
	if info.ArrivalTime != "" {
		body = protocol.AppendStringField(body, 6, info.ArrivalTime)
	}
	if info.Speed != "" {
		body = protocol.AppendStringField(body, 7, info.Speed)
	}
	body = protocol.AppendVarintField(body, 8, uint64(info.WorkMethod))

	payload := commandHeader(cmdNavInfo, msgID)
	return protocol.AppendBytesField(payload, 5, body)
}

// Teleprompter service (0x06-20)

const (
	cmdTeleprompterInit   = 1
	cmdTeleprompterPage   = 3
	cmdTeleprompterMarker = 0xFF
)

// Teleprompter viewport geometry, replayed from capture. The content height
// scales with the script length; everything else is fixed for the G2 panel.
const (
	teleprompterWidth      = 267
	teleprompterViewHeight = 230
	teleprompterCanvas     = 1294
	teleprompterScrollStep = 5
)

// TeleprompterContentHeight returns the scroll height the init command
// declares for a script of totalLines rendered lines. The ratio comes from
// capture pairs (140 lines mapped to height 2665).
func TeleprompterContentHeight(totalLines int) int {
	h := totalLines * 2665 / 140
	if h < 1 {
		h = 1
	}
	return h
}

// BuildTeleprompterInit opens the teleprompter screen and declares the
// scroll geometry for the script that follows.
//
// Payload structure:
//
//	field 1  varint  1
//	field 2  varint  msgID
//	field 3  bytes   {1:1, 2:{1:1, 2:0, 3:0, 4:width, 5:contentHeight,
//	                  6:viewHeight, 7:canvas, 8:scrollStep, 9:0}}
func BuildTeleprompterInit(msgID uint64, totalLines int) []byte {
	display := protocol.AppendVarintField(nil, 1, 1)
	display = protocol.AppendVarintField(display, 2, 0)
	display = protocol.AppendVarintField(display, 3, 0)
	display = protocol.AppendVarintField(display, 4, teleprompterWidth)
	display = protocol.AppendVarintField(display, 5, uint64(TeleprompterContentHeight(totalLines)))
	display = protocol.AppendVarintField(display, 6, teleprompterViewHeight)
	display = protocol.AppendVarintField(display, 7, teleprompterCanvas)
	display = protocol.AppendVarintField(display, 8, teleprompterScrollStep)
	display = protocol.AppendVarintField(display, 9, 0)

	settings := protocol.AppendVarintField(nil, 1, 1)
	settings = protocol.AppendBytesField(settings, 2, display)

	payload := commandHeader(cmdTeleprompterInit, msgID)
	return protocol.AppendBytesField(payload, 3, settings)
}

// BuildTeleprompterPage uploads one page of script text. The leading
// newline is part of the wire format; pages render blank without it.
//
// Payload structure:
//
//	field 1  varint  3
//	field 2  varint  msgID
//	field 5  bytes   {1:pageNum, 2:10, 3:"\n"+text}
func BuildTeleprompterPage(msgID uint64, pageNum int, text string) []byte {
	inner := protocol.AppendVarintField(nil, 1, uint64(pageNum))
	inner = protocol.AppendVarintField(inner, 2, 10)
	inner = protocol.AppendStringField(inner, 3, "\n"+text)

	payload := commandHeader(cmdTeleprompterPage, msgID)
	return protocol.AppendBytesField(payload, 5, inner)
}

// BuildTeleprompterMarker is sent between the first batch of pages and the
// rest. The vendor app emits it after page ten; scripts shorter than that
// still get one.
func BuildTeleprompterMarker(msgID uint64) []byte {
	inner := protocol.AppendVarintField(nil, 1, 0)
	inner = protocol.AppendVarintField(inner, 2, 6)
	payload := commandHeader(cmdTeleprompterMarker, msgID)
	return protocol.AppendBytesField(payload, 13, inner)
}

// Display configuration service (0x0E-20)

// displayConfigBlob is the lens geometry block the vendor app writes before
// a teleprompter session. Decoded it is a list of per-surface rectangles
// with float extents; replayed verbatim since the values are panel
// calibration, not content. Length pinned by the builder tests.
var displayConfigBlob, _ = hex.DecodeString(
	"08011213080210904e1d00e09444250000000028003000" +
		"12130803100d0f1d00408d44250000000028003000" +
		"1212080410001d00008842250000000028003000" +
		"1212080510001d00009242250000a24228003000" +
		"1212080610001d0000c642250000c44228003000" +
		"1800")

// BuildDisplayConfig writes the captured lens geometry block.
func BuildDisplayConfig(msgID uint64) []byte {
	payload := commandHeader(2, msgID)
	return protocol.AppendBytesField(payload, 4, displayConfigBlob)
}

// System service (0x80-00)

const cmdTimeSync = 0x0E

// BuildTimeSync asks the glasses to resync their clock. The vendor app
// closes every teleprompter upload with one.
//
// Payload structure:
//
//	field 1   varint  14
//	field 2   varint  msgID
//	field 13  bytes   empty
func BuildTimeSync(msgID uint64) []byte {
	payload := commandHeader(cmdTimeSync, msgID)
	return protocol.AppendBytesField(payload, 13, nil)
}

// System app service (0x80-20)

// BuildPageSwitch jumps the glasses to a screen.
//
// Payload structure:
//
//	field 1  varint  1
//	field 2  varint  msgID
//	field 3  bytes   {7:{1:page}}
func BuildPageSwitch(msgID uint64, page Page) []byte {
	inner := protocol.AppendVarintField(nil, 1, uint64(page))
	mid := protocol.AppendBytesField(nil, 7, inner)
	payload := commandHeader(1, msgID)
	return protocol.AppendBytesField(payload, 3, mid)
}

// Transcribe service (0x0A-20)

// BuildTranscribeInit is the first post-handshake write the vendor app
// makes. It wakes the app-plane services; the dashboard flow will not
// start without it.
func BuildTranscribeInit(msgID uint64) []byte {
	return commandHeader(0, msgID)
}

// Notification service (0x04-20)

const cmdNotificationControl = 1

// BuildDisplayWake pokes the notification service with a bare control
// command, which lights the display without changing any settings.
func BuildDisplayWake(msgID uint64) []byte {
	return commandHeader(cmdNotificationControl, msgID)
}

// BuildNotificationControl configures notification rendering. Zero-valued
// settings are omitted the way the vendor app's encoder leaves out unset
// fields.
//
// Payload structure:
//
//	field 1  varint  1
//	field 2  varint  msgID
//	field 3  bytes   {1?:enabled, 2?:autoDisplay, 3?:displaySeconds,
//	                  5?:avoidDisturb}
func BuildNotificationControl(msgID uint64, settings NotificationSettings) []byte {
	var body []byte
	if settings.Enabled {
		body = protocol.AppendVarintField(body, 1, 1)
	}
	if settings.AutoDisplay {
		body = protocol.AppendVarintField(body, 2, 1)
	}
	if settings.DisplaySeconds != 0 {
		body = protocol.AppendVarintField(body, 3, uint64(settings.DisplaySeconds))
	}
	if settings.AvoidDisturb {
		body = protocol.AppendVarintField(body, 5, 1)
	}

	payload := commandHeader(cmdNotificationControl, msgID)
	return protocol.AppendBytesField(payload, 3, body)
}

// Onboarding service (0x10-20)

// onboardingFinish is the process id that marks app initialization done.
const onboardingFinish = 4

// BuildOnboardingComplete tells the glasses the app finished initializing.
// Without it the dashboard stays in its waiting state.
func BuildOnboardingComplete(msgID uint64) []byte {
	inner := protocol.AppendVarintField(nil, 1, onboardingFinish)
	payload := commandHeader(1, msgID)
	return protocol.AppendBytesField(payload, 3, inner)
}

// Module configuration service (0x20-20)

// BuildLanguageConfig sets the system language by index. Zero is explicit
// on the wire.
func BuildLanguageConfig(msgID, languageIndex uint64) []byte {
	inner := protocol.AppendVarintField(nil, 1, languageIndex)
	payload := commandHeader(0, msgID)
	return protocol.AppendBytesField(payload, 3, inner)
}

// BuildAutoCloseQuery asks for the dashboard auto-close setting.
func BuildAutoCloseQuery(msgID uint64) []byte {
	payload := commandHeader(1, msgID)
	return protocol.AppendBytesField(payload, 4, nil)
}

// Dashboard service (0x01-20)

// cmdDashboardReceive carries every dashboard data push.
const cmdDashboardReceive = 2

// dashboardDisplayMode is fixed in every capture.
const dashboardDisplayMode = 4

// BuildDashboardLayout configures the status bar and widget order.
//
// Payload structure:
//
//	field 1  varint  2
//	field 2  varint  msgID
//	field 4  bytes   {2:{1:4, 2:len(status), 3:status, 4:len(widgets),
//	                  5:widgets}}
func BuildDashboardLayout(msgID uint64, layout DashboardLayout) []byte {
	setting := protocol.AppendVarintField(nil, 1, dashboardDisplayMode)
	setting = protocol.AppendVarintField(setting, 2, uint64(len(layout.StatusOrder)))
	setting = protocol.AppendBytesField(setting, 3, layout.StatusOrder)
	setting = protocol.AppendVarintField(setting, 4, uint64(len(layout.WidgetOrder)))
	setting = protocol.AppendBytesField(setting, 5, layout.WidgetOrder)

	receive := protocol.AppendBytesField(nil, 2, setting)
	payload := commandHeader(cmdDashboardReceive, msgID)
	return protocol.AppendBytesField(payload, 4, receive)
}

// BuildCalendarEntry pushes one schedule row to the dashboard. total is the
// number of rows in the set and num this row's 1-based position; the
// glasses render the set once all rows have arrived.
//
// Payload structure:
//
//	field 1  varint  2
//	field 2  varint  msgID
//	field 4  bytes   {3:{2:{3:{1:total, 2:num, 3:{1?:id, 2?:title,
//	                  3?:location, 4?:timeRange, 5?:endTimestamp}}}}}
func BuildCalendarEntry(msgID uint64, total, num int, entry CalendarEntry) []byte {
	var row []byte
	if entry.ID != 0 {
		row = protocol.AppendVarintField(row, 1, uint64(entry.ID))
	}
	if entry.Title != "" {
		row = protocol.AppendStringField(row, 2, entry.Title)
	}
	if entry.Location != "" {
		row = protocol.AppendStringField(row, 3, entry.Location)
	}
	if entry.TimeRange != "" {
		row = protocol.AppendStringField(row, 4, entry.TimeRange)
	}
	if entry.EndTimestamp != 0 {
		row = protocol.AppendVarintField(row, 5, uint64(entry.EndTimestamp))
	}

	schedule := protocol.AppendVarintField(nil, 1, uint64(total))
	schedule = protocol.AppendVarintField(schedule, 2, uint64(num))
	schedule = protocol.AppendBytesField(schedule, 3, row)

	components := protocol.AppendBytesField(nil, 3, schedule)
	config := protocol.AppendBytesField(nil, 2, components)
	receive := protocol.AppendBytesField(nil, 3, config)

	payload := commandHeader(cmdDashboardReceive, msgID)
	return protocol.AppendBytesField(payload, 4, receive)
}

// BuildStockClear writes an empty stock widget, which blanks the slot. The
// zero counters are explicit on the wire.
func BuildStockClear(msgID uint64) []byte {
	stock := protocol.AppendVarintField(nil, 1, 0)
	stock = protocol.AppendVarintField(stock, 2, 0)

	components := protocol.AppendBytesField(nil, 2, stock)
	config := protocol.AppendBytesField(nil, 2, components)
	receive := protocol.AppendBytesField(nil, 3, config)

	payload := commandHeader(cmdDashboardReceive, msgID)
	return protocol.AppendBytesField(payload, 4, receive)
}
