package glasses

import "fmt"

// Input limits. The wire protocol fragments large payloads, so these bound
// what the firmware renders sensibly rather than what the codec can carry.

const (
	// MaxTextBytes caps conversate pushes. A full conversate screen is
	// well under this; anything larger scrolls straight past the wearer.
	MaxTextBytes = 4096

	// MaxTitleBytes caps teleprompter and text-card titles, which render
	// on a single line.
	MaxTitleBytes = 100

	// MaxScriptBytes caps a teleprompter script body.
	MaxScriptBytes = 32 * 1024

	// MaxNavFieldBytes caps each navigation HUD string. The HUD truncates
	// beyond roughly a line's width anyway.
	MaxNavFieldBytes = 64

	// MaxCalendarFieldBytes caps each schedule row string.
	MaxCalendarFieldBytes = 128

	// MaxDashboardSlots caps the status and widget order arrays.
	MaxDashboardSlots = 8
)

// ValidateText validates a conversate text push.
func ValidateText(text string) error {
	if len(text) > MaxTextBytes {
		return NewValidationError(fmt.Sprintf("text too long (max %d bytes): %d bytes", MaxTextBytes, len(text)))
	}
	return nil
}

// ValidateScript validates a teleprompter title and body.
func ValidateScript(title, body string) error {
	if len(title) > MaxTitleBytes {
		return NewValidationError(fmt.Sprintf("title too long (max %d bytes): %d bytes", MaxTitleBytes, len(title)))
	}
	if body == "" {
		return NewValidationError("script body cannot be empty")
	}
	if len(body) > MaxScriptBytes {
		return NewValidationError(fmt.Sprintf("script too long (max %d bytes): %d bytes", MaxScriptBytes, len(body)))
	}
	return nil
}

// ValidatePage validates a page switch target against the known screens.
func ValidatePage(page Page) error {
	switch page {
	case PageDefault, PageDashboard, PageMenu, PageNotification, PageTranslate,
		PageTeleprompter, PageEvenAI, PageNavigation, PageSettings,
		PageTranscribe, PageConversate, PageQuicklist:
		return nil
	}
	return NewValidationError(fmt.Sprintf("unknown page id %d", byte(page)))
}

// ValidateNavigationInfo validates a HUD update before it is encoded.
func ValidateNavigationInfo(info NavigationInfo) error {
	if info.DirectionIndex < 0 || info.DirectionIndex > 255 {
		return NewValidationError(fmt.Sprintf("direction index must be 0-255, got %d", info.DirectionIndex))
	}
	fields := []struct {
		name  string
		value string
	}{
		{"distance", info.Distance},
		{"road", info.Road},
		{"travel time", info.TravelTime},
		{"remaining distance", info.RemainingDistance},
		{"arrival time", info.ArrivalTime},
		{"speed", info.Speed},
	}
	for _, f := range fields {
		if len(f.value) > MaxNavFieldBytes {
			return NewValidationError(fmt.Sprintf("%s too long (max %d bytes): %d bytes", f.name, MaxNavFieldBytes, len(f.value)))
		}
	}
	return nil
}

// ValidateCalendarEntry validates one schedule row and its position in the
// set being pushed. num is the row's 1-based position.
func ValidateCalendarEntry(total, num int, entry CalendarEntry) error {
	if total < 1 {
		return NewValidationError(fmt.Sprintf("schedule total must be at least 1, got %d", total))
	}
	if num < 1 || num > total {
		return NewValidationError(fmt.Sprintf("schedule row number must be 1-%d, got %d", total, num))
	}
	if entry.Title == "" {
		return NewValidationError("calendar entry title cannot be empty")
	}
	fields := []struct {
		name  string
		value string
	}{
		{"title", entry.Title},
		{"location", entry.Location},
		{"time range", entry.TimeRange},
	}
	for _, f := range fields {
		if len(f.value) > MaxCalendarFieldBytes {
			return NewValidationError(fmt.Sprintf("%s too long (max %d bytes): %d bytes", f.name, MaxCalendarFieldBytes, len(f.value)))
		}
	}
	return nil
}

// ValidateDashboardLayout validates the status bar and widget order arrays.
func ValidateDashboardLayout(layout DashboardLayout) error {
	if len(layout.StatusOrder) == 0 {
		return NewValidationError("status order cannot be empty")
	}
	if len(layout.StatusOrder) > MaxDashboardSlots {
		return NewValidationError(fmt.Sprintf("too many status slots (max %d): %d", MaxDashboardSlots, len(layout.StatusOrder)))
	}
	for i, s := range layout.StatusOrder {
		if s < StatusWeather || s > StatusBattery {
			return NewValidationError(fmt.Sprintf("status slot %d has unknown item %d", i, s))
		}
	}
	if len(layout.WidgetOrder) == 0 {
		return NewValidationError("widget order cannot be empty")
	}
	if len(layout.WidgetOrder) > MaxDashboardSlots {
		return NewValidationError(fmt.Sprintf("too many widget slots (max %d): %d", MaxDashboardSlots, len(layout.WidgetOrder)))
	}
	for i, w := range layout.WidgetOrder {
		if w < WidgetNews || w > WidgetSchedule {
			return NewValidationError(fmt.Sprintf("widget slot %d has unknown item %d", i, w))
		}
	}
	return nil
}
