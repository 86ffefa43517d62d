package ui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// FrameLog is a box for displaying raw BLE frame traffic.
// Used in verbose mode to show the exact bytes exchanged with the glasses.
type FrameLog struct {
	Title    string // e.g., "Frame Log"
	Width    int    // Terminal width
	MaxLines int    // Maximum lines to display (0 = unlimited)

	// mu guards lines: rx frames land on the transport's notification
	// goroutine while tx frames are added from the command goroutine.
	mu    sync.Mutex
	lines []string
}

// NewFrameLog creates an empty frame log box
func NewFrameLog() *FrameLog {
	return &FrameLog{
		Title: "Frame Log",
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (f *FrameLog) SetWidth(width int) *FrameLog {
	f.Width = width
	return f
}

// SetTitle sets a custom title for the box
func (f *FrameLog) SetTitle(title string) *FrameLog {
	f.Title = title
	return f
}

// SetMaxLines limits the number of lines displayed; older lines are
// dropped first
func (f *FrameLog) SetMaxLines(max int) *FrameLog {
	f.MaxLines = max
	return f
}

// AddFrame appends one frame to the log. Direction is "tx" or "rx";
// summary is an optional decoded description shown after the hex.
func (f *FrameLog) AddFrame(direction string, data []byte, summary string) {
	arrow := "→"
	if direction == "rx" {
		arrow = "←"
	}
	line := fmt.Sprintf("%s %s", arrow, hex.EncodeToString(data))
	if summary != "" {
		line += "  " + summary
	}
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
}

// AddLine appends a raw preformatted line
func (f *FrameLog) AddLine(line string) {
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
}

// Empty reports whether anything has been logged
func (f *FrameLog) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines) == 0
}

// Render returns the styled frame log box as a string
func (f *FrameLog) Render() string {
	f.mu.Lock()
	lines := append([]string(nil), f.lines...)
	f.mu.Unlock()
	if f.MaxLines > 0 && len(lines) > f.MaxLines {
		lines = lines[len(lines)-f.MaxLines:]
	}

	titleLine := FrameLogTitleStyle.Render(f.Title)
	content := FrameLogContentStyle.Render(strings.Join(lines, "\n"))

	boxContent := titleLine + "\n" + content

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(f.Width-4).
		Padding(0, 1).
		Render(boxContent)
}

// String implements fmt.Stringer
func (f *FrameLog) String() string {
	return f.Render()
}

// PrintFrameLog prints a styled frame log box (for verbose mode)
func PrintFrameLog(log *FrameLog) {
	if log == nil || log.Empty() {
		return
	}
	fmt.Println()
	fmt.Println(log.Render())
}
