package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmDangerousOperation displays a warning box and prompts the user to
// type "I AGREE" to proceed. Returns true if the user confirmed.
func ConfirmDangerousOperation(title string, warnings []string, disclaimer string) bool {
	width := GetTerminalWidth()
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	for _, warning := range warnings {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	if disclaimer != "" {
		disclaimerStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, disclaimerStyle.Render(disclaimer))
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(content)

	fmt.Println(box)
	fmt.Println()

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Print(promptStyle.Render("To proceed, type \"I AGREE\" and press Enter: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	input = strings.TrimSpace(input)
	if input == "I AGREE" {
		fmt.Println()
		return true
	}

	fmt.Println()
	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Println(cancelStyle.Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// RawSendConfirmation is a pre-configured confirmation for sending
// hand-built frames to the glasses
func RawSendConfirmation() bool {
	return ConfirmDangerousOperation(
		"RAW FRAME SEND",
		[]string{
			"This sends an unvalidated payload straight to the glasses firmware",
			"Undocumented services can wedge the glasses until a power cycle",
			"Fold and unfold the glasses to recover from a hung screen",
		},
		"DISCLAIMER: The protocol was recovered from captures, not documentation. "+
			"Payloads outside the observed shapes have unknown effects. By "+
			"proceeding, you acknowledge that you understand the risks of "+
			"driving reverse-engineered firmware.",
	)
}

// ForgetDevicesConfirmation is a pre-configured confirmation for clearing
// the known-glasses registry
func ForgetDevicesConfirmation(count int) bool {
	return ConfirmDangerousOperation(
		"FORGET ALL GLASSES",
		[]string{
			fmt.Sprintf("This removes all %d remembered glasses and their nicknames", count),
			"Scan history and last-seen timestamps are lost",
			"The glasses themselves are unaffected",
		},
		"",
	)
}
