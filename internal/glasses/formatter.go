package glasses

import (
	"strings"
	"unicode/utf8"
)

// Text layout for the glasses panel. The wrap geometry matches what the
// vendor app renders: 25 character lines, 10 line pages, and a 14 page
// buffer on the firmware side that must be fully overwritten or stale
// content from the previous script bleeds through.

const (
	// CharsPerLine is the wrap width in runes.
	CharsPerLine = 25

	// LinesPerPage is the number of text rows one page holds.
	LinesPerPage = 10

	// TeleprompterPages is the firmware page buffer size. FormatTextPages
	// pads shorter scripts with blank pages up to this count.
	TeleprompterPages = 14

	// titleRuleWidth is the dash rule drawn under the title line.
	titleRuleWidth = 20
)

// FormatTextPages lays out a script for the teleprompter. The title becomes
// an uppercased heading with a dash rule; paragraphs are word-wrapped at
// CharsPerLine runes and blank input lines survive as blank rows. Words
// longer than the wrap width stay on their own overlong line rather than
// being split.
//
// Every page is exactly LinesPerPage rows joined with newlines plus the
// trailing " \n" the firmware expects, and the result is padded with blank
// pages to TeleprompterPages.
func FormatTextPages(title, message string) []string {
	var lines []string
	if title != "" {
		lines = append(lines, strings.ToUpper(title))
		lines = append(lines, strings.Repeat("-", titleRuleWidth))
	}

	for _, paragraph := range strings.Split(message, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range strings.Fields(paragraph) {
			// The budget counts current's trailing space, so a full
			// line is one rune narrower than the nominal width.
			if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 > CharsPerLine {
				if current != "" {
					lines = append(lines, strings.TrimSpace(current))
				}
				current = word + " "
			} else {
				current += word + " "
			}
		}
		if strings.TrimSpace(current) != "" {
			lines = append(lines, strings.TrimSpace(current))
		}
	}

	for len(lines) < LinesPerPage {
		lines = append(lines, " ")
	}

	var pages []string
	for i := 0; i < len(lines); i += LinesPerPage {
		end := i + LinesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		page := append([]string(nil), lines[i:end]...)
		for len(page) < LinesPerPage {
			page = append(page, " ")
		}
		pages = append(pages, strings.Join(page, "\n")+" \n")
	}

	for len(pages) < TeleprompterPages {
		pages = append(pages, blankPage())
	}
	return pages
}

// CountRenderedLines counts the non-blank rows across all pages. The
// teleprompter init command declares its scroll height from this.
func CountRenderedLines(pages []string) int {
	total := 0
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
	}
	return total
}

func blankPage() string {
	rows := make([]string, LinesPerPage)
	for i := range rows {
		rows[i] = " "
	}
	return strings.Join(rows, "\n") + " \n"
}
