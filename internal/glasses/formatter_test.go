package glasses

import (
	"strings"
	"testing"
)

func TestFormatTextPagesLayout(t *testing.T) {
	pages := FormatTextPages("Demo", "Hello world")

	if len(pages) != TeleprompterPages {
		t.Fatalf("got %d pages, want %d", len(pages), TeleprompterPages)
	}

	rows := strings.Split(pages[0], "\n")
	if rows[0] != "DEMO" {
		t.Errorf("title row = %q, want %q", rows[0], "DEMO")
	}
	if rows[1] != strings.Repeat("-", 20) {
		t.Errorf("rule row = %q, want 20 dashes", rows[1])
	}
	if rows[2] != "Hello world" {
		t.Errorf("text row = %q, want %q", rows[2], "Hello world")
	}

	for i, page := range pages {
		if !strings.HasSuffix(page, " \n") {
			t.Errorf("page %d does not end in space-newline: %q", i, page)
		}
		if n := strings.Count(page, "\n"); n != LinesPerPage {
			t.Errorf("page %d has %d newlines, want %d", i, n, LinesPerPage)
		}
	}
}

func TestFormatTextPagesWrap(t *testing.T) {
	// Five four-letter words fill the 25-rune budget exactly (the budget
	// counts the trailing space); the sixth starts a new line.
	pages := FormatTextPages("", "aaaa bbbb cccc dddd eeee ffff")

	rows := strings.Split(pages[0], "\n")
	if rows[0] != "aaaa bbbb cccc dddd eeee" {
		t.Errorf("row 0 = %q", rows[0])
	}
	if rows[1] != "ffff" {
		t.Errorf("row 1 = %q", rows[1])
	}
}

func TestFormatTextPagesLongWord(t *testing.T) {
	word := strings.Repeat("x", 30)
	pages := FormatTextPages("", word)

	rows := strings.Split(pages[0], "\n")
	if rows[0] != word {
		t.Errorf("overlong word was split: %q", rows[0])
	}
}

func TestFormatTextPagesCountsRunes(t *testing.T) {
	// Two ten-rune words share a line in runes but would wrap if the
	// width were counted in bytes.
	word := strings.Repeat("é", 10)
	pages := FormatTextPages("", word+" "+word)

	rows := strings.Split(pages[0], "\n")
	if rows[0] != word+" "+word {
		t.Errorf("row 0 = %q, want both words together", rows[0])
	}
}

func TestFormatTextPagesBlankParagraphs(t *testing.T) {
	pages := FormatTextPages("", "para one\n\npara two")

	rows := strings.Split(pages[0], "\n")
	if rows[0] != "para one" {
		t.Errorf("row 0 = %q", rows[0])
	}
	if rows[1] != "" {
		t.Errorf("row 1 = %q, want blank", rows[1])
	}
	if rows[2] != "para two" {
		t.Errorf("row 2 = %q", rows[2])
	}
}

func TestFormatTextPagesPagination(t *testing.T) {
	// 25 one-word paragraphs make 25 rows: two full pages and a third
	// padded page, then blank pages up to the firmware buffer.
	var b strings.Builder
	for i := 0; i < 25; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("word")
	}
	pages := FormatTextPages("", b.String())

	if len(pages) != TeleprompterPages {
		t.Fatalf("got %d pages, want %d", len(pages), TeleprompterPages)
	}
	third := strings.Split(pages[2], "\n")
	if third[4] != "word" || third[5] != " " {
		t.Errorf("third page rows 4,5 = %q, %q, want content then padding", third[4], third[5])
	}
	if got := CountRenderedLines(pages); got != 25 {
		t.Errorf("CountRenderedLines = %d, want 25", got)
	}
}

func TestCountRenderedLines(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		message string
		want    int
	}{
		{"empty", "", "", 0},
		{"title only", "Hi", "", 2},
		{"blank rows not counted", "", "a\n\nb", 2},
		{"title and text", "Demo", "Hello world", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := FormatTextPages(tt.title, tt.message)
			if got := CountRenderedLines(pages); got != tt.want {
				t.Errorf("CountRenderedLines = %d, want %d", got, tt.want)
			}
		})
	}
}
