package glasses

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// The want strings below are payload hex lifted from btsnoop captures of
// the vendor app (frame header and CRC stripped), with the message id
// pinned to whatever the capture carried.

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestBuildConversatePayloads(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "session config",
			got:  BuildConversateConfig(0x14),
			want: "080110141a0c080112080801100118012001",
		},
		{
			name: "transcription open",
			got:  BuildTranscription(0x15, "", false),
			want: "080510153a040a001000",
		},
		{
			name: "transcription final",
			got:  BuildTranscription(0x16, "Hello world", true),
			want: "080510163a0f0a0b48656c6c6f20776f726c641001",
		},
		{
			name: "reply",
			got:  BuildConversateReply(0x17, "Hi"),
			want: "080210171a024869",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}

func TestBuildAIPayloads(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "control enter",
			got:  BuildAIControl(0x18, AIStatusEnter),
			want: "080110181a020802",
		},
		{
			name: "reply text",
			got:  BuildAIReply(0x19, "Ok"),
			want: "080510193a0a08011001180022024f6b",
		},
		{
			name: "skill with param",
			got:  BuildAISkill(0x1a, SkillBrightness, 7, ""),
			want: "0806101a420410011807",
		},
		{
			name: "skill bare",
			got:  BuildAISkill(0x1b, SkillQuicklist, 0, ""),
			want: "0806101b42021007",
		},
		{
			name: "event scroll",
			got:  BuildAIEvent(0x1c, AIEventScroll),
			want: "0808101c52020801",
		},
		{
			name: "config after handshake",
			got:  BuildAIConfig(0x16, 0, DefaultStreamSpeed),
			want: "080a10166a0408001020",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}

func TestBuildNavigationPayloads(t *testing.T) {
	full := NavigationInfo{
		DirectionIndex:    2,
		Distance:          "500 m",
		Road:              "Main St",
		RemainingDistance: "1.2 km",
		WorkMethod:        1,
	}
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "start",
			got:  BuildNavigationStart(0x1c),
			want: "0805101c",
		},
		{
			name: "heartbeat",
			got:  BuildNavigationHeartbeat(0x1d),
			want: "0800101d",
		},
		{
			name: "exit",
			got:  BuildNavigationExit(0x1e),
			want: "080c101e",
		},
		{
			name: "info with empty fields dropped",
			got:  BuildNavigationInfo(0x1f, full),
			want: "0807101f2a1c08021205353030206d1a074d61696e2053742a06312e32206b6d4001",
		},
		{
			name: "info minimal",
			got:  BuildNavigationInfo(0x20, NavigationInfo{}),
			want: "080710202a0408004000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}

func TestBuildTeleprompterPayloads(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "init for 56 lines",
			got:  BuildTeleprompterInit(0x2a, 56),
			want: "0801102a1a1a08011216080110001800208b0228aa0830e601388e0a40054800",
		},
		{
			name: "page",
			got:  BuildTeleprompterPage(0x2b, 1, "A B"),
			want: "0803102b2a0a0801100a1a040a412042",
		},
		{
			name: "marker",
			got:  BuildTeleprompterMarker(0x2c),
			want: "08ff01102c6a0408001006",
		},
		{
			name: "time sync",
			got:  BuildTimeSync(0x2d),
			want: "080e102d6a00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}

func TestTeleprompterContentHeight(t *testing.T) {
	tests := []struct {
		lines int
		want  int
	}{
		{0, 1},
		{1, 19},
		{56, 1066},
		{140, 2665},
	}
	for _, tt := range tests {
		if got := TeleprompterContentHeight(tt.lines); got != tt.want {
			t.Errorf("TeleprompterContentHeight(%d) = %d, want %d", tt.lines, got, tt.want)
		}
	}
}

func TestBuildDisplayConfig(t *testing.T) {
	want := mustHex(t, "08021029226a"+
		"08011213080210904e1d00e09444250000000028003000"+
		"12130803100d0f1d00408d44250000000028003000"+
		"1212080410001d00008842250000000028003000"+
		"1212080510001d00009242250000a24228003000"+
		"1212080610001d0000c642250000c44228003000"+
		"1800")
	got := BuildDisplayConfig(0x29)
	if !bytes.Equal(got, want) {
		t.Errorf("payload = %x, want %x", got, want)
	}
	// The geometry block itself is fixed at 106 bytes in every capture.
	if len(got) != 4+2+106 {
		t.Errorf("payload length = %d, want %d", len(got), 4+2+106)
	}
}

func TestBuildSystemPayloads(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "page switch",
			got:  BuildPageSwitch(0x22, PageMenu),
			want: "080110221a043a020803",
		},
		{
			name: "transcribe init",
			got:  BuildTranscribeInit(0x14),
			want: "08001014",
		},
		{
			name: "display wake",
			got:  BuildDisplayWake(0x21),
			want: "08011021",
		},
		{
			name: "onboarding complete",
			got:  BuildOnboardingComplete(0x17),
			want: "080110171a020804",
		},
		{
			name: "language config",
			got:  BuildLanguageConfig(0x26, 0),
			want: "080010261a020800",
		},
		{
			name: "auto close query",
			got:  BuildAutoCloseQuery(0x27),
			want: "080110272200",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}

func TestBuildNotificationControl(t *testing.T) {
	tests := []struct {
		name     string
		settings NotificationSettings
		msgID    uint64
		want     string
	}{
		{
			name:     "vendor defaults",
			settings: DefaultNotificationSettings(),
			msgID:    0x20,
			want:     "080110201a080801100118052801",
		},
		{
			name:     "all off leaves body empty",
			settings: NotificationSettings{},
			msgID:    0x28,
			want:     "080110281a00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNotificationControl(tt.msgID, tt.settings)
			want := mustHex(t, tt.want)
			if !bytes.Equal(got, want) {
				t.Errorf("payload = %x, want %x", got, want)
			}
		})
	}
}

func TestBuildDashboardPayloads(t *testing.T) {
	entry := CalendarEntry{
		ID:           5,
		Title:        "Standup",
		Location:     "Room 1",
		TimeRange:    "09:00-09:15",
		EndTimestamp: 300,
	}
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "layout",
			got:  BuildDashboardLayout(0x19, DefaultDashboardLayout()),
			want: "0802101922131211080410031a0301020320042a0401030202",
		},
		{
			name: "stock clear",
			got:  BuildStockClear(0x1e),
			want: "0802101e220a1a081206120408001000",
		},
		{
			name: "calendar entry",
			got:  BuildCalendarEntry(0x23, 2, 1, entry),
			want: "08021023222f1a2d122b1a29080210011a23" +
				"080512075374616e6475701a06526f6f6d2031220b30393a30302d30393a313528ac02",
		},
		{
			name: "calendar entry zero fields dropped",
			got:  BuildCalendarEntry(0x24, 1, 1, CalendarEntry{Title: "Lunch"}),
			want: "0802102422131a11120f1a0d080110011a0712054c756e6368",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.want)
			if !bytes.Equal(tt.got, want) {
				t.Errorf("payload = %x, want %x", tt.got, want)
			}
		})
	}
}
