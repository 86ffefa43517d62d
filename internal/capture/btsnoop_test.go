package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testRecord struct {
	flags uint32
	drops uint32
	ts    int64
	data  []byte
}

// buildSnoop assembles a BTSnoop file from records, included length equal
// to original length.
func buildSnoop(datalink uint32, records []testRecord) []byte {
	var buf bytes.Buffer
	buf.Write(btsnoopMagic)
	binary.Write(&buf, binary.BigEndian, uint32(1))
	binary.Write(&buf, binary.BigEndian, datalink)
	for _, r := range records {
		binary.Write(&buf, binary.BigEndian, uint32(len(r.data)))
		binary.Write(&buf, binary.BigEndian, uint32(len(r.data)))
		binary.Write(&buf, binary.BigEndian, r.flags)
		binary.Write(&buf, binary.BigEndian, r.drops)
		binary.Write(&buf, binary.BigEndian, r.ts)
		buf.Write(r.data)
	}
	return buf.Bytes()
}

func TestParseHeader(t *testing.T) {
	f, err := Parse(buildSnoop(DatalinkMonitor, nil))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.Version != 1 {
		t.Errorf("Version = %d, want 1", f.Version)
	}
	if f.Datalink != DatalinkMonitor {
		t.Errorf("Datalink = %d, want %d", f.Datalink, DatalinkMonitor)
	}
	if len(f.Records) != 0 {
		t.Errorf("Records = %d, want 0", len(f.Records))
	}
}

func TestParseBadInput(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name: "wrong magic",
			data: append([]byte("notsnoop"), make([]byte, 8)...),
			// wantErr nil means any error is acceptable
			wantErr: ErrNotBTSnoop,
		},
		{
			name: "empty input",
			data: nil,
		},
		{
			name: "header cut short",
			data: []byte("btsnoop\x00\x00\x00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRecords(t *testing.T) {
	records := []testRecord{
		{flags: 0, drops: 0, ts: 100, data: []byte{0x01, 0x02, 0x03}},
		{flags: 1, drops: 2, ts: 200, data: []byte{0x04}},
		{flags: 0, drops: 2, ts: 300, data: nil},
	}

	f, err := Parse(buildSnoop(DatalinkH4, records))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Records) != len(records) {
		t.Fatalf("Records = %d, want %d", len(f.Records), len(records))
	}

	wantOffset := fileHeaderSize
	for i, want := range records {
		got := f.Records[i]
		if got.Offset != wantOffset {
			t.Errorf("record %d: Offset = %d, want %d", i, got.Offset, wantOffset)
		}
		if got.Flags != want.flags || got.Drops != want.drops || got.Timestamp != want.ts {
			t.Errorf("record %d: header = %d/%d/%d, want %d/%d/%d",
				i, got.Flags, got.Drops, got.Timestamp, want.flags, want.drops, want.ts)
		}
		if !bytes.Equal(got.Data, want.data) {
			t.Errorf("record %d: Data = % x, want % x", i, got.Data, want.data)
		}
		if int(got.IncludedLength) != len(want.data) {
			t.Errorf("record %d: IncludedLength = %d, want %d",
				i, got.IncludedLength, len(want.data))
		}
		wantOffset += recordHeaderSize + len(want.data)
	}
}

func TestParseTruncatedRecord(t *testing.T) {
	full := buildSnoop(DatalinkMonitor, []testRecord{
		{ts: 1, data: []byte{0xAA, 0xBB}},
		{ts: 2, data: []byte{0xCC, 0xDD, 0xEE, 0xFF}},
	})

	// Rotation cuts the log mid-record; everything before the cut parses.
	f, err := Parse(full[:len(full)-3])
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Records) != 1 {
		t.Fatalf("Records = %d, want 1", len(f.Records))
	}
	if f.Records[0].Timestamp != 1 {
		t.Errorf("surviving record Timestamp = %d, want 1", f.Records[0].Timestamp)
	}
}

func TestRecordReceived(t *testing.T) {
	tests := []struct {
		name  string
		flags uint32
		want  bool
	}{
		{"sent", 0x00, false},
		{"received", 0x01, true},
		{"received with type bits", 0x03, true},
		{"sent with type bits", 0x02, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Flags: tt.flags}
			if got := r.Received(); got != tt.want {
				t.Errorf("Received() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordTime(t *testing.T) {
	r := Record{Timestamp: btsnoopEpochDelta + 42_000_000}
	want := time.Unix(42, 0).UTC()
	if got := r.Time(); !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	data := buildSnoop(DatalinkMonitor, []testRecord{{ts: 7, data: []byte{0x00}}})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(f.Records) != 1 {
		t.Errorf("Records = %d, want 1", len(f.Records))
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("Open() on missing file succeeded, want error")
	}
}

func BenchmarkParse(b *testing.B) {
	records := make([]testRecord, 256)
	for i := range records {
		records[i] = testRecord{ts: int64(i), data: make([]byte, 64)}
	}
	data := buildSnoop(DatalinkMonitor, records)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}
