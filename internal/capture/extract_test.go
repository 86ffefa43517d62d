package capture

import (
	"bytes"
	"testing"

	"github.com/kordwall/g2link/internal/protocol"
)

// attWriteRecord wraps a frame the way it appears inside a capture record:
// vendor HCI framing, then the ATT write marker, then the frame with its
// magic stripped.
func attWriteRecord(t *testing.T, frames ...[]byte) []byte {
	t.Helper()
	data := []byte{0x02, 0x01, 0x20, 0x10, 0x00, 0x0C, 0x00, 0x04, 0x00}
	for _, frame := range frames {
		if frame[0] != protocol.FrameMagic {
			t.Fatal("test frame missing magic")
		}
		data = append(data, attWriteMarker...)
		data = append(data, frame[1:]...)
	}
	return data
}

func commandFrame(t *testing.T, seq byte, service protocol.ServiceID, payload []byte) []byte {
	t.Helper()
	frame, err := protocol.BuildFrame(seq, service, payload)
	if err != nil {
		t.Fatalf("BuildFrame() error = %v", err)
	}
	return frame
}

func TestExtractPackets(t *testing.T) {
	payload := []byte{0x08, 0x01, 0x10, 0x14}
	frame := commandFrame(t, 0x08, protocol.ServiceConversate, payload)

	f, err := Parse(buildSnoop(DatalinkMonitor, []testRecord{
		{flags: 0, ts: btsnoopEpochDelta + 1_000_000, data: attWriteRecord(t, frame)},
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	packets := ExtractPackets(f)
	if len(packets) != 1 {
		t.Fatalf("ExtractPackets() = %d packets, want 1", len(packets))
	}

	p := packets[0]
	if p.Index != 0 {
		t.Errorf("Index = %d, want 0", p.Index)
	}
	if p.Received {
		t.Error("Received = true for a host write")
	}
	if p.Frame.Sequence != 0x08 || p.Frame.Service != protocol.ServiceConversate {
		t.Errorf("frame header = seq 0x%02x svc %s, want seq 0x08 svc %s",
			p.Frame.Sequence, p.Frame.Service, protocol.ServiceConversate)
	}
	if !bytes.Equal(p.Frame.Payload, payload) {
		t.Errorf("payload = % x, want % x", p.Frame.Payload, payload)
	}

	// Raw is the canonical form: magic reinserted, reparseable
	if !bytes.Equal(p.Raw, frame) {
		t.Errorf("Raw = % x, want % x", p.Raw, frame)
	}
	if _, err := protocol.ParseFrame(p.Raw); err != nil {
		t.Errorf("ParseFrame(Raw) error = %v", err)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	frame := commandFrame(t, 0x10, protocol.ServiceNavigation, []byte{0x08, 0x00})
	other := commandFrame(t, 0x11, protocol.ServiceNavigation, []byte{0x08, 0x00})

	// The same write logged twice, plus a genuinely new command that
	// differs only in its sequence byte.
	f, err := Parse(buildSnoop(DatalinkMonitor, []testRecord{
		{data: attWriteRecord(t, frame)},
		{data: attWriteRecord(t, frame)},
		{data: attWriteRecord(t, other)},
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	packets := ExtractPackets(f)
	if len(packets) != 2 {
		t.Fatalf("ExtractPackets() = %d packets, want 2", len(packets))
	}
	if packets[0].Frame.Sequence != 0x10 || packets[1].Frame.Sequence != 0x11 {
		t.Errorf("sequences = 0x%02x, 0x%02x, want 0x10, 0x11",
			packets[0].Frame.Sequence, packets[1].Frame.Sequence)
	}
}

func TestExtractMultiplePerRecord(t *testing.T) {
	first := commandFrame(t, 0x20, protocol.ServiceSystem, []byte{0x08, 0x04})
	second := commandFrame(t, 0x21, protocol.ServiceSystem, []byte{0x08, 0x05})

	f, err := Parse(buildSnoop(DatalinkMonitor, []testRecord{
		{data: attWriteRecord(t, first, second)},
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	packets := ExtractPackets(f)
	if len(packets) != 2 {
		t.Fatalf("ExtractPackets() = %d packets, want 2", len(packets))
	}
}

func TestExtractRejectsCollisions(t *testing.T) {
	valid := commandFrame(t, 0x30, protocol.ServiceTeleprompter, []byte{0x08, 0x07})

	corrupted := append([]byte(nil), valid...)
	corrupted[len(corrupted)-1] ^= 0xFF // break the CRC

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{
			name: "marker inside unrelated bytes",
			data: append(append([]byte{0x17, 0x33}, attWriteMarker...), 0x99, 0x00, 0x01),
			want: 0,
		},
		{
			name: "declared length below CRC trailer",
			data: append(append([]byte{}, attWriteMarker...), 0x21, 0x01, 0x01, 0x01, 0x01, 0x80, 0x00),
			want: 0,
		},
		{
			name: "frame truncated by record boundary",
			data: append(append([]byte{}, attWriteMarker...), valid[1:len(valid)-4]...),
			want: 0,
		},
		{
			name: "CRC mismatch",
			data: attWriteRecord(t, corrupted),
			want: 0,
		},
		{
			name: "collision then a valid frame",
			data: append(append(append([]byte{}, attWriteMarker...), 0x99, 0x00, 0x01), attWriteRecord(t, valid)...),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(buildSnoop(DatalinkMonitor, []testRecord{{data: tt.data}}))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := ExtractPackets(f); len(got) != tt.want {
				t.Errorf("ExtractPackets() = %d packets, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExtractDirectionAndTime(t *testing.T) {
	ack := &protocol.Frame{
		Type:      protocol.AckSuccess,
		Sequence:  0x08,
		FragTotal: 1,
		FragIndex: 1,
		Service:   protocol.ServiceConversate,
	}
	ackBytes, err := ack.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	f, err := Parse(buildSnoop(DatalinkMonitor, []testRecord{
		{flags: 1, ts: btsnoopEpochDelta + 5_000_000, data: attWriteRecord(t, ackBytes)},
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	packets := ExtractPackets(f)
	if len(packets) != 1 {
		t.Fatalf("ExtractPackets() = %d packets, want 1", len(packets))
	}
	if !packets[0].Received {
		t.Error("Received = false for a controller-to-host record")
	}
	if packets[0].Time.Unix() != 5 {
		t.Errorf("Time = %v, want 1970-01-01T00:00:05Z", packets[0].Time)
	}
	if packets[0].Frame.Type != protocol.AckSuccess {
		t.Errorf("frame type = 0x%02x, want 0x%02x", packets[0].Frame.Type, protocol.AckSuccess)
	}
}

func TestTallyByService(t *testing.T) {
	long := make([]byte, 300)
	fragments, err := protocol.BuildFragmentedFrames(0x40, protocol.ServiceTeleprompter, long, 200)
	if err != nil {
		t.Fatalf("BuildFragmentedFrames() error = %v", err)
	}

	records := []testRecord{
		{data: attWriteRecord(t, commandFrame(t, 0x41, protocol.ServiceConversate, []byte{0x08, 0x01}))},
		{data: attWriteRecord(t, commandFrame(t, 0x42, protocol.ServiceConversate, []byte{0x08, 0x02}))},
	}
	for _, frag := range fragments {
		records = append(records, testRecord{data: attWriteRecord(t, frag)})
	}

	f, err := Parse(buildSnoop(DatalinkMonitor, records))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	packets := ExtractPackets(f)
	if len(packets) != 4 {
		t.Fatalf("ExtractPackets() = %d packets, want 4", len(packets))
	}

	tallies := TallyByService(packets)
	if len(tallies) != 2 {
		t.Fatalf("TallyByService() = %d services, want 2", len(tallies))
	}

	conv := tallies[protocol.ServiceConversate]
	if conv == nil || conv.Frames != 2 || conv.Fragmented != 0 {
		t.Errorf("conversate tally = %+v, want 2 frames, 0 fragmented", conv)
	}
	if conv != nil && conv.Types[protocol.FrameTypeCommand] != 2 {
		t.Errorf("conversate command count = %d, want 2", conv.Types[protocol.FrameTypeCommand])
	}

	tele := tallies[protocol.ServiceTeleprompter]
	if tele == nil || tele.Frames != 2 || tele.Fragmented != 2 {
		t.Errorf("teleprompter tally = %+v, want 2 frames, 2 fragmented", tele)
	}

	sorted := SortedTallies(tallies)
	if len(sorted) != 2 {
		t.Fatalf("SortedTallies() = %d entries, want 2", len(sorted))
	}
	if sorted[0].Service != protocol.ServiceTeleprompter || sorted[1].Service != protocol.ServiceConversate {
		t.Errorf("sort order = %s, %s, want %s, %s",
			sorted[0].Service, sorted[1].Service,
			protocol.ServiceTeleprompter, protocol.ServiceConversate)
	}
}

func BenchmarkExtractPackets(b *testing.B) {
	frame, err := protocol.BuildFrame(0x08, protocol.ServiceConversate, make([]byte, 64))
	if err != nil {
		b.Fatal(err)
	}
	data := []byte{0x02, 0x01, 0x20, 0x10, 0x00}
	data = append(data, attWriteMarker...)
	data = append(data, frame[1:]...)

	records := make([]testRecord, 200)
	for i := range records {
		records[i] = testRecord{data: data}
	}
	f, err := Parse(buildSnoop(DatalinkMonitor, records))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ExtractPackets(f)
	}
}
