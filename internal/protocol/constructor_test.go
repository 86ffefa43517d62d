package protocol

import (
	"bytes"
	"testing"
)

func TestBuildAuthSequence(t *testing.T) {
	const timestamp = 1750000000

	frames, err := BuildAuthSequence(timestamp)
	if err != nil {
		t.Fatalf("BuildAuthSequence() error = %v", err)
	}
	if len(frames) != AuthFrameCount {
		t.Fatalf("got %d frames, want %d", len(frames), AuthFrameCount)
	}

	// Frames 1, 2, 4, 5 and 6 are fully static; pin them byte for byte up
	// to the CRC trailer, which TestFrameRoundTrip already covers.
	goldens := map[int][]byte{
		0: {0xAA, 0x21, 0x01, 0x0C, 0x01, 0x01, 0x80, 0x00,
			0x08, 0x04, 0x10, 0x0C, 0x1A, 0x04, 0x08, 0x01, 0x10, 0x04},
		1: {0xAA, 0x21, 0x02, 0x0A, 0x01, 0x01, 0x80, 0x20,
			0x08, 0x05, 0x10, 0x0E, 0x22, 0x02, 0x08, 0x02},
		3: {0xAA, 0x21, 0x04, 0x0C, 0x01, 0x01, 0x80, 0x00,
			0x08, 0x04, 0x10, 0x10, 0x1A, 0x04, 0x08, 0x01, 0x10, 0x04},
		4: {0xAA, 0x21, 0x05, 0x0C, 0x01, 0x01, 0x80, 0x00,
			0x08, 0x04, 0x10, 0x11, 0x1A, 0x04, 0x08, 0x01, 0x10, 0x04},
		5: {0xAA, 0x21, 0x06, 0x0A, 0x01, 0x01, 0x80, 0x20,
			0x08, 0x05, 0x10, 0x12, 0x22, 0x02, 0x08, 0x01},
	}
	for i, want := range goldens {
		got := frames[i][:len(frames[i])-CRCSize]
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %x, want %x", i+1, got, want)
		}
	}

	// The timestamp frames carry the fixed session token after the clock
	wantPrefix := []byte{0x08, 0x80, 0x01, 0x10, 0x0F, 0x82, 0x08, 0x11, 0x08}
	wantToken := []byte{0x10, 0xE8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	for _, i := range []int{2, 6} {
		frame, err := ParseFrame(frames[i])
		if err != nil {
			t.Fatalf("frame %d: ParseFrame() error = %v", i+1, err)
		}
		if frame.Service != ServiceSystemApp {
			t.Errorf("frame %d: service = %v, want %v", i+1, frame.Service, ServiceSystemApp)
		}

		prefix := append([]byte{}, wantPrefix...)
		if i == 6 {
			prefix[4] = 0x13 // message id differs between the two
		}
		if !bytes.HasPrefix(frame.Payload, prefix) {
			t.Errorf("frame %d payload = %x, want prefix %x", i+1, frame.Payload, prefix)
		}
		if !bytes.HasSuffix(frame.Payload, wantToken) {
			t.Errorf("frame %d payload = %x, want suffix %x", i+1, frame.Payload, wantToken)
		}

		ts := frame.Payload[len(prefix) : len(frame.Payload)-len(wantToken)]
		if !bytes.Equal(ts, EncodeVarint(timestamp)) {
			t.Errorf("frame %d timestamp = %x, want %x", i+1, ts, EncodeVarint(timestamp))
		}
	}

	// Every frame must be structurally valid with ascending sequences
	for i, encoded := range frames {
		frame, err := ParseFrame(encoded)
		if err != nil {
			t.Fatalf("frame %d: ParseFrame() error = %v", i+1, err)
		}
		if frame.Type != FrameTypeCommand {
			t.Errorf("frame %d: type = 0x%02x, want 0x%02x", i+1, frame.Type, FrameTypeCommand)
		}
		if int(frame.Sequence) != i+1 {
			t.Errorf("frame %d: sequence = 0x%02x, want 0x%02x", i+1, frame.Sequence, i+1)
		}
		if frame.FragTotal != 1 || frame.FragIndex != 1 {
			t.Errorf("frame %d: frag = %d/%d, want 1/1", i+1, frame.FragIndex, frame.FragTotal)
		}
	}
}

func TestAuthSequenceLeavesRoomForCommands(t *testing.T) {
	frames, err := BuildAuthSequence(1750000000)
	if err != nil {
		t.Fatalf("BuildAuthSequence() error = %v", err)
	}

	var maxSeq byte
	var maxID uint64
	for i, encoded := range frames {
		frame, err := ParseFrame(encoded)
		if err != nil {
			t.Fatalf("frame %d: ParseFrame() error = %v", i+1, err)
		}
		if frame.Sequence > maxSeq {
			maxSeq = frame.Sequence
		}

		fields, err := DecodeFields(frame.Payload)
		if err != nil {
			t.Fatalf("frame %d: DecodeFields() error = %v", i+1, err)
		}
		id, ok := FieldByNumber(fields, 2)
		if !ok {
			t.Fatalf("frame %d: no message id field", i+1)
		}
		if id.Uint > maxID {
			maxID = id.Uint
		}
	}

	// The first post-handshake command continues both counters
	if maxSeq+1 != FirstSequenceAfterAuth {
		t.Errorf("highest handshake sequence = 0x%02x, first command uses 0x%02x",
			maxSeq, FirstSequenceAfterAuth)
	}
	if maxID+1 != FirstMessageIDAfterAuth {
		t.Errorf("highest handshake message id = 0x%02x, first command uses 0x%02x",
			maxID, FirstMessageIDAfterAuth)
	}
}

func BenchmarkBuildAuthSequence(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := BuildAuthSequence(1750000000); err != nil {
			b.Fatal(err)
		}
	}
}
