package bridge

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/kordwall/g2link/internal/protocol"
)

func TestMessageWireSingleFrame(t *testing.T) {
	frame := &protocol.Frame{
		Type:      protocol.FrameTypeNotify,
		Sequence:  0x15,
		FragTotal: 1,
		FragIndex: 1,
		Service:   protocol.ServiceTranscribe,
		Payload:   []byte{0x08, 0x05, 0x10, 0x01},
	}

	wire := messageWire(protocol.Classify(frame))
	if len(wire) != 1 {
		t.Fatalf("messageWire() = %d frames, want 1", len(wire))
	}

	raw, err := hex.DecodeString(wire[0])
	if err != nil {
		t.Fatalf("wire frame is not hex: %v", err)
	}
	parsed, err := protocol.ParseFrame(raw)
	if err != nil {
		t.Fatalf("wire frame does not parse: %v", err)
	}
	if !bytes.Equal(parsed.Payload, frame.Payload) {
		t.Errorf("payload = % x, want % x", parsed.Payload, frame.Payload)
	}
}

func TestMessageWireRefragments(t *testing.T) {
	// A reassembled message larger than one frame must be split again
	// before it can cross the WebSocket as wire-form frames.
	payload := make([]byte, 450)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := &protocol.Frame{
		Type:      protocol.FrameTypeNotify,
		Sequence:  0x30,
		FragTotal: 1,
		FragIndex: 1,
		Service:   protocol.ServiceEvenAI,
		Payload:   payload,
	}

	wire := messageWire(protocol.Classify(frame))
	if len(wire) != 3 {
		t.Fatalf("messageWire() = %d frames, want 3", len(wire))
	}

	// The fragments must reassemble to the original payload
	r := protocol.NewReassembler(0)
	var complete *protocol.Frame
	for i, h := range wire {
		raw, err := hex.DecodeString(h)
		if err != nil {
			t.Fatalf("fragment %d is not hex: %v", i, err)
		}
		f, err := protocol.ParseFrame(raw)
		if err != nil {
			t.Fatalf("fragment %d does not parse: %v", i, err)
		}
		if f.Type != protocol.FrameTypeNotify || f.Sequence != 0x30 {
			t.Errorf("fragment %d header = %s", i, f)
		}
		complete = r.Ingest(f)
	}
	if complete == nil {
		t.Fatal("fragments never reassembled")
	}
	if !bytes.Equal(complete.Payload, payload) {
		t.Error("reassembled payload mismatch")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		want    string
		wantErr bool
	}{
		{"host and port", "localhost:8765", "ws://localhost:8765", false},
		{"ip and port", "192.168.1.10:9000", "ws://192.168.1.10:9000", false},
		{"ws url untouched", "ws://bridge.local:8765", "ws://bridge.local:8765", false},
		{"wss url untouched", "wss://bridge.example/ws", "wss://bridge.example/ws", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeURL(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("normalizeURL() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBridgeErrorString(t *testing.T) {
	err := &Error{Code: CodeNotConnected, Message: "no glasses connected"}
	want := "NOT_CONNECTED: no glasses connected"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
