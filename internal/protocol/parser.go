package protocol

import (
	"fmt"
	"strings"
)

// Inbound traffic classification (from live captures and notification logs)
//
// The glasses answer on the same characteristic they are commanded on.
// Every observed reply falls into one of two classes:
//
//   - Acks: type byte 0xC9 or 0xCB in the position a command carries 0x21,
//     echoing the sequence and service of the command they answer. 0xC9
//     confirms the command was applied, 0xCB only that it was received.
//   - Notifications: type byte 0x12, pushed without a prior command.
//     Transcription text, touch events and status changes arrive this way.
//
// Anything else is surfaced as an UnknownMessage so capture tooling can
// flag frame types we have not mapped yet.

// Message is one classified glasses-to-host message.
type Message interface {
	// Type returns the frame type byte.
	Type() byte
	// String returns a human-readable summary.
	String() string
}

// AckMessage is a glasses reply to a specific command, matched to it by
// sequence number.
type AckMessage struct {
	Frame   *Frame
	Success bool // true for 0xC9, false for the bare 0xCB receipt
}

// Type returns the frame type byte (0xC9 or 0xCB).
func (m *AckMessage) Type() byte { return m.Frame.Type }

// Sequence returns the command sequence this ack answers.
func (m *AckMessage) Sequence() byte { return m.Frame.Sequence }

// Service returns the service the acked command addressed.
func (m *AckMessage) Service() ServiceID { return m.Frame.Service }

// String returns a human-readable summary.
func (m *AckMessage) String() string {
	kind := "received"
	if m.Success {
		kind = "success"
	}
	return fmt.Sprintf("ack(%s) seq=0x%02x svc=%s", kind, m.Frame.Sequence, m.Frame.Service)
}

// NotifyMessage is an unsolicited glasses-to-host notification. Fields
// holds the best-effort decode of the payload; Partial is set when the
// decode stopped early on truncated input.
type NotifyMessage struct {
	Frame   *Frame
	Fields  []Field
	Partial bool
}

// Type returns the frame type byte (0x12).
func (m *NotifyMessage) Type() byte { return m.Frame.Type }

// Service returns the originating service.
func (m *NotifyMessage) Service() ServiceID { return m.Frame.Service }

// String returns a human-readable summary including the decoded fields.
func (m *NotifyMessage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "notify svc=%s seq=0x%02x", m.Frame.Service, m.Frame.Sequence)
	for _, f := range m.Fields {
		b.WriteByte(' ')
		b.WriteString(f.String())
	}
	if m.Partial {
		b.WriteString(" (partial)")
	}
	return b.String()
}

// UnknownMessage wraps a structurally valid frame whose type byte matches
// no known inbound class.
type UnknownMessage struct {
	Frame *Frame
}

// Type returns the unrecognized frame type byte.
func (m *UnknownMessage) Type() byte { return m.Frame.Type }

// String returns a human-readable summary.
func (m *UnknownMessage) String() string {
	return fmt.Sprintf("unknown %s", m.Frame)
}

// IsAckType reports whether a frame type byte belongs to the ack class.
func IsAckType(t byte) bool {
	return t == AckSuccess || t == AckReceived
}

// Classify wraps a reassembled frame in its inbound message type.
func Classify(frame *Frame) Message {
	switch {
	case IsAckType(frame.Type):
		return &AckMessage{Frame: frame, Success: frame.Type == AckSuccess}
	case frame.Type == FrameTypeNotify:
		fields, err := DecodeFields(frame.Payload)
		return &NotifyMessage{Frame: frame, Fields: fields, Partial: err != nil}
	default:
		return &UnknownMessage{Frame: frame}
	}
}

// ParseMessage parses and classifies a single complete frame. Fragmented
// messages must go through a Reassembler first; this helper serves the
// capture tools, which work on already-reassembled dumps.
//
// Returns:
//   - The classified message
//   - An error wrapping ErrCorruptFrame if the frame fails validation
func ParseMessage(data []byte) (Message, error) {
	frame, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	return Classify(frame), nil
}
