package protocol

import (
	"errors"
	"fmt"
)

// Frame layout, recovered from btsnoop captures of the vendor app:
//
//	[0]  0xAA        magic
//	[1]  type        0x21 command, 0x12 notify, 0xC9/0xCB acks
//	[2]  sequence
//	[3]  length      len(payload) + 2 CRC bytes
//	[4]  fragTotal
//	[5]  fragIndex   1-based
//	[6]  serviceHi
//	[7]  serviceLo
//	[8+] payload, then CRC-16/CCITT little-endian
//
// Samsung btsnoop strips the 0xAA before the ATT value reaches the capture,
// so ParseFrame tolerates its absence.
const (
	// FrameMagic opens every frame on the wire.
	FrameMagic byte = 0xAA

	// FrameTypeCommand marks host to glasses commands.
	FrameTypeCommand byte = 0x21

	// FrameTypeNotify marks glasses to host notifications.
	FrameTypeNotify byte = 0x12

	// AckSuccess appears in the type position of a glasses reply that
	// reports the command completed.
	AckSuccess byte = 0xC9

	// AckReceived appears in the type position of a glasses reply that
	// only confirms receipt.
	AckReceived byte = 0xCB
)

const (
	// FrameHeaderSize covers magic through serviceLo.
	FrameHeaderSize = 8

	// CRCSize is the length of the CRC-16 trailer.
	CRCSize = 2

	// MinFrameSize is the smallest legal frame: full header plus CRC over
	// an empty payload.
	MinFrameSize = FrameHeaderSize + CRCSize

	// MaxFramePayload is the largest payload one frame can carry; the
	// length byte stores len(payload)+2 and tops out at 255.
	MaxFramePayload = 255 - CRCSize

	// DefaultMaxFragmentPayload is the per-fragment payload size used when
	// splitting large messages. Conservative under the 247-byte ATT MTU
	// the glasses negotiate, with headroom for stacks that negotiate less.
	DefaultMaxFragmentPayload = 200
)

// Sentinel errors for the two frame-level failure modes. Corrupt frames are
// dropped without further processing; truncated input means a payload field
// ran past the available bytes and partial results may still be usable.
var (
	ErrCorruptFrame   = errors.New("corrupt frame")
	ErrTruncatedInput = errors.New("truncated input")
)

// ServiceID identifies the logical service a frame addresses, packed from
// the two service bytes in the header.
type ServiceID uint16

// Services observed in captures. The low byte 0x20 marks app-plane traffic;
// 0x80-00 is the system plane used by the handshake and time sync. For the
// feature services the high byte matches the screen id the service drives
// (0x06 teleprompter, 0x0A transcribe, 0x0B conversate and so on).
const (
	ServiceDashboard    ServiceID = 0x0120
	ServiceNotification ServiceID = 0x0420
	ServiceTeleprompter ServiceID = 0x0620
	ServiceEvenAI       ServiceID = 0x0720
	ServiceNavigation   ServiceID = 0x0820
	ServiceSettings     ServiceID = 0x0920
	ServiceTranscribe   ServiceID = 0x0A20
	ServiceConversate   ServiceID = 0x0B20
	ServiceDisplayCfg   ServiceID = 0x0E20
	ServiceOnboarding   ServiceID = 0x1020
	ServiceModuleCfg    ServiceID = 0x2020
	ServiceSystem       ServiceID = 0x8000
	ServiceSystemApp    ServiceID = 0x8020
)

// NewServiceID packs the two header service bytes.
func NewServiceID(hi, lo byte) ServiceID {
	return ServiceID(uint16(hi)<<8 | uint16(lo))
}

// Hi returns the high service byte as it appears on the wire.
func (s ServiceID) Hi() byte { return byte(s >> 8) }

// Lo returns the low service byte as it appears on the wire.
func (s ServiceID) Lo() byte { return byte(s) }

// String renders the id the way capture tooling prints it, e.g. "0x0b-20".
func (s ServiceID) String() string {
	return fmt.Sprintf("0x%02x-%02x", s.Hi(), s.Lo())
}

// ServiceName returns a human-readable name for a service id
func ServiceName(s ServiceID) string {
	switch s {
	case ServiceDashboard:
		return "Dashboard"
	case ServiceNotification:
		return "Notification"
	case ServiceTeleprompter:
		return "Teleprompter"
	case ServiceEvenAI:
		return "EvenAI"
	case ServiceNavigation:
		return "Navigation"
	case ServiceSettings:
		return "Settings"
	case ServiceTranscribe:
		return "Transcribe"
	case ServiceConversate:
		return "Conversate"
	case ServiceDisplayCfg:
		return "DisplayConfig"
	case ServiceOnboarding:
		return "Onboarding"
	case ServiceModuleCfg:
		return "ModuleConfig"
	case ServiceSystem:
		return "System"
	case ServiceSystemApp:
		return "SystemApp"
	default:
		return fmt.Sprintf("Unknown(%s)", s)
	}
}

// FrameTypeName returns a human-readable name for a frame type byte
func FrameTypeName(t byte) string {
	switch t {
	case FrameTypeCommand:
		return "Command"
	case FrameTypeNotify:
		return "Notify"
	case AckSuccess:
		return "AckSuccess"
	case AckReceived:
		return "AckReceived"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", t)
	}
}

// Frame is one parsed protocol frame. Payload excludes the CRC trailer.
type Frame struct {
	Type      byte
	Sequence  byte
	FragTotal byte
	FragIndex byte
	Service   ServiceID
	Payload   []byte
}

// Fragmented reports whether the frame is part of a multi-fragment message.
func (f *Frame) Fragmented() bool {
	return f.FragTotal > 1
}

// String returns a one-line summary for logs and capture tooling.
func (f *Frame) String() string {
	return fmt.Sprintf("type=0x%02x seq=0x%02x frag=%d/%d svc=%s len=%d",
		f.Type, f.Sequence, f.FragIndex, f.FragTotal, f.Service, len(f.Payload))
}

// Marshal encodes the frame in wire format, magic included.
//
// Returns:
//   - The encoded frame, 10+len(payload) bytes
//   - An error if the payload exceeds MaxFramePayload
func (f *Frame) Marshal() ([]byte, error) {
	if len(f.Payload) > MaxFramePayload {
		return nil, fmt.Errorf("payload %d bytes exceeds frame maximum %d",
			len(f.Payload), MaxFramePayload)
	}
	buf := make([]byte, 0, FrameHeaderSize+len(f.Payload)+CRCSize)
	buf = append(buf,
		FrameMagic,
		f.Type,
		f.Sequence,
		byte(len(f.Payload)+CRCSize),
		f.FragTotal,
		f.FragIndex,
		f.Service.Hi(),
		f.Service.Lo(),
	)
	buf = append(buf, f.Payload...)
	return AppendCRC(buf, f.Payload), nil
}

// BuildFrame builds a single unfragmented command frame ready to write to
// the glasses.
//
// Parameters:
//   - seq: Sequence number for this message
//   - service: Target service
//   - payload: Encoded payload fields (may be empty)
//
// Returns:
//   - The encoded frame
//   - An error if the payload exceeds MaxFramePayload
func BuildFrame(seq byte, service ServiceID, payload []byte) ([]byte, error) {
	f := Frame{
		Type:      FrameTypeCommand,
		Sequence:  seq,
		FragTotal: 1,
		FragIndex: 1,
		Service:   service,
		Payload:   payload,
	}
	return f.Marshal()
}

// BuildFragmentedFrames splits payload into command frames that share seq
// and service. fragTotal and the 1-based fragIndex in each header let the
// glasses reassemble.
//
// Parameters:
//   - seq: Sequence number shared by every fragment
//   - service: Target service
//   - payload: Complete encoded payload
//   - maxFragment: Per-frame payload cap; values outside
//     1..MaxFramePayload fall back to DefaultMaxFragmentPayload
//
// Returns:
//   - The encoded frames in transmit order (a single frame when the
//     payload fits in one)
//   - An error if the payload needs more than 255 fragments
func BuildFragmentedFrames(seq byte, service ServiceID, payload []byte, maxFragment int) ([][]byte, error) {
	if maxFragment < 1 || maxFragment > MaxFramePayload {
		maxFragment = DefaultMaxFragmentPayload
	}
	total := (len(payload) + maxFragment - 1) / maxFragment
	if total == 0 {
		total = 1
	}
	if total > 255 {
		return nil, fmt.Errorf("payload %d bytes needs %d fragments, maximum is 255",
			len(payload), total)
	}

	frames := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		start := i * maxFragment
		end := start + maxFragment
		if end > len(payload) {
			end = len(payload)
		}
		f := Frame{
			Type:      FrameTypeCommand,
			Sequence:  seq,
			FragTotal: byte(total),
			FragIndex: byte(i + 1),
			Service:   service,
			Payload:   payload[start:end],
		}
		encoded, err := f.Marshal()
		if err != nil {
			return nil, err
		}
		frames = append(frames, encoded)
	}
	return frames, nil
}

// ParseFrame parses one frame from data, with or without the leading 0xAA.
//
// Every structural failure wraps ErrCorruptFrame: callers drop corrupt
// frames and never act on their contents. The returned payload aliases
// data; callers that retain it across notifications must copy.
//
// Parameters:
//   - data: One complete frame as delivered by the transport
//
// Returns:
//   - The parsed frame
//   - An error wrapping ErrCorruptFrame if the frame is short, carries a
//     length that disagrees with the data, or fails the CRC check
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) > 0 && data[0] == FrameMagic {
		data = data[1:]
	}
	// Header without magic is 7 bytes; captures that strip the magic still
	// carry everything else.
	const headerLen = FrameHeaderSize - 1
	if len(data) < headerLen+CRCSize {
		return nil, fmt.Errorf("frame too short: %d bytes: %w", len(data), ErrCorruptFrame)
	}

	length := int(data[2])
	if length < CRCSize {
		return nil, fmt.Errorf("length byte 0x%02x below CRC trailer size: %w",
			data[2], ErrCorruptFrame)
	}
	if len(data) != headerLen+length {
		return nil, fmt.Errorf("length byte declares %d-byte frame, got %d: %w",
			headerLen+length, len(data), ErrCorruptFrame)
	}

	payload := data[headerLen : headerLen+length-CRCSize]
	trailer := data[headerLen+length-CRCSize:]
	if !VerifyCRC(payload, trailer) {
		return nil, fmt.Errorf("CRC mismatch: got 0x%02x%02x want 0x%04x: %w",
			trailer[1], trailer[0], ChecksumCCITT(payload), ErrCorruptFrame)
	}

	return &Frame{
		Type:      data[0],
		Sequence:  data[1],
		FragTotal: data[3],
		FragIndex: data[4],
		Service:   NewServiceID(data[5], data[6]),
		Payload:   payload,
	}, nil
}

// ValidateFrame checks data for structural validity without returning the
// parsed frame. Used by the capture verification tools.
func ValidateFrame(data []byte) error {
	_, err := ParseFrame(data)
	return err
}
