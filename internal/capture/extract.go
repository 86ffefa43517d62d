package capture

import (
	"bytes"
	"crypto/sha256"
	"sort"
	"time"

	"github.com/kordwall/g2link/internal/protocol"
)

// attWriteMarker is the start of an ATT Write Command for the glasses
// command characteristic: opcode 0x52 followed by handle 0x0842 little
// endian. The frame bytes begin right after it, magic stripped.
var attWriteMarker = []byte{0x52, 0x42, 0x08}

// headerLessMagic is the frame header size once the capture layer has
// eaten the 0xAA.
const headerLessMagic = protocol.FrameHeaderSize - 1

// Packet is one protocol frame recovered from a capture, with the record
// context it came from.
type Packet struct {
	// Index numbers packets in extraction order, for cross-referencing
	// tool output.
	Index int

	// RecordOffset is the byte offset of the containing BTSnoop record.
	RecordOffset int

	// Received is true for controller-to-host records (glasses replies).
	Received bool

	// Time is the record capture time.
	Time time.Time

	// Frame is the parsed frame.
	Frame *protocol.Frame

	// Raw is the frame in canonical wire form, 0xAA magic reinserted.
	Raw []byte
}

// ExtractPackets recovers all glasses frames from a parsed capture.
//
// Records are scanned for the ATT write marker; every hit is sliced to the
// length its header declares, given its magic back, and run through the
// frame parser. Hits that fail structural or CRC validation are marker
// collisions and are skipped silently. Byte-identical frames are reported
// once.
//
// Parameters:
//   - f: Parsed BTSnoop capture
//
// Returns:
//   - Packets in capture order
func ExtractPackets(f *File) []Packet {
	var packets []Packet
	seen := make(map[[sha256.Size]byte]struct{})

	for ri := range f.Records {
		rec := &f.Records[ri]
		data := rec.Data
		pos := 0
		for {
			idx := bytes.Index(data[pos:], attWriteMarker)
			if idx < 0 {
				break
			}
			start := pos + idx + len(attWriteMarker)

			frameBytes, ok := sliceFrame(data, start)
			if !ok {
				pos += idx + 1
				continue
			}

			raw := make([]byte, 0, 1+len(frameBytes))
			raw = append(raw, protocol.FrameMagic)
			raw = append(raw, frameBytes...)

			frame, err := protocol.ParseFrame(raw)
			if err != nil {
				pos += idx + 1
				continue
			}

			key := sha256.Sum256(raw)
			if _, dup := seen[key]; dup {
				pos = start + len(frameBytes)
				continue
			}
			seen[key] = struct{}{}

			packets = append(packets, Packet{
				Index:        len(packets),
				RecordOffset: rec.Offset,
				Received:     rec.Received(),
				Time:         rec.Time(),
				Frame:        frame,
				Raw:          raw,
			})
			pos = start + len(frameBytes)
		}
	}
	return packets
}

// sliceFrame cuts the exact frame the header at data[start] declares.
// Returns false when the declared frame runs past the record, which is
// either a truncated capture or a marker collision.
func sliceFrame(data []byte, start int) ([]byte, bool) {
	if start+headerLessMagic > len(data) {
		return nil, false
	}
	length := int(data[start+2])
	if length < protocol.CRCSize {
		return nil, false
	}
	end := start + headerLessMagic + length
	if end > len(data) {
		return nil, false
	}
	return data[start:end], true
}

// ServiceTally aggregates per-service frame statistics.
type ServiceTally struct {
	Service protocol.ServiceID

	// Frames counts all frames for the service, fragments included.
	Frames int

	// Fragmented counts frames that are part of a multi-fragment message.
	Fragmented int

	// Types counts frames per frame type byte.
	Types map[byte]int
}

// TallyByService groups extracted packets by service.
func TallyByService(packets []Packet) map[protocol.ServiceID]*ServiceTally {
	tallies := make(map[protocol.ServiceID]*ServiceTally)
	for i := range packets {
		frame := packets[i].Frame
		t := tallies[frame.Service]
		if t == nil {
			t = &ServiceTally{
				Service: frame.Service,
				Types:   make(map[byte]int),
			}
			tallies[frame.Service] = t
		}
		t.Frames++
		t.Types[frame.Type]++
		if frame.Fragmented() {
			t.Fragmented++
		}
	}
	return tallies
}

// SortedTallies flattens a tally map into service-id order for printing.
func SortedTallies(tallies map[protocol.ServiceID]*ServiceTally) []*ServiceTally {
	out := make([]*ServiceTally, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Service < out[j].Service
	})
	return out
}
