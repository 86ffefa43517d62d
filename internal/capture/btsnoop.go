package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// BTSnoop container layout (RFC 1761 derived, as written by Android):
//
//	file header, 16 bytes:
//	  [0..7]   "btsnoop\0"
//	  [8..11]  version, big-endian (always 1)
//	  [12..15] datalink type, big-endian
//
//	record header, 24 bytes, repeated to EOF:
//	  [0..3]   original length
//	  [4..7]   included length (bytes of packet data that follow)
//	  [8..11]  flags; bit 0 clear = host-to-controller
//	  [12..15] cumulative drops
//	  [16..23] timestamp, signed microseconds since year 0
//
// All integers are big-endian.
const (
	fileHeaderSize   = 16
	recordHeaderSize = 24

	// DatalinkH4 is the plain HCI UART datalink most Android builds write.
	DatalinkH4 = 1002

	// DatalinkMonitor is the extended monitor format Samsung builds write.
	// Record payloads carry extra vendor framing around the HCI packet,
	// which is why extraction scans for the ATT marker instead of
	// walking the HCI structure.
	DatalinkMonitor = 768
)

// btsnoopEpochDelta converts BTSnoop timestamps (microseconds since year 0)
// to the Unix epoch.
const btsnoopEpochDelta = 0x00DCDDB30F2F8000

var btsnoopMagic = []byte("btsnoop\x00")

// ErrNotBTSnoop is returned for input that does not start with the BTSnoop
// file magic.
var ErrNotBTSnoop = errors.New("not a btsnoop file")

// Record is one captured packet.
type Record struct {
	// Offset is the record header's byte offset in the file, useful for
	// cross-referencing with other tools.
	Offset int

	// OriginalLength is the packet size on the air; IncludedLength bytes
	// of it were captured into Data.
	OriginalLength uint32
	IncludedLength uint32

	Flags     uint32
	Drops     uint32
	Timestamp int64

	// Data is the captured packet, IncludedLength bytes.
	Data []byte
}

// Received reports whether the packet traveled controller-to-host. For
// glasses traffic that means a notification or ack; writes from the phone
// have this clear.
func (r *Record) Received() bool {
	return r.Flags&0x01 != 0
}

// Time converts the record timestamp to wall-clock time.
func (r *Record) Time() time.Time {
	us := r.Timestamp - btsnoopEpochDelta
	return time.UnixMicro(us).UTC()
}

// File is a parsed BTSnoop capture.
type File struct {
	Version  uint32
	Datalink uint32
	Records  []Record
}

// Parse parses an in-memory BTSnoop capture.
//
// A record header that declares more data than remains in the input ends
// parsing; Android truncates the snoop log mid-record when it rotates, and
// everything before the cut is still usable.
//
// Parameters:
//   - data: Complete capture file contents
//
// Returns:
//   - The parsed file with all complete records
//   - ErrNotBTSnoop if the magic is wrong, or an error for a short header
func Parse(data []byte) (*File, error) {
	if len(data) < fileHeaderSize {
		return nil, fmt.Errorf("file header: %d bytes, need %d", len(data), fileHeaderSize)
	}
	if !bytes.Equal(data[:8], btsnoopMagic) {
		return nil, fmt.Errorf("magic %q: %w", data[:8], ErrNotBTSnoop)
	}

	f := &File{
		Version:  binary.BigEndian.Uint32(data[8:12]),
		Datalink: binary.BigEndian.Uint32(data[12:16]),
	}

	offset := fileHeaderSize
	for offset+recordHeaderSize <= len(data) {
		inclLen := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		if offset+recordHeaderSize+inclLen > len(data) {
			break
		}
		f.Records = append(f.Records, Record{
			Offset:         offset,
			OriginalLength: binary.BigEndian.Uint32(data[offset : offset+4]),
			IncludedLength: uint32(inclLen),
			Flags:          binary.BigEndian.Uint32(data[offset+8 : offset+12]),
			Drops:          binary.BigEndian.Uint32(data[offset+12 : offset+16]),
			Timestamp:      int64(binary.BigEndian.Uint64(data[offset+16 : offset+24])),
			Data:           data[offset+recordHeaderSize : offset+recordHeaderSize+inclLen],
		})
		offset += recordHeaderSize + inclLen
	}

	return f, nil
}

// Open reads and parses a BTSnoop capture from disk.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}
