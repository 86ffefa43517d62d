// Package protocol implements the Even G2 smart-glasses binary protocol.
//
// This package handles parsing, validation, and construction of the framed
// binary messages exchanged with Even G2 glasses over a BLE GATT
// characteristic. The framing was recovered from btsnoop captures of the
// vendor app and confirmed by live probing; every constant in this package
// traces back to observed traffic.
//
// # Frame Format
//
// Each write to the glasses carries one frame:
//
//	[0]      0xAA          Magic byte (FrameMagic)
//	[1]      type          0x21 host->glasses command; glasses->host carries
//	                       0x12 or an ack byte (0xC9 success, 0xCB received)
//	[2]      sequence      Wraps modulo 256; groups fragments of one message
//	[3]      len(payload)+2 Length of payload plus the CRC trailer
//	[4]      fragTotal     Number of fragments (1 = unfragmented)
//	[5]      fragIndex     1-based fragment position
//	[6]      serviceHi     Service identifier, high byte
//	[7]      serviceLo     Service identifier, low byte
//	[8..N-3] payload       Opaque at this layer; see fields.go
//	[N-2..N-1] crc16       CRC-16/CCITT over payload only, little-endian
//
// Some capture layers (notably Samsung btsnoop) strip the leading 0xAA;
// ParseFrame accepts frames with or without it.
//
// # Payload Encoding
//
// Payloads use a protobuf-compatible tagged field encoding with wire types
// 0 (varint), 1 (fixed64), 2 (length-delimited) and 5 (fixed32). The glasses
// firmware tolerates unknown fields, so DecodeFields stops gracefully rather
// than failing hard on structures it cannot interpret.
//
// # Usage Example - Construction
//
//	frame := protocol.BuildFrame(seq, protocol.ServiceConversate, payload)
//	// frame is ready to write to the GATT characteristic
//
// # Usage Example - Parsing
//
//	frame, err := protocol.ParseFrame(notification)
//	if err != nil {
//	    // corrupt frame: drop it, never act on it
//	    return
//	}
//	msg := reassembler.Ingest(frame)
//	if msg != nil {
//	    fields, _ := protocol.DecodeFields(msg.Payload)
//	    ...
//	}
//
// # Fragmentation
//
// Payloads larger than a single ATT write are split across frames sharing
// one sequence number and service id. The Reassembler buffers partial
// messages keyed by (sequence, service) and returns the concatenated payload
// once fragments 1..fragTotal have all arrived, in any order. Partial
// entries that never complete are evicted after a bounded expiry.
//
// # Error Handling
//
// The package distinguishes between:
//   - ErrCorruptFrame: bad length or CRC; the frame must be dropped
//   - ErrTruncatedInput: a varint or field ran past the available bytes
//
// Corrupt frames are never surfaced past ParseFrame. Truncated field
// decodes return the fields parsed so far together with the error, letting
// callers treat probe responses as best-effort.
//
// # Thread Safety
//
// All parsing and construction functions are stateless and safe for
// concurrent use. The Reassembler is not; it is owned by the session's
// notification path which provides its own locking.
package protocol
