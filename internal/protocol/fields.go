package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// WireType identifies how a field's value is encoded on the wire. The
// glasses payloads follow protobuf wire encoding, so the values match the
// protobuf wire types.
type WireType byte

// Wire types observed in captured payloads. Group start/end (3 and 4) never
// appear; DecodeFields stops if it meets one.
const (
	WireVarint  WireType = 0 // base-128 varint
	WireFixed64 WireType = 1 // 8 bytes, little-endian (double)
	WireBytes   WireType = 2 // varint length prefix, then raw bytes
	WireFixed32 WireType = 5 // 4 bytes, little-endian (float)
)

// String returns a short name for the wire type.
func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wire(%d)", byte(w))
	}
}

// maxVarintLen is the longest legal encoding of a 64-bit varint.
const maxVarintLen = 10

// AppendVarint appends the base-128 varint encoding of v to dst and returns
// the extended slice. Low 7 bits first, continuation bit 0x80 on all bytes
// except the last.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// EncodeVarint returns the base-128 varint encoding of v.
func EncodeVarint(v uint64) []byte {
	return AppendVarint(make([]byte, 0, maxVarintLen), v)
}

// DecodeVarint decodes a base-128 varint from the start of data.
//
// Returns:
//   - The decoded value
//   - The number of bytes consumed
//   - ErrTruncatedInput if data ends mid-varint or the encoding exceeds
//     64 bits
func DecodeVarint(data []byte) (uint64, int, error) {
	var v uint64
	for i, b := range data {
		if i == maxVarintLen || (i == maxVarintLen-1 && b > 0x01) {
			return 0, 0, ErrTruncatedInput
		}
		v |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncatedInput
}

// Field is one decoded payload field.
//
// Uint holds the raw value for wire types varint, fixed32 and fixed64
// (fixed values zero-extended); Bytes holds the value for length-delimited
// fields. Nested messages arrive as WireBytes and can be fed back through
// DecodeFields.
type Field struct {
	Number uint32
	Wire   WireType
	Uint   uint64
	Bytes  []byte
}

// Float32 reinterprets a fixed32 field as an IEEE 754 float.
func (f Field) Float32() float32 {
	return math.Float32frombits(uint32(f.Uint))
}

// Float64 reinterprets a fixed64 field as an IEEE 754 double.
func (f Field) Float64() float64 {
	return math.Float64frombits(f.Uint)
}

// String returns a compact human-readable rendering, used by the capture
// analysis tools.
func (f Field) String() string {
	switch f.Wire {
	case WireBytes:
		return fmt.Sprintf("#%d:bytes(%d)", f.Number, len(f.Bytes))
	case WireFixed32:
		return fmt.Sprintf("#%d:fixed32(0x%08x)", f.Number, uint32(f.Uint))
	case WireFixed64:
		return fmt.Sprintf("#%d:fixed64(0x%016x)", f.Number, f.Uint)
	default:
		return fmt.Sprintf("#%d:%d", f.Number, f.Uint)
	}
}

// AppendTag appends the tag byte(s) for a field number and wire type.
func AppendTag(dst []byte, number uint32, wire WireType) []byte {
	return AppendVarint(dst, uint64(number)<<3|uint64(wire))
}

// AppendVarintField appends a complete varint field (tag + value).
func AppendVarintField(dst []byte, number uint32, v uint64) []byte {
	dst = AppendTag(dst, number, WireVarint)
	return AppendVarint(dst, v)
}

// AppendBytesField appends a complete length-delimited field (tag + length
// + value). Used both for raw byte fields and for nested messages that have
// already been encoded.
func AppendBytesField(dst []byte, number uint32, b []byte) []byte {
	dst = AppendTag(dst, number, WireBytes)
	dst = AppendVarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendStringField appends a length-delimited field holding a UTF-8 string.
func AppendStringField(dst []byte, number uint32, s string) []byte {
	dst = AppendTag(dst, number, WireBytes)
	dst = AppendVarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// AppendFixed32Field appends a complete fixed32 field, little-endian.
func AppendFixed32Field(dst []byte, number uint32, v uint32) []byte {
	dst = AppendTag(dst, number, WireFixed32)
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendFixed64Field appends a complete fixed64 field, little-endian.
func AppendFixed64Field(dst []byte, number uint32, v uint64) []byte {
	dst = AppendTag(dst, number, WireFixed64)
	return binary.LittleEndian.AppendUint64(dst, v)
}

// DecodeFields decodes the tagged fields at the start of data.
//
// Decoding is deliberately forgiving: an unknown wire type or a zero field
// number stops the scan and returns the fields decoded so far with a nil
// error, because the firmware emits trailing structures we have not mapped
// yet. A field that runs past the end of data returns the fields decoded so
// far together with ErrTruncatedInput.
//
// Returns:
//   - The decoded fields, possibly empty
//   - ErrTruncatedInput if the final field was cut short, nil otherwise
func DecodeFields(data []byte) ([]Field, error) {
	var fields []Field
	for len(data) > 0 {
		tag, n, err := DecodeVarint(data)
		if err != nil {
			return fields, err
		}
		number := uint32(tag >> 3)
		wire := WireType(tag & 0x07)
		if number == 0 {
			return fields, nil
		}
		data = data[n:]

		f := Field{Number: number, Wire: wire}
		switch wire {
		case WireVarint:
			v, n, err := DecodeVarint(data)
			if err != nil {
				return fields, err
			}
			f.Uint = v
			data = data[n:]
		case WireFixed64:
			if len(data) < 8 {
				return fields, ErrTruncatedInput
			}
			f.Uint = binary.LittleEndian.Uint64(data)
			data = data[8:]
		case WireBytes:
			length, n, err := DecodeVarint(data)
			if err != nil {
				return fields, err
			}
			data = data[n:]
			if uint64(len(data)) < length {
				return fields, ErrTruncatedInput
			}
			f.Bytes = data[:length]
			data = data[length:]
		case WireFixed32:
			if len(data) < 4 {
				return fields, ErrTruncatedInput
			}
			f.Uint = uint64(binary.LittleEndian.Uint32(data))
			data = data[4:]
		default:
			// Group markers and reserved wire types; nothing in the
			// captures uses them, so stop rather than misparse.
			return fields, nil
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// FieldByNumber returns the first field with the given number, or false if
// absent.
func FieldByNumber(fields []Field, number uint32) (Field, bool) {
	for _, f := range fields {
		if f.Number == number {
			return f, true
		}
	}
	return Field{}, false
}
