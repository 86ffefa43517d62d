package protocol

import "encoding/binary"

// CRC-16/CCITT-FALSE as used by the glasses firmware: polynomial 0x1021,
// initial value 0xFFFF, no reflection, no final XOR. The parameters were
// pinned down by brute-forcing common CRC-16 variants against captured
// frames; CCITT-FALSE matched every trailer in the corpus.
const (
	crcPoly uint16 = 0x1021
	crcInit uint16 = 0xFFFF
)

// crcTable holds the byte-indexed remainder table for crcPoly.
var crcTable [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// ChecksumCCITT computes the CRC-16/CCITT-FALSE checksum of data.
//
// The glasses compute this over the frame payload only; the header bytes are
// not covered. Check value: ChecksumCCITT([]byte("123456789")) == 0x29B1.
func ChecksumCCITT(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}

// AppendCRC appends the little-endian CRC-16 of payload to dst and returns
// the extended slice. The trailer byte order (low byte first) matches the
// captured frames.
func AppendCRC(dst, payload []byte) []byte {
	return binary.LittleEndian.AppendUint16(dst, ChecksumCCITT(payload))
}

// VerifyCRC reports whether trailer carries the correct little-endian
// CRC-16 for payload. trailer must be exactly CRCSize bytes.
func VerifyCRC(payload, trailer []byte) bool {
	if len(trailer) != CRCSize {
		return false
	}
	return binary.LittleEndian.Uint16(trailer) == ChecksumCCITT(payload)
}
