package protocol

import "time"

// Handshake constructor for the glasses' app plane.
//
// The vendor app sends seven command frames right after enabling
// notifications, and the glasses ignore app-plane services until the full
// sequence has gone out. The bytes below replay that exchange verbatim;
// only the message ids, the timestamp and the sequence numbers vary between
// sessions. Recovered by replaying trimmed capture prefixes until the
// shortest sequence that still unlocked text rendering remained.

const (
	// AuthPacketInterval is the pause between consecutive handshake
	// frames. The vendor app paces them about 100ms apart; sending
	// back-to-back makes the glasses drop the tail of the sequence.
	AuthPacketInterval = 100 * time.Millisecond

	// AuthSettleDelay is the pause after the last handshake frame before
	// the first real command. Commands sent sooner are silently ignored;
	// 500ms is the shortest settle that worked across every test run.
	AuthSettleDelay = 500 * time.Millisecond

	// AuthFrameCount is the number of frames in the handshake.
	AuthFrameCount = 7

	// FirstSequenceAfterAuth is the sequence number of the first command
	// following the handshake, which consumes sequences 0x01..0x07.
	FirstSequenceAfterAuth byte = 0x08

	// FirstMessageIDAfterAuth is the message id of the first command
	// following the handshake, which consumes ids up to 0x13.
	FirstMessageIDAfterAuth uint64 = 0x14
)

// authSessionToken is replayed verbatim in both timestamp frames. On the
// wire it is the ten-byte varint encoding of int64(-24); the firmware
// accepts no other value we tried.
const authSessionToken uint64 = 0xFFFFFFFFFFFFFFE8

// BuildAuthSequence builds the seven-frame handshake that unlocks the
// glasses' app-plane services.
//
// Sequence (services and message ids fixed, confirmed across captures):
//
//	seq 0x01  0x80-00  system hello, id 0x0C
//	seq 0x02  0x80-20  app hello mode 2, id 0x0E
//	seq 0x03  0x80-20  timestamp + session token, id 0x0F
//	seq 0x04  0x80-00  system hello, id 0x10
//	seq 0x05  0x80-00  system hello, id 0x11
//	seq 0x06  0x80-20  app hello mode 1, id 0x12
//	seq 0x07  0x80-20  timestamp + session token, id 0x13
//
// Write the frames in order, AuthPacketInterval apart, then wait
// AuthSettleDelay before the first command.
//
// Parameters:
//   - timestamp: Current Unix time in seconds, embedded in frames 3 and 7
//
// Returns:
//   - The seven encoded frames in transmit order
func BuildAuthSequence(timestamp int64) ([][]byte, error) {
	type step func() ([]byte, error)
	steps := []step{
		func() ([]byte, error) { return buildSystemHello(0x01, 0x0C) },
		func() ([]byte, error) { return buildAppHello(0x02, 0x0E, 2) },
		func() ([]byte, error) { return buildAppTimestamp(0x03, 0x0F, timestamp) },
		func() ([]byte, error) { return buildSystemHello(0x04, 0x10) },
		func() ([]byte, error) { return buildSystemHello(0x05, 0x11) },
		func() ([]byte, error) { return buildAppHello(0x06, 0x12, 1) },
		func() ([]byte, error) { return buildAppTimestamp(0x07, 0x13, timestamp) },
	}

	frames := make([][]byte, 0, len(steps))
	for _, build := range steps {
		frame, err := build()
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// buildSystemHello builds handshake frames 1, 4 and 5.
//
// Payload structure (service 0x80-00):
//
//	field 1  varint  4          command
//	field 2  varint  msgID
//	field 3  bytes   {1:1, 2:4} fixed capability pair
func buildSystemHello(seq byte, msgID uint64) ([]byte, error) {
	inner := AppendVarintField(nil, 1, 1)
	inner = AppendVarintField(inner, 2, 4)

	payload := AppendVarintField(nil, 1, 4)
	payload = AppendVarintField(payload, 2, msgID)
	payload = AppendBytesField(payload, 3, inner)
	return BuildFrame(seq, ServiceSystem, payload)
}

// buildAppHello builds handshake frames 2 and 6.
//
// Payload structure (service 0x80-20):
//
//	field 1  varint  5        command
//	field 2  varint  msgID
//	field 4  bytes   {1:mode} mode is 2 in frame 2, 1 in frame 6
func buildAppHello(seq byte, msgID, mode uint64) ([]byte, error) {
	inner := AppendVarintField(nil, 1, mode)

	payload := AppendVarintField(nil, 1, 5)
	payload = AppendVarintField(payload, 2, msgID)
	payload = AppendBytesField(payload, 4, inner)
	return BuildFrame(seq, ServiceSystemApp, payload)
}

// buildAppTimestamp builds handshake frames 3 and 7.
//
// Payload structure (service 0x80-20):
//
//	field 1    varint  128
//	field 2    varint  msgID
//	field 128  bytes   {1:timestamp, 2:session token}
func buildAppTimestamp(seq byte, msgID uint64, timestamp int64) ([]byte, error) {
	inner := AppendVarintField(nil, 1, uint64(timestamp))
	inner = AppendVarintField(inner, 2, authSessionToken)

	payload := AppendVarintField(nil, 1, 128)
	payload = AppendVarintField(payload, 2, msgID)
	payload = AppendBytesField(payload, 128, inner)
	return BuildFrame(seq, ServiceSystemApp, payload)
}
