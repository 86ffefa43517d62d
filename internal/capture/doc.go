// Package capture parses BTSnoop Bluetooth captures and recovers Even G2
// protocol frames from them.
//
// Protocol work on the glasses starts from captures: enable the Bluetooth
// HCI snoop log on an Android phone, drive the vendor app, pull the
// resulting btsnoop file and mine it for frames. This package implements
// the two layers that pipeline needs:
//
//   - btsnoop.go reads the BTSnoop container: the 16-byte file header and
//     the length-prefixed records that follow, each carrying one HCI packet
//     with direction flags and a timestamp.
//   - extract.go locates ATT writes to the glasses command characteristic
//     inside those records and turns them into protocol.Frame values. The
//     0xAA frame magic never survives the capture layer, so extraction
//     reinserts it before handing bytes to the frame parser.
//
// # Locating Frames
//
// The glasses expose the command characteristic at ATT handle 0x0842 on the
// handsets used for capture. An ATT Write Command for it therefore starts
// with the three bytes 0x52 0x42 0x08 (opcode, then the handle little
// endian), and everything after that prefix is a magic-stripped frame.
// Scanning records for that marker is how the extractor finds traffic
// without modeling the full HCI layering, which varies by vendor.
//
// Frames recovered this way are CRC-checked before they are reported, so
// marker collisions inside unrelated packet bodies are rejected rather than
// surfaced as garbage.
//
// # Duplicates
//
// Phone HCI logs frequently contain the same write more than once, e.g.
// once at submission and once inside a vendor diagnostic record. Identical
// raw frames are collapsed by content hash during extraction; two commands
// that genuinely repeat differ at least in their sequence byte and are both
// kept.
//
// # Usage Example
//
//	snoop, err := capture.Open("session.log")
//	if err != nil {
//	    return err
//	}
//	packets := capture.ExtractPackets(snoop)
//	for svc, tally := range capture.TallyByService(packets) {
//	    fmt.Printf("%s: %d frames\n", svc, tally.Frames)
//	}
//
// The standalone tools under tools/ wrap this package for interactive
// analysis and for regression-checking the frame parser against real
// captures.
package capture
