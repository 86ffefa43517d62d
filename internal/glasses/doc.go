// Package glasses provides a session layer for Even G2 smart glasses over BLE.
//
// This package sits on top of internal/protocol and drives a connected pair
// of glasses: it runs the seven-frame handshake, hands out sequence numbers
// and message ids, builds the per-service command payloads recovered from
// captures, and routes notifications back to the caller. The actual BLE I/O
// is behind the Transport interface so tests can run against a fake.
//
// # Session Lifecycle
//
// A Session moves through four states:
//
//	Disconnected -> Connecting -> Authenticating -> Ready
//
// Connect scans for glasses, attaches the transport, replays the handshake
// with the capture-derived pacing, and resets the id counters to the values
// the vendor app uses for its first real command (sequence 0x08, message id
// 0x14). A transport-initiated disconnect drops the session back to
// Disconnected from any state and fires a disconnected event.
//
// # Usage Example
//
//	session := glasses.NewSession(glasses.Config{
//	    Transport: ble.New(),
//	    OnEvent: func(ev glasses.Event) {
//	        fmt.Println(ev.Kind, ev.Device)
//	    },
//	})
//
//	device, err := session.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Disconnect()
//	fmt.Println("connected to", device.Name)
//
//	// Render a text card on the glasses.
//	if err := session.SetText(ctx, "It works."); err != nil {
//	    log.Fatal(err)
//	}
//
// # Commands and Responses
//
// The glasses acknowledge writes with 0xC9/0xCB frames and push unsolicited
// 0x12 notifications, but nothing in the payload ties a response to the
// command that caused it reliably enough to correlate on. Send is therefore
// fire-and-forget, and SendAndCollect falls back to time-boxed collection:
// it opens a collector, writes the command, sleeps the full window and
// returns whatever arrived in the meantime.
//
// # Thread Safety
//
// One session mutex serializes Connect, Disconnect, Send, SendAndCollect and
// the high-level operations, including their pacing delays, so writes reach
// the transport in program order and id allocation never interleaves. The
// notification path runs concurrently on the transport's callback goroutine
// and only touches the reassembler and collector set, which have their own
// lock.
package glasses
