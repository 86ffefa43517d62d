package glasses

import (
	"context"
	"fmt"
	"time"

	"github.com/kordwall/g2link/internal/protocol"
)

// Transport is the BLE link the session drives. The real implementation
// lives in internal/ble; tests substitute a fake.
//
// A Transport carries at most one connection. Notifications and the
// disconnect signal are delivered on the transport's own goroutine, never
// synchronously from inside Connect, Write or Disconnect.
type Transport interface {
	// Discover scans for advertising glasses and returns every match.
	Discover(ctx context.Context, timeout time.Duration) ([]Device, error)

	// Connect attaches to a device, subscribes to its notify
	// characteristic and registers the disconnect callback.
	Connect(ctx context.Context, device Device, onNotify func([]byte), onDisconnect func(error)) error

	// Write sends one frame to the write characteristic without response.
	Write(ctx context.Context, frame []byte) error

	// Disconnect tears the link down. Safe to call when not connected.
	Disconnect() error
}

// FrameTap wraps a Transport and observes every frame crossing it.
// OnSend sees each outbound frame before it reaches the link; OnReceive
// sees each inbound notification before the session parses it. Either
// callback may be nil. OnReceive runs on the transport's notification
// goroutine and must not block.
type FrameTap struct {
	Transport
	OnSend    func(frame []byte)
	OnReceive func(frame []byte)
}

func (t *FrameTap) Connect(ctx context.Context, device Device, onNotify func([]byte), onDisconnect func(error)) error {
	tapped := onNotify
	if t.OnReceive != nil {
		tapped = func(data []byte) {
			t.OnReceive(data)
			onNotify(data)
		}
	}
	return t.Transport.Connect(ctx, device, tapped, onDisconnect)
}

func (t *FrameTap) Write(ctx context.Context, frame []byte) error {
	if t.OnSend != nil {
		t.OnSend(frame)
	}
	return t.Transport.Write(ctx, frame)
}

// State is the session lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind identifies a session event.
type EventKind int

const (
	// EventConnected fires once the handshake completes.
	EventConnected EventKind = iota
	// EventDisconnected fires when the link drops, whether requested or
	// transport-initiated.
	EventDisconnected
	// EventResponse fires for every reassembled inbound message.
	EventResponse
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventResponse:
		return "response"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to the session's event callback. The callback runs on
// session goroutines and must not call back into blocking session methods.
type Event struct {
	Kind   EventKind
	Device string // connected, disconnected
	Reason string // disconnected: "user" or "ble_disconnect"

	// Message is the classified inbound message for EventResponse.
	Message protocol.Message
}
