package bridge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kordwall/g2link/internal/protocol"
)

// Method names accepted by the server.
const (
	MethodConnect         = "connect"
	MethodDisconnect      = "disconnect"
	MethodSetText         = "setText"
	MethodSetTeleprompter = "setTeleprompter"
	MethodStartNavigation = "startNavigation"
	MethodSetNavigation   = "setNavigation"
	MethodStopNavigation  = "stopNavigation"
	MethodSendRaw         = "sendRaw"
	MethodGetStatus       = "getStatus"
)

// Error codes carried in ErrorInfo.Code.
const (
	CodeParseError    = "PARSE_ERROR"
	CodeInvalidParams = "INVALID_PARAMS"
	CodeUnknownMethod = "UNKNOWN_METHOD"
	CodeNotConnected  = "NOT_CONNECTED"
	CodeBLEError      = "BLE_ERROR"
	CodeInternal      = "INTERNAL"
)

// Event names pushed to every connected client.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventResponse     = "response"
)

// Request is one client command.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers one request; exactly one of Result and Error is set.
// PARSE_ERROR responses are the exception: the request id could not be
// read, so they carry none.
type Response struct {
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo is the error half of a response.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event is one unsolicited server push.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ConnectedData is the payload of a connected event.
type ConnectedData struct {
	Device string `json:"device"`
}

// DisconnectedData is the payload of a disconnected event. Reason is
// "user" for a requested teardown and "ble_disconnect" when the link
// dropped on its own.
type DisconnectedData struct {
	Device string `json:"device"`
	Reason string `json:"reason"`
}

// ResponseData is the payload of a response event: one glasses frame in
// wire form, hex encoded.
type ResponseData struct {
	Raw string `json:"raw"`
}

// Status is the getStatus result. Device is omitted while disconnected.
type Status struct {
	Connected bool   `json:"connected"`
	Device    string `json:"device,omitempty"`
}

// NavigationParams carries a setNavigation HUD update. Field names match
// the wire protocol; empty strings leave the corresponding HUD field at
// its last value.
type NavigationParams struct {
	Direction      int    `json:"direction,omitempty"`
	Distance       string `json:"distance,omitempty"`
	Road           string `json:"road,omitempty"`
	ETA            string `json:"eta,omitempty"`
	Speed          string `json:"speed,omitempty"`
	RemainDistance string `json:"remainDistance,omitempty"`
	SpendTime      string `json:"spendTime,omitempty"`
}

type textParams struct {
	Text string `json:"text"`
}

type teleprompterParams struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// rawParams uses pointers for the service bytes so a missing field is
// distinguishable from zero. Wait is in seconds; zero means the session's
// default response window.
type rawParams struct {
	SvcHi   *int    `json:"svcHi"`
	SvcLo   *int    `json:"svcLo"`
	Payload string  `json:"payload,omitempty"`
	Wait    float64 `json:"wait,omitempty"`
}

type okResult struct {
	OK bool `json:"ok"`
}

type connectResult struct {
	OK     bool   `json:"ok"`
	Device string `json:"device"`
}

type rawResult struct {
	OK        bool     `json:"ok"`
	Responses []string `json:"responses"`
}

// Error is a failure the bridge reported over the wire.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// messageFrame unwraps the frame behind a classified message.
func messageFrame(msg protocol.Message) *protocol.Frame {
	switch m := msg.(type) {
	case *protocol.AckMessage:
		return m.Frame
	case *protocol.NotifyMessage:
		return m.Frame
	case *protocol.UnknownMessage:
		return m.Frame
	default:
		return nil
	}
}

// messageWire re-encodes one classified message in wire form, one hex
// string per frame. A message the reassembler merged from fragments is
// split again when its payload no longer fits a single frame, keeping the
// original type byte.
func messageWire(msg protocol.Message) []string {
	frame := messageFrame(msg)
	if frame == nil {
		return nil
	}
	if len(frame.Payload) <= protocol.MaxFramePayload {
		data, err := frame.Marshal()
		if err != nil {
			return nil
		}
		return []string{hex.EncodeToString(data)}
	}

	max := protocol.DefaultMaxFragmentPayload
	total := (len(frame.Payload) + max - 1) / max
	if total > 255 {
		return nil
	}
	out := make([]string, 0, total)
	for i := 0; i < total; i++ {
		start := i * max
		end := min(start+max, len(frame.Payload))
		chunk := protocol.Frame{
			Type:      frame.Type,
			Sequence:  frame.Sequence,
			FragTotal: byte(total),
			FragIndex: byte(i + 1),
			Service:   frame.Service,
			Payload:   frame.Payload[start:end],
		}
		data, err := chunk.Marshal()
		if err != nil {
			return nil
		}
		out = append(out, hex.EncodeToString(data))
	}
	return out
}
