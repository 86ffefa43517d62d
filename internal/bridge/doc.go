// Package bridge exposes a glasses session over a WebSocket JSON protocol.
//
// The bridge exists so applications written against a WebSocket API can
// drive the glasses without touching BLE: the server owns one
// glasses.Session and relays commands to it, and every frame the glasses
// send back is pushed to all connected clients. The package also ships a
// Go client for the same protocol, used by the CLI's remote mode and the
// tests.
//
// # Wire Protocol
//
// Clients send JSON requests and receive one response per request, matched
// by a caller-chosen id:
//
//	{"id": "1", "method": "setText", "params": {"text": "hello"}}
//	{"id": "1", "result": {"ok": true}}
//	{"id": "1", "error": {"code": "NOT_CONNECTED", "message": "..."}}
//
// A request that is not valid JSON cannot echo an id, so the PARSE_ERROR
// response carries none. The methods are connect, disconnect, setText,
// setTeleprompter, startNavigation, setNavigation, stopNavigation,
// sendRaw and getStatus; their parameter and result shapes are the typed
// structs in this package.
//
// The server also pushes unsolicited events to every client:
//
//	{"event": "connected", "data": {"device": "G2_45_L_C4E7"}}
//	{"event": "disconnected", "data": {"device": "G2_45_L_C4E7", "reason": "ble_disconnect"}}
//	{"event": "response", "data": {"raw": "aac9080201010b20..."}}
//
// The raw field is the full frame in wire form, so a client can feed it to
// any decoder that understands the glasses protocol. Fragmented messages
// are reassembled before they are pushed.
//
// # Error Codes
//
// Session failures map onto stable wire codes: NOT_CONNECTED when no
// glasses session is active, INVALID_PARAMS for bad or missing parameters
// (including text the glasses would reject), BLE_ERROR for scan, link and
// timeout failures, UNKNOWN_METHOD and PARSE_ERROR for malformed requests,
// and INTERNAL for everything else.
//
// # Ordering
//
// Each client's requests run strictly in order; a connect that is scanning
// blocks that client's next request but not other clients. The session
// itself serializes commands, so concurrent clients take turns at the
// glasses.
//
// # Security
//
// The protocol has no authentication. The default listen address is
// localhost only; binding a wider address hands control of the glasses to
// the whole network segment.
package bridge
