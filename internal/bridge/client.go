package bridge

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kordwall/g2link/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake.
	DefaultDialTimeout = 10 * time.Second

	// clientEventBacklog is the event buffer per client. Events past it
	// are dropped, matching the server's policy for slow consumers.
	clientEventBacklog = 256
)

// Client talks to a running bridge over its WebSocket API. It is used by
// the remote CLI commands and by tests; one Client supports concurrent
// calls from multiple goroutines.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu      sync.Mutex
	pending map[string]chan Response
	nextID  uint64
	readErr error

	events chan Event
	closed chan struct{}
	once   sync.Once
}

// Dial connects to a bridge.
//
// Parameters:
//   - ctx: Bounds the WebSocket handshake
//   - addr: Bridge address as host:port or a full ws:// URL
//
// Returns:
//   - A connected client with its read loop running
//   - An error if the endpoint is unreachable or not a bridge
func Dial(ctx context.Context, addr string) (*Client, error) {
	wsURL, err := normalizeURL(addr)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: DefaultDialTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial bridge at %s: %w", wsURL, err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan Response),
		events:  make(chan Event, clientEventBacklog),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// normalizeURL accepts "host:port", "ws://..." or "wss://..." and returns
// the URL to dial.
func normalizeURL(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty bridge address")
	}
	u, err := url.Parse(addr)
	if err == nil && (u.Scheme == "ws" || u.Scheme == "wss") {
		return addr, nil
	}
	return "ws://" + addr, nil
}

// Close tears the connection down. Pending calls fail, and the event
// channel is closed once the read loop exits.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// Events returns the channel unsolicited bridge events arrive on. The
// channel closes when the connection drops. Events that arrive while the
// buffer is full are dropped.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Subscribe consumes events, invoking handler for each one until the
// connection drops or ctx is canceled. It blocks; run it on its own
// goroutine alongside Call traffic.
func (c *Client) Subscribe(ctx context.Context, handler func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.events:
			if !ok {
				return c.connErr()
			}
			handler(ev)
		}
	}
}

// Call sends one request and waits for its response.
//
// Parameters:
//   - ctx: Bounds the wait; the bridge keeps executing if it expires
//   - method: Method name, e.g. MethodSetText
//   - params: Marshaled as the params object; nil omits it
//   - result: Unmarshaled from the result object when non-nil
//
// Returns:
//   - An *Error carrying the bridge's code and message when the bridge
//     rejected the request, or a transport error if the connection broke
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.nextID++
	req.ID = strconv.FormatUint(c.nextID, 10)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	if err := c.write(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return c.connErr()
	case resp := <-ch:
		if resp.Error != nil {
			return &Error{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *Client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) connErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return fmt.Errorf("bridge connection closed: %w", c.readErr)
	}
	return fmt.Errorf("bridge connection closed")
}

// inbound covers both server message shapes; responses carry an id,
// events carry a name.
type inbound struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *ErrorInfo      `json:"error"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// readLoop routes responses to their callers and events to the event
// channel until the connection drops.
func (c *Client) readLoop() {
	var readErr error
	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			readErr = err
			break
		}

		if msg.Event != "" {
			select {
			case c.events <- Event{Event: msg.Event, Data: msg.Data}:
			default:
				logging.Debug("dropping bridge event, consumer too slow",
					zap.String("event", msg.Event))
			}
			continue
		}

		c.mu.Lock()
		ch := c.pending[msg.ID]
		c.mu.Unlock()
		if ch == nil {
			// Response to a call that already gave up; PARSE_ERROR
			// responses land here too since they carry no id.
			continue
		}
		ch <- Response{ID: msg.ID, Result: msg.Result, Error: msg.Error}
	}

	c.mu.Lock()
	c.readErr = readErr
	c.mu.Unlock()
	close(c.closed)
	close(c.events)
	_ = c.Close()
}

// --- Typed wrappers for the bridge methods ---

// Connect asks the bridge to scan for and connect glasses. Returns the
// connected device name.
func (c *Client) Connect(ctx context.Context) (string, error) {
	var res connectResult
	if err := c.Call(ctx, MethodConnect, nil, &res); err != nil {
		return "", err
	}
	return res.Device, nil
}

// Disconnect asks the bridge to drop the glasses connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.Call(ctx, MethodDisconnect, nil, nil)
}

// SetText displays text on the glasses.
func (c *Client) SetText(ctx context.Context, text string) error {
	return c.Call(ctx, MethodSetText, textParams{Text: text}, nil)
}

// SetTeleprompter loads a teleprompter script.
func (c *Client) SetTeleprompter(ctx context.Context, title, body string) error {
	return c.Call(ctx, MethodSetTeleprompter, teleprompterParams{Title: title, Body: body}, nil)
}

// StartNavigation enters the navigation screen.
func (c *Client) StartNavigation(ctx context.Context) error {
	return c.Call(ctx, MethodStartNavigation, nil, nil)
}

// SetNavigation updates the navigation HUD.
func (c *Client) SetNavigation(ctx context.Context, params NavigationParams) error {
	return c.Call(ctx, MethodSetNavigation, params, nil)
}

// StopNavigation leaves the navigation screen.
func (c *Client) StopNavigation(ctx context.Context) error {
	return c.Call(ctx, MethodStopNavigation, nil, nil)
}

// SendRaw writes one frame built from the given service and payload and
// collects responses for the wait window.
//
// Parameters:
//   - svcHi, svcLo: Target service bytes
//   - payload: Encoded payload fields (may be empty)
//   - wait: Response collection window; 0 uses the session default
//
// Returns:
//   - Raw response frames in wire form
func (c *Client) SendRaw(ctx context.Context, svcHi, svcLo byte, payload []byte, wait time.Duration) ([][]byte, error) {
	hi, lo := int(svcHi), int(svcLo)
	params := rawParams{
		SvcHi:   &hi,
		SvcLo:   &lo,
		Payload: hex.EncodeToString(payload),
		Wait:    wait.Seconds(),
	}
	var res rawResult
	if err := c.Call(ctx, MethodSendRaw, params, &res); err != nil {
		return nil, err
	}
	frames := make([][]byte, 0, len(res.Responses))
	for _, h := range res.Responses {
		data, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("bridge returned invalid response hex: %w", err)
		}
		frames = append(frames, data)
	}
	return frames, nil
}

// GetStatus reports the bridge's glasses connection state.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var res Status
	if err := c.Call(ctx, MethodGetStatus, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
