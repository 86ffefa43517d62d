package bridge

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/kordwall/g2link/internal/discovery"
	"github.com/kordwall/g2link/internal/glasses"
	"github.com/kordwall/g2link/internal/logging"
	"github.com/kordwall/g2link/internal/protocol"
	"github.com/kordwall/g2link/internal/version"
)

// DefaultListen is the address the bridge binds when the config does
// not name one. Localhost on purpose: the protocol carries no
// authentication.
const DefaultListen = "localhost:8765"

const (
	// writeWait bounds every write to a peer.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before its connection
	// is considered dead.
	pongWait = 60 * time.Second

	// pingPeriod is how often clients are pinged. Must be under pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps one request. Teleprompter scripts are the
	// largest legitimate payload at 32K of text plus JSON overhead.
	maxMessageSize = 64 * 1024

	// maxResponseWindow caps the sendRaw wait parameter so one client
	// cannot hold the command path indefinitely.
	maxResponseWindow = 30 * time.Second

	// eventBacklog bounds queued events between the session and the
	// broadcaster. A full queue drops new events rather than stalling
	// the session.
	eventBacklog = 256

	// shutdownTimeout is how long Shutdown waits for client handlers.
	shutdownTimeout = 10 * time.Second
)

// Glasses is the slice of the session surface the bridge drives. It is
// satisfied by *glasses.Session; tests substitute a fake.
type Glasses interface {
	Connect(ctx context.Context) (glasses.Device, error)
	Disconnect() error
	Connected() bool
	Device() glasses.Device
	SetText(ctx context.Context, text string) error
	SetTeleprompter(ctx context.Context, title, text string) error
	StartNavigation(ctx context.Context) error
	SetNavigation(ctx context.Context, info glasses.NavigationInfo) error
	StopNavigation(ctx context.Context) error
	SendAndCollect(ctx context.Context, service protocol.ServiceID, payload []byte, window time.Duration) ([]protocol.Message, error)
}

// Config holds the bridge configuration.
type Config struct {
	// Listen is the address to bind, host:port. DefaultListen when empty.
	Listen string

	// Advertise announces the bridge over mDNS so LAN clients can find
	// it without configuration.
	Advertise bool

	// LogLevel is passed to logging.Initialize. Empty defers to the
	// G2LINK_LOG_LEVEL environment variable.
	LogLevel string

	// Glasses is the session the bridge drives. Required.
	Glasses Glasses
}

// Server accepts WebSocket clients and relays their commands to one
// glasses session. Session events fan out to every connected client.
type Server struct {
	config   *Config
	glasses  Glasses
	upgrader websocket.Upgrader

	listener net.Listener
	httpSrv  *http.Server
	mdns     *zeroconf.Server

	mu      sync.Mutex
	clients map[*client]struct{}
	closing bool
	wg      sync.WaitGroup

	events chan Event
	done   chan struct{}

	// baseCtx is handed to session operations so Shutdown can interrupt
	// in-flight commands mid-settle.
	baseCtx context.Context
	cancel  context.CancelFunc

	shutdownOnce sync.Once
}

// client is one connected WebSocket peer.
type client struct {
	conn *websocket.Conn

	// writeMu serializes data writes; gorilla allows one concurrent
	// writer per connection.
	writeMu sync.Mutex

	closed chan struct{}
}

func (c *client) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// New builds a bridge server around a glasses session. Wire the session's
// OnEvent callback to HandleEvent so clients receive pushes.
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if config.Glasses == nil {
		return nil, errors.New("bridge config requires a glasses session")
	}
	if config.Listen == "" {
		config.Listen = DefaultListen
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  config,
		glasses: config.Glasses,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local web apps are the primary consumers; their Origin
			// header never matches the bridge's own host.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		events:  make(chan Event, eventBacklog),
		done:    make(chan struct{}),
		baseCtx: ctx,
		cancel:  cancel,
	}
	go s.broadcastLoop()
	return s, nil
}

// Start listens on the configured address and blocks until a shutdown
// signal or a fatal server error. SIGINT and SIGTERM trigger a graceful
// shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener

	logging.Info("bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("advertise", s.config.Advertise),
	)

	if s.config.Advertise {
		if err := s.registerMDNS(); err != nil {
			logging.Warn("mDNS registration failed", zap.Error(err))
		}
	}

	s.httpSrv = &http.Server{Handler: s}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-sigChan:
		logging.Info("shutdown signal received, stopping bridge")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting clients, closes the connected ones and waits
// for their handlers to finish. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		logging.Info("shutting down bridge")
		s.cancel()
		close(s.done)

		s.mu.Lock()
		s.closing = true
		conns := make([]*client, 0, len(s.clients))
		for c := range s.clients {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		if s.mdns != nil {
			s.mdns.Shutdown()
		}
		if s.httpSrv != nil {
			_ = s.httpSrv.Close()
		}
		for _, c := range conns {
			_ = c.conn.Close()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			logging.Info("all clients disconnected")
		case <-ctx.Done():
			logging.Warn("shutdown interrupted, abandoning client handlers")
		case <-time.After(shutdownTimeout):
			logging.Warn("shutdown timed out, abandoning client handlers")
		}

		logging.Sync()
	})
	return nil
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ServeHTTP upgrades one HTTP request and serves the resulting WebSocket
// until the client leaves. Exported so tests can mount the server on
// httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{conn: conn, closed: make(chan struct{})}
	if !s.addClient(c) {
		_ = conn.Close()
		return
	}
	go s.pingClient(c)
	s.handleClient(c)
}

// addClient registers a client unless the server is shutting down. The
// WaitGroup add happens under the same lock as the closing check so
// Shutdown's Wait can never race a fresh registration.
func (s *Server) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// handleClient runs one client's request loop. Requests execute in
// arrival order; a slow command blocks this client only.
func (s *Server) handleClient(c *client) {
	remoteAddr := c.conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "client_connected")

	defer func() {
		close(c.closed)
		_ = c.conn.Close()
		s.removeClient(c)
		s.wg.Done()
		logging.LogConnection(remoteAddr, "client_disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("client read failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(remoteAddr, "received", websocket.TextMessage, data)

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			resp := Response{Error: &ErrorInfo{Code: CodeParseError, Message: "invalid JSON"}}
			if err := c.send(resp); err != nil {
				return
			}
			continue
		}

		resp := s.dispatch(s.baseCtx, &req)
		if err := c.send(resp); err != nil {
			logging.Debug("client write failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

// pingClient keeps the connection alive; the pong handler in handleClient
// refreshes the read deadline.
func (s *Server) pingClient(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// dispatch runs one request against the session and builds its response.
func (s *Server) dispatch(ctx context.Context, req *Request) Response {
	switch req.Method {
	case MethodConnect:
		device, err := s.glasses.Connect(ctx)
		if err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, connectResult{OK: true, Device: device.Name})

	case MethodDisconnect:
		if err := s.glasses.Disconnect(); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodSetText:
		var p textParams
		if resp := decodeParams(req, &p); resp != nil {
			return *resp
		}
		if p.Text == "" {
			return errorResponse(req.ID, CodeInvalidParams, "text is required")
		}
		if err := s.glasses.SetText(ctx, p.Text); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodSetTeleprompter:
		var p teleprompterParams
		if resp := decodeParams(req, &p); resp != nil {
			return *resp
		}
		if p.Body == "" {
			return errorResponse(req.ID, CodeInvalidParams, "body is required")
		}
		if err := s.glasses.SetTeleprompter(ctx, p.Title, p.Body); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodStartNavigation:
		if err := s.glasses.StartNavigation(ctx); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodSetNavigation:
		var p NavigationParams
		if resp := decodeParams(req, &p); resp != nil {
			return *resp
		}
		info := glasses.NavigationInfo{
			DirectionIndex:    p.Direction,
			Distance:          p.Distance,
			Road:              p.Road,
			TravelTime:        p.SpendTime,
			RemainingDistance: p.RemainDistance,
			ArrivalTime:       p.ETA,
			Speed:             p.Speed,
		}
		if err := s.glasses.SetNavigation(ctx, info); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodStopNavigation:
		if err := s.glasses.StopNavigation(ctx); err != nil {
			return sessionError(req.ID, err)
		}
		return resultResponse(req.ID, okResult{OK: true})

	case MethodSendRaw:
		return s.handleSendRaw(ctx, req)

	case MethodGetStatus:
		return resultResponse(req.ID, Status{
			Connected: s.glasses.Connected(),
			Device:    s.glasses.Device().Name,
		})

	default:
		return errorResponse(req.ID, CodeUnknownMethod, fmt.Sprintf("unknown method %q", req.Method))
	}
}

// handleSendRaw frames an arbitrary payload, writes it and returns every
// frame the glasses sent back within the wait window.
func (s *Server) handleSendRaw(ctx context.Context, req *Request) Response {
	var p rawParams
	if resp := decodeParams(req, &p); resp != nil {
		return *resp
	}
	if p.SvcHi == nil || p.SvcLo == nil {
		return errorResponse(req.ID, CodeInvalidParams, "svcHi and svcLo are required")
	}
	if *p.SvcHi < 0 || *p.SvcHi > 0xFF || *p.SvcLo < 0 || *p.SvcLo > 0xFF {
		return errorResponse(req.ID, CodeInvalidParams, "svcHi and svcLo must be single bytes")
	}
	payload, err := hex.DecodeString(p.Payload)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("payload is not valid hex: %v", err))
	}

	window := time.Duration(p.Wait * float64(time.Second))
	if window > maxResponseWindow {
		window = maxResponseWindow
	}

	service := protocol.NewServiceID(byte(*p.SvcHi), byte(*p.SvcLo))
	msgs, err := s.glasses.SendAndCollect(ctx, service, payload, window)
	if err != nil {
		return sessionError(req.ID, err)
	}

	responses := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		responses = append(responses, messageWire(msg)...)
	}
	return resultResponse(req.ID, rawResult{OK: true, Responses: responses})
}

// HandleEvent forwards one session event to every connected client. Wire
// it as the session's OnEvent callback. It never blocks: when the
// broadcast queue is full the event is dropped.
func (s *Server) HandleEvent(ev glasses.Event) {
	switch ev.Kind {
	case glasses.EventConnected:
		s.enqueue(EventConnected, ConnectedData{Device: ev.Device})
	case glasses.EventDisconnected:
		s.enqueue(EventDisconnected, DisconnectedData{Device: ev.Device, Reason: ev.Reason})
	case glasses.EventResponse:
		for _, raw := range messageWire(ev.Message) {
			s.enqueue(EventResponse, ResponseData{Raw: raw})
		}
	}
}

func (s *Server) enqueue(name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Error("encoding event", zap.String("event", name), zap.Error(err))
		return
	}
	select {
	case s.events <- Event{Event: name, Data: payload}:
	default:
		logging.Warn("event queue full, dropping event", zap.String("event", name))
	}
}

// broadcastLoop fans queued events out to clients in arrival order.
func (s *Server) broadcastLoop() {
	for {
		select {
		case ev := <-s.events:
			s.broadcast(ev)
		case <-s.done:
			return
		}
	}
}

func (s *Server) broadcast(ev Event) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(ev); err != nil {
			logging.Debug("dropping client after failed event write",
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
				zap.Error(err),
			)
			_ = c.conn.Close()
		}
	}
}

// registerMDNS announces the bridge as a _g2link._tcp service so other
// machines can find it without configuration.
func (s *Server) registerMDNS() error {
	_, portStr, err := net.SplitHostPort(s.listener.Addr().String())
	if err != nil {
		return fmt.Errorf("parsing listen address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("parsing listen port: %w", err)
	}

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "g2link-bridge"
	}

	mdns, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, port,
		[]string{"version=" + version.Version}, nil)
	if err != nil {
		return err
	}
	s.mdns = mdns

	logging.Info("bridge advertised over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return nil
}

// decodeParams unmarshals req.Params into out, returning a ready error
// response when the params are malformed and nil on success.
func decodeParams(req *Request, out any) *Response {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, out); err != nil {
		resp := errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("decoding params: %v", err))
		return &resp
	}
	return nil
}

func resultResponse(id string, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(id, CodeInternal, fmt.Sprintf("encoding result: %v", err))
	}
	return Response{ID: id, Result: data}
}

func errorResponse(id, code, message string) Response {
	return Response{ID: id, Error: &ErrorInfo{Code: code, Message: message}}
}

// sessionError maps a session failure onto its wire code.
func sessionError(id string, err error) Response {
	return errorResponse(id, errorCode(err), err.Error())
}

// errorCode buckets session errors into wire codes. Validation failures
// are parameter problems from the client's point of view; scan, link and
// timeout failures all surface as BLE errors.
func errorCode(err error) string {
	switch {
	case glasses.IsNotConnectedError(err):
		return CodeNotConnected
	case glasses.IsValidationError(err):
		return CodeInvalidParams
	case glasses.IsTransportError(err), glasses.IsDiscoveryError(err), glasses.IsTimeoutError(err):
		return CodeBLEError
	default:
		return CodeInternal
	}
}
