package glasses

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kordwall/g2link/internal/logging"
	"github.com/kordwall/g2link/internal/protocol"
)

// Session defaults.
const (
	// DefaultScanTimeout bounds BLE discovery when Config leaves it unset.
	DefaultScanTimeout = 10 * time.Second

	// DefaultResponseWindow is how long SendAndCollect listens for
	// replies when the caller does not pick a window.
	DefaultResponseWindow = time.Second
)

// Command pacing. These are the shortest settle delays that rendered
// reliably against firmware 1.6.2; shaving them makes the glasses drop
// or garble commands.
const (
	delayConversateConfig  = 300 * time.Millisecond
	delayTranscriptionOpen = 300 * time.Millisecond
	delayTranscriptionDone = 500 * time.Millisecond
	delayDisplayConfig     = 300 * time.Millisecond
	delayTeleprompterInit  = 500 * time.Millisecond
	delayTeleprompterPage  = 50 * time.Millisecond
	delayTimeSync          = 100 * time.Millisecond
	delayNavigationStart   = 500 * time.Millisecond
	delayNavigationUpdate  = 100 * time.Millisecond
	delayNavigationExit    = 300 * time.Millisecond
	delayDashboardStep     = 200 * time.Millisecond
)

// teleprompterMarkerAfter is how many pages stream before the position
// marker. Pages past this point upload in the background while the
// glasses already scroll the head of the script.
const teleprompterMarkerAfter = 10

// maxCollectorMessages bounds how many replies one collection window
// retains. A notification burst past the cap is dropped, not buffered.
const maxCollectorMessages = 128

// Config assembles a Session.
type Config struct {
	// Transport is the BLE link. Required.
	Transport Transport

	// OnEvent receives lifecycle and response events. Optional.
	OnEvent func(Event)

	// ScanTimeout bounds discovery. DefaultScanTimeout when zero.
	ScanTimeout time.Duration

	// ResponseWindow is the default SendAndCollect window.
	// DefaultResponseWindow when zero.
	ResponseWindow time.Duration

	// AuthPacketInterval overrides the delay after each handshake frame.
	// protocol.AuthPacketInterval when zero.
	AuthPacketInterval time.Duration

	// AuthSettleDelay overrides the wait after the final handshake frame.
	// protocol.AuthSettleDelay when zero.
	AuthSettleDelay time.Duration
}

// Session owns one glasses connection: the lifecycle state machine, the
// sequence and message-id counters, fragment reassembly and response
// collection. One mutex serializes every command, settle delays
// included, because the glasses silently drop interleaved writes.
type Session struct {
	mu                 sync.Mutex
	transport          Transport
	scanTimeout        time.Duration
	responseWindow     time.Duration
	authPacketInterval time.Duration
	authSettleDelay    time.Duration

	state  State
	device Device
	seq    byte
	msgID  uint64

	// notifyMu guards the inbound path so notifications keep flowing
	// while a command holds mu through its settle delay.
	notifyMu   sync.Mutex
	reasm      *protocol.Reassembler
	collectors map[*collector]struct{}

	// eventMu guards onEvent; SetOnEvent can race emit on the
	// notification goroutine.
	eventMu sync.RWMutex
	onEvent func(Event)

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewSession wires a session around a transport. The session starts
// disconnected; call Connect to attach.
func NewSession(cfg Config) *Session {
	s := &Session{
		transport:          cfg.Transport,
		onEvent:            cfg.OnEvent,
		scanTimeout:        cfg.ScanTimeout,
		responseWindow:     cfg.ResponseWindow,
		authPacketInterval: cfg.AuthPacketInterval,
		authSettleDelay:    cfg.AuthSettleDelay,
		state:              StateDisconnected,
		seq:                protocol.FirstSequenceAfterAuth,
		msgID:              protocol.FirstMessageIDAfterAuth,
		reasm:              protocol.NewReassembler(0),
		collectors:         make(map[*collector]struct{}),
		now:                time.Now,
		sleep:              sleepCtx,
	}
	if s.scanTimeout <= 0 {
		s.scanTimeout = DefaultScanTimeout
	}
	if s.responseWindow <= 0 {
		s.responseWindow = DefaultResponseWindow
	}
	if s.authPacketInterval <= 0 {
		s.authPacketInterval = protocol.AuthPacketInterval
	}
	if s.authSettleDelay <= 0 {
		s.authSettleDelay = protocol.AuthSettleDelay
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session is ready for commands.
func (s *Session) Connected() bool {
	return s.State() == StateReady
}

// Device returns the connected device, zero when disconnected.
func (s *Session) Device() Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// AllocateIDs hands out the next sequence and message-id pair. The
// sequence wraps as a byte; message ids keep counting.
func (s *Session) AllocateIDs() (byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked()
}

func (s *Session) allocateLocked() (byte, uint64) {
	seq, id := s.seq, s.msgID
	s.seq++
	s.msgID++
	return seq, id
}

// Scan discovers advertising glasses without attaching to any of them.
// The session state is untouched.
func (s *Session) Scan(ctx context.Context) ([]Device, error) {
	s.mu.Lock()
	timeout := s.scanTimeout
	s.mu.Unlock()

	logging.Info("scanning for glasses", zap.Duration("timeout", timeout))
	devices, err := s.transport.Discover(ctx, timeout)
	if err != nil {
		return nil, NewTransportError("scan failed", err)
	}
	return devices, nil
}

// Connect scans for glasses, attaches and replays the pairing handshake.
// Already-ready sessions return their device without touching the link.
//
// The glasses advertise as G2_<num>_L_<id> and G2_<num>_R_<id>; the left
// arm hosts the link, so it wins when both sides are visible.
func (s *Session) Connect(ctx context.Context) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReady {
		return s.device, nil
	}

	s.state = StateConnecting
	logging.Info("scanning for glasses", zap.Duration("timeout", s.scanTimeout))
	devices, err := s.transport.Discover(ctx, s.scanTimeout)
	if err != nil {
		s.state = StateDisconnected
		return Device{}, NewTransportError("scan failed", err)
	}

	device, ok := pickDevice(devices)
	if !ok {
		s.state = StateDisconnected
		return Device{}, NewDiscoveryError("no G2 glasses found")
	}

	return s.attachLocked(ctx, device)
}

// ConnectTo attaches to a specific device from an earlier Scan, skipping
// discovery. Already-ready sessions return their device unchanged.
func (s *Session) ConnectTo(ctx context.Context, device Device) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReady {
		return s.device, nil
	}

	s.state = StateConnecting
	return s.attachLocked(ctx, device)
}

// attachLocked opens the link and runs the handshake. Callers hold mu and
// have already set StateConnecting.
func (s *Session) attachLocked(ctx context.Context, device Device) (Device, error) {
	logging.LogConnection(device.Name, "connecting")
	if err := s.transport.Connect(ctx, device, s.handleNotify, s.handleTransportDisconnect); err != nil {
		s.state = StateDisconnected
		return Device{}, NewTransportError("connect failed", err)
	}
	s.device = device
	s.state = StateAuthenticating

	if err := s.authenticateLocked(ctx); err != nil {
		_ = s.transport.Disconnect()
		s.resetLocked()
		return Device{}, err
	}

	s.seq = protocol.FirstSequenceAfterAuth
	s.msgID = protocol.FirstMessageIDAfterAuth
	s.state = StateReady

	logging.LogConnection(device.Name, "connected")
	s.emit(Event{Kind: EventConnected, Device: device.Name})
	return device, nil
}

// pickDevice keeps the G2 advertisements and prefers the left arm.
func pickDevice(devices []Device) (Device, bool) {
	var pick Device
	var found bool
	for _, d := range devices {
		if !strings.Contains(d.Name, "G2") {
			continue
		}
		if !found || (d.Left() && !pick.Left()) {
			pick = d
			found = true
		}
	}
	return pick, found
}

// authenticateLocked replays the seven-packet handshake the vendor app
// performs after attaching, then waits for the firmware to settle.
func (s *Session) authenticateLocked(ctx context.Context) error {
	frames, err := protocol.BuildAuthSequence(s.now().Unix())
	if err != nil {
		return fmt.Errorf("building handshake: %w", err)
	}
	for i, frame := range frames {
		if err := s.transport.Write(ctx, frame); err != nil {
			return NewTransportError(fmt.Sprintf("handshake write %d/%d failed", i+1, len(frames)), err)
		}
		if err := s.sleep(ctx, s.authPacketInterval); err != nil {
			return NewTimeoutError("handshake interrupted", err)
		}
	}
	if err := s.sleep(ctx, s.authSettleDelay); err != nil {
		return NewTimeoutError("handshake interrupted", err)
	}
	return nil
}

// Disconnect tears the link down. Calling it while disconnected is a
// no-op.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return nil
	}
	name := s.device.Name
	err := s.transport.Disconnect()
	s.resetLocked()

	logging.LogConnection(name, "disconnected")
	s.emit(Event{Kind: EventDisconnected, Device: name, Reason: "user"})
	if err != nil {
		return NewTransportError("disconnect failed", err)
	}
	return nil
}

// resetLocked returns the session to its cold state. Callers hold mu.
func (s *Session) resetLocked() {
	s.state = StateDisconnected
	s.device = Device{}
	s.seq = protocol.FirstSequenceAfterAuth
	s.msgID = protocol.FirstMessageIDAfterAuth

	s.notifyMu.Lock()
	s.reasm.Reset()
	s.notifyMu.Unlock()
}

// handleTransportDisconnect runs on the transport's goroutine when the
// link drops underneath us.
func (s *Session) handleTransportDisconnect(cause error) {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	name := s.device.Name
	s.resetLocked()
	s.mu.Unlock()

	logging.Warn("connection lost", zap.String("device", name), zap.Error(cause))
	s.emit(Event{Kind: EventDisconnected, Device: name, Reason: "ble_disconnect"})
}

// handleNotify runs on the transport's notification goroutine. Corrupt
// frames are logged and dropped; everything that reassembles cleanly is
// classified, fanned out to open collectors and emitted as an event.
func (s *Session) handleNotify(data []byte) {
	frame, err := protocol.ParseFrame(data)
	if err != nil {
		logging.Debug("dropping corrupt frame", zap.Int("len", len(data)), zap.Error(err))
		return
	}
	logging.LogFrame("rx", frame.Service.Hi(), frame.Service.Lo(), frame.Sequence, data)

	s.notifyMu.Lock()
	complete := s.reasm.Ingest(frame)
	if complete == nil {
		s.notifyMu.Unlock()
		return
	}
	msg := protocol.Classify(complete)
	for c := range s.collectors {
		c.add(msg)
	}
	s.notifyMu.Unlock()

	s.emit(Event{Kind: EventResponse, Message: msg})
}

// SetOnEvent replaces the event callback. Passing nil silences events.
// Consumers built after the session, like the bridge server, install
// their handler here once they exist.
func (s *Session) SetOnEvent(fn func(Event)) {
	s.eventMu.Lock()
	s.onEvent = fn
	s.eventMu.Unlock()
}

func (s *Session) emit(ev Event) {
	s.eventMu.RLock()
	fn := s.onEvent
	s.eventMu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

// collector accumulates inbound messages for one collection window.
type collector struct {
	msgs []protocol.Message
}

func (c *collector) add(msg protocol.Message) {
	if len(c.msgs) >= maxCollectorMessages {
		return
	}
	c.msgs = append(c.msgs, msg)
}

func (s *Session) openCollector() *collector {
	c := &collector{}
	s.notifyMu.Lock()
	s.collectors[c] = struct{}{}
	s.notifyMu.Unlock()
	return c
}

func (s *Session) closeCollector(c *collector) []protocol.Message {
	s.notifyMu.Lock()
	delete(s.collectors, c)
	msgs := c.msgs
	s.notifyMu.Unlock()
	return msgs
}

func (s *Session) requireReadyLocked(operation string) error {
	if s.state != StateReady {
		return NewNotConnectedError(operation)
	}
	return nil
}

// writeFrame frames a payload under one sequence number and writes it,
// fragmenting when the payload exceeds a single frame.
func (s *Session) writeFrame(ctx context.Context, seq byte, service protocol.ServiceID, payload []byte) error {
	var frames [][]byte
	if len(payload) > protocol.MaxFramePayload {
		fragmented, err := protocol.BuildFragmentedFrames(seq, service, payload, protocol.DefaultMaxFragmentPayload)
		if err != nil {
			return NewValidationError(fmt.Sprintf("framing payload: %v", err))
		}
		frames = fragmented
	} else {
		frame, err := protocol.BuildFrame(seq, service, payload)
		if err != nil {
			return NewValidationError(fmt.Sprintf("framing payload: %v", err))
		}
		frames = [][]byte{frame}
	}
	for _, frame := range frames {
		logging.LogFrame("tx", service.Hi(), service.Lo(), seq, frame)
		if err := s.transport.Write(ctx, frame); err != nil {
			return NewTransportError("write failed", err)
		}
	}
	return nil
}

// stepLocked allocates an id pair, builds and writes one command, then
// waits out its settle delay. Callers hold mu.
func (s *Session) stepLocked(ctx context.Context, service protocol.ServiceID, build func(msgID uint64) []byte, settle time.Duration) error {
	seq, msgID := s.allocateLocked()
	if err := s.writeFrame(ctx, seq, service, build(msgID)); err != nil {
		return err
	}
	if settle <= 0 {
		return nil
	}
	return s.sleep(ctx, settle)
}

// collectLocked is stepLocked with a collection window: every reply that
// arrives while the window runs is returned. The window always runs to
// completion because acks carry no message id, so elapsed time is the
// only correlation available. Callers hold mu.
func (s *Session) collectLocked(ctx context.Context, service protocol.ServiceID, build func(msgID uint64) []byte, window time.Duration) ([]protocol.Message, error) {
	seq, msgID := s.allocateLocked()
	c := s.openCollector()
	if err := s.writeFrame(ctx, seq, service, build(msgID)); err != nil {
		s.closeCollector(c)
		return nil, err
	}
	if err := s.sleep(ctx, window); err != nil {
		s.closeCollector(c)
		return nil, err
	}
	return s.closeCollector(c), nil
}

// Send frames a prebuilt payload and writes it without waiting for a
// reply. The payload's embedded message id is the caller's to manage;
// Send still consumes an id pair so the counters stay aligned with what
// the glasses expect.
func (s *Session) Send(ctx context.Context, service protocol.ServiceID, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("send"); err != nil {
		return err
	}
	seq, _ := s.allocateLocked()
	return s.writeFrame(ctx, seq, service, payload)
}

// SendAndCollect writes a prebuilt payload and returns everything the
// glasses said during the window. A zero window uses the session
// default.
func (s *Session) SendAndCollect(ctx context.Context, service protocol.ServiceID, payload []byte, window time.Duration) ([]protocol.Message, error) {
	if window <= 0 {
		window = s.responseWindow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("sendRaw"); err != nil {
		return nil, err
	}
	return s.collectLocked(ctx, service, func(uint64) []byte { return payload }, window)
}

// SetText pushes a block of text to the conversate screen. The
// open-clear-final sequence mirrors the vendor app; collapsing it leaves
// the previous text on screen.
func (s *Session) SetText(ctx context.Context, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setText"); err != nil {
		return err
	}

	if err := s.stepLocked(ctx, protocol.ServiceConversate, BuildConversateConfig, delayConversateConfig); err != nil {
		return err
	}
	if err := s.stepLocked(ctx, protocol.ServiceConversate, func(id uint64) []byte {
		return BuildTranscription(id, "", false)
	}, delayTranscriptionOpen); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceConversate, func(id uint64) []byte {
		return BuildTranscription(id, text, true)
	}, delayTranscriptionDone)
}

// SetTeleprompter renders a script on the teleprompter screen. The text
// is paginated to the glasses' fixed line grid and streamed page by
// page; the head of the script goes out before the position marker so
// the glasses can start scrolling while the tail uploads.
func (s *Session) SetTeleprompter(ctx context.Context, title, text string) error {
	if err := ValidateScript(title, text); err != nil {
		return err
	}
	pages := FormatTextPages(title, text)
	totalLines := CountRenderedLines(pages)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setTeleprompter"); err != nil {
		return err
	}

	if err := s.stepLocked(ctx, protocol.ServiceDisplayCfg, BuildDisplayConfig, delayDisplayConfig); err != nil {
		return err
	}
	if err := s.stepLocked(ctx, protocol.ServiceTeleprompter, func(id uint64) []byte {
		return BuildTeleprompterInit(id, totalLines)
	}, delayTeleprompterInit); err != nil {
		return err
	}

	head := min(len(pages), teleprompterMarkerAfter)
	for i := 0; i < head; i++ {
		if err := s.sendPageLocked(ctx, i+1, pages[i]); err != nil {
			return err
		}
	}
	if err := s.stepLocked(ctx, protocol.ServiceTeleprompter, BuildTeleprompterMarker, delayTeleprompterPage); err != nil {
		return err
	}
	for i := head; i < len(pages); i++ {
		if err := s.sendPageLocked(ctx, i+1, pages[i]); err != nil {
			return err
		}
	}
	return s.stepLocked(ctx, protocol.ServiceSystem, BuildTimeSync, delayTimeSync)
}

func (s *Session) sendPageLocked(ctx context.Context, pageNum int, page string) error {
	return s.stepLocked(ctx, protocol.ServiceTeleprompter, func(id uint64) []byte {
		return BuildTeleprompterPage(id, pageNum, page)
	}, delayTeleprompterPage)
}

// StartNavigation opens the navigation screen.
func (s *Session) StartNavigation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("startNavigation"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNavigation, BuildNavigationStart, delayNavigationStart)
}

// SetNavigation updates the turn-by-turn panel.
func (s *Session) SetNavigation(ctx context.Context, info NavigationInfo) error {
	if err := ValidateNavigationInfo(info); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setNavigation"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNavigation, func(id uint64) []byte {
		return BuildNavigationInfo(id, info)
	}, delayNavigationUpdate)
}

// NavigationHeartbeat keeps the navigation screen alive. The firmware
// leaves navigation after a few seconds of silence, so callers stream
// this on a timer between updates.
func (s *Session) NavigationHeartbeat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("navigationHeartbeat"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNavigation, BuildNavigationHeartbeat, 0)
}

// StopNavigation leaves the navigation screen.
func (s *Session) StopNavigation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("stopNavigation"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNavigation, BuildNavigationExit, delayNavigationExit)
}

// ShowDashboard walks the glasses through the dashboard bring-up the
// vendor app performs on launch: transcribe init, assistant config,
// onboarding complete, then a display wake.
func (s *Session) ShowDashboard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("showDashboard"); err != nil {
		return err
	}

	if err := s.stepLocked(ctx, protocol.ServiceTranscribe, BuildTranscribeInit, delayDashboardStep); err != nil {
		return err
	}
	if err := s.stepLocked(ctx, protocol.ServiceEvenAI, func(id uint64) []byte {
		return BuildAIConfig(id, 0, DefaultStreamSpeed)
	}, delayDashboardStep); err != nil {
		return err
	}
	if err := s.stepLocked(ctx, protocol.ServiceOnboarding, BuildOnboardingComplete, delayDashboardStep); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNotification, BuildDisplayWake, delayDashboardStep)
}

// SetDashboardLayout reorders the dashboard status bar and widget
// carousel.
func (s *Session) SetDashboardLayout(ctx context.Context, layout DashboardLayout) error {
	if err := ValidateDashboardLayout(layout); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setDashboardLayout"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceDashboard, func(id uint64) []byte {
		return BuildDashboardLayout(id, layout)
	}, delayDashboardStep)
}

// SendCalendar replaces the schedule widget's entries.
func (s *Session) SendCalendar(ctx context.Context, entries []CalendarEntry) error {
	for i, entry := range entries {
		if err := ValidateCalendarEntry(len(entries), i+1, entry); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("sendCalendar"); err != nil {
		return err
	}
	for i, entry := range entries {
		if err := s.stepLocked(ctx, protocol.ServiceDashboard, func(id uint64) []byte {
			return BuildCalendarEntry(id, len(entries), i+1, entry)
		}, delayDashboardStep); err != nil {
			return err
		}
	}
	return nil
}

// ClearStock blanks the stock widget.
func (s *Session) ClearStock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("clearStock"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceDashboard, BuildStockClear, delayDashboardStep)
}

// SetNotifications configures how phone notifications reach the glasses.
func (s *Session) SetNotifications(ctx context.Context, settings NotificationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setNotifications"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNotification, func(id uint64) []byte {
		return BuildNotificationControl(id, settings)
	}, 0)
}

// SwitchPage jumps the glasses to a system screen.
func (s *Session) SwitchPage(ctx context.Context, page Page) error {
	if err := ValidatePage(page); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("switchPage"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceSystemApp, func(id uint64) []byte {
		return BuildPageSwitch(id, page)
	}, 0)
}

// WakeDisplay lights the display without changing screens.
func (s *Session) WakeDisplay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("wakeDisplay"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceNotification, BuildDisplayWake, 0)
}

// SyncTime nudges the glasses' clock display.
func (s *Session) SyncTime(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("syncTime"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceSystem, BuildTimeSync, 0)
}

// SetAIStatus drives the assistant overlay through its wake, enter and
// exit states.
func (s *Session) SetAIStatus(ctx context.Context, status AIStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setAIStatus"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceEvenAI, func(id uint64) []byte {
		return BuildAIControl(id, status)
	}, 0)
}

// SendAIReply streams assistant output to the overlay.
func (s *Session) SendAIReply(ctx context.Context, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("sendAIReply"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceEvenAI, func(id uint64) []byte {
		return BuildAIReply(id, text)
	}, 0)
}

// TriggerSkill fires a glasses-side skill such as brightness or silent
// mode. param and text travel only when nonzero, matching the vendor
// app's encoding.
func (s *Session) TriggerSkill(ctx context.Context, skill Skill, param uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("triggerSkill"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceEvenAI, func(id uint64) []byte {
		return BuildAISkill(id, skill, param, text)
	}, 0)
}

// SendAIEvent reports an overlay event such as scroll or stream
// completion.
func (s *Session) SendAIEvent(ctx context.Context, event AIEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("sendAIEvent"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceEvenAI, func(id uint64) []byte {
		return BuildAIEvent(id, event)
	}, 0)
}

// SetLanguage selects the transcription language by its firmware index.
func (s *Session) SetLanguage(ctx context.Context, index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("setLanguage"); err != nil {
		return err
	}
	return s.stepLocked(ctx, protocol.ServiceModuleCfg, func(id uint64) []byte {
		return BuildLanguageConfig(id, index)
	}, 0)
}

// QueryAutoClose asks whether the glasses auto-close the current screen
// and returns whatever they answered within the response window.
func (s *Session) QueryAutoClose(ctx context.Context) ([]protocol.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReadyLocked("queryAutoClose"); err != nil {
		return nil, err
	}
	return s.collectLocked(ctx, protocol.ServiceModuleCfg, BuildAutoCloseQuery, s.responseWindow)
}

// sleepCtx waits out a delay unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
