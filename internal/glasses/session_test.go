package glasses

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kordwall/g2link/internal/protocol"
)

// fakeTransport is a scriptable in-memory Transport. Writes are recorded;
// notify and dropLink inject inbound traffic the way a BLE stack would.
type fakeTransport struct {
	mu           sync.Mutex
	devices      []Device
	discoverErr  error
	connectErr   error
	writeErr     error
	writes       [][]byte
	connected    bool
	onNotify     func([]byte)
	onDisconnect func(error)
}

func (f *fakeTransport) Discover(ctx context.Context, timeout time.Duration) ([]Device, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.devices, nil
}

func (f *fakeTransport) Connect(ctx context.Context, device Device, onNotify func([]byte), onDisconnect func(error)) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.onNotify = onNotify
	f.onDisconnect = onDisconnect
	return nil
}

func (f *fakeTransport) Write(ctx context.Context, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), frame...))
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeTransport) notify(data []byte) {
	f.mu.Lock()
	handler := f.onNotify
	f.mu.Unlock()
	handler(data)
}

func (f *fakeTransport) dropLink(cause error) {
	f.mu.Lock()
	handler := f.onDisconnect
	f.connected = false
	f.mu.Unlock()
	handler(cause)
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeTransport) clearWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

func (f *fakeTransport) isConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// frames parses every recorded write.
func (f *fakeTransport) frames(t *testing.T) []*protocol.Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*protocol.Frame, len(f.writes))
	for i, w := range f.writes {
		frame, err := protocol.ParseFrame(w)
		if err != nil {
			t.Fatalf("write %d does not parse: %v", i, err)
		}
		out[i] = frame
	}
	return out
}

// harness bundles a session with recorders for events and settle delays.
// The sleep hook returns immediately so tests never wait out real pacing.
type harness struct {
	transport *fakeTransport
	session   *Session

	mu     sync.Mutex
	events []Event
	sleeps []time.Duration
}

var testDevices = []Device{
	{Name: "G2_45_R_C4E7", Address: "AA:BB:CC:DD:EE:02", RSSI: -52},
	{Name: "G2_45_L_C4E7", Address: "AA:BB:CC:DD:EE:01", RSSI: -48},
}

func newHarness(devices ...Device) *harness {
	if devices == nil {
		devices = testDevices
	}
	h := &harness{transport: &fakeTransport{devices: devices}}
	h.session = NewSession(Config{
		Transport: h.transport,
		OnEvent: func(ev Event) {
			h.mu.Lock()
			h.events = append(h.events, ev)
			h.mu.Unlock()
		},
	})
	h.session.sleep = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.mu.Lock()
		h.sleeps = append(h.sleeps, d)
		h.mu.Unlock()
		return nil
	}
	h.session.now = func() time.Time { return time.Unix(1755000000, 0) }
	return h
}

func (h *harness) connect(t *testing.T) Device {
	t.Helper()
	device, err := h.session.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return device
}

// reset clears recorded writes, events and sleeps, typically right after
// connecting so a test sees only its own operation.
func (h *harness) reset() {
	h.transport.clearWrites()
	h.mu.Lock()
	h.events = nil
	h.sleeps = nil
	h.mu.Unlock()
}

func (h *harness) recordedEvents() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

func (h *harness) recordedSleeps() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.sleeps...)
}

// ackFrame encodes a success ack the way the glasses answer commands.
func ackFrame(t *testing.T, seq byte, service protocol.ServiceID) []byte {
	t.Helper()
	f := &protocol.Frame{
		Type:      protocol.AckSuccess,
		Sequence:  seq,
		FragTotal: 1,
		FragIndex: 1,
		Service:   service,
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}

// commandID returns field 1 of a command payload.
func commandID(t *testing.T, frame *protocol.Frame) uint64 {
	t.Helper()
	fields, err := protocol.DecodeFields(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeFields() error = %v", err)
	}
	cmd, ok := protocol.FieldByNumber(fields, 1)
	if !ok {
		t.Fatalf("payload %x has no command field", frame.Payload)
	}
	return cmd.Uint
}

func TestConnectPerformsHandshake(t *testing.T) {
	h := newHarness()

	device := h.connect(t)

	if device.Name != "G2_45_L_C4E7" {
		t.Errorf("connected to %q, want the left arm", device.Name)
	}
	if got := h.session.State(); got != StateReady {
		t.Errorf("state = %v, want %v", got, StateReady)
	}
	if !h.session.Connected() {
		t.Error("Connected() = false after handshake")
	}

	frames := h.transport.frames(t)
	if len(frames) != protocol.AuthFrameCount {
		t.Fatalf("wrote %d frames, want %d handshake frames", len(frames), protocol.AuthFrameCount)
	}
	for i, frame := range frames {
		if frame.Type != protocol.FrameTypeCommand {
			t.Errorf("handshake frame %d type = 0x%02x, want 0x%02x", i, frame.Type, protocol.FrameTypeCommand)
		}
		if int(frame.Sequence) != i+1 {
			t.Errorf("handshake frame %d sequence = %d, want %d", i, frame.Sequence, i+1)
		}
	}

	// The handshake paces every packet and then waits for the firmware
	sleeps := h.recordedSleeps()
	if len(sleeps) != protocol.AuthFrameCount+1 {
		t.Fatalf("got %d settle delays, want %d", len(sleeps), protocol.AuthFrameCount+1)
	}
	for i := 0; i < protocol.AuthFrameCount; i++ {
		if sleeps[i] != protocol.AuthPacketInterval {
			t.Errorf("delay %d = %v, want %v", i, sleeps[i], protocol.AuthPacketInterval)
		}
	}
	if sleeps[protocol.AuthFrameCount] != protocol.AuthSettleDelay {
		t.Errorf("settle delay = %v, want %v", sleeps[protocol.AuthFrameCount], protocol.AuthSettleDelay)
	}

	events := h.recordedEvents()
	if len(events) != 1 || events[0].Kind != EventConnected {
		t.Fatalf("events = %+v, want one connected event", events)
	}
	if events[0].Device != "G2_45_L_C4E7" {
		t.Errorf("event device = %q", events[0].Device)
	}

	// The first command continues where the handshake left off
	seq, id := h.session.AllocateIDs()
	if seq != protocol.FirstSequenceAfterAuth || id != protocol.FirstMessageIDAfterAuth {
		t.Errorf("first ids = (0x%02x, 0x%02x), want (0x%02x, 0x%02x)",
			seq, id, protocol.FirstSequenceAfterAuth, protocol.FirstMessageIDAfterAuth)
	}
}

func TestConnectHonorsPacingOverrides(t *testing.T) {
	transport := &fakeTransport{devices: testDevices}
	session := NewSession(Config{
		Transport:          transport,
		AuthPacketInterval: 150 * time.Millisecond,
		AuthSettleDelay:    700 * time.Millisecond,
	})
	var sleeps []time.Duration
	session.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	if _, err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if len(sleeps) != protocol.AuthFrameCount+1 {
		t.Fatalf("got %d delays, want %d", len(sleeps), protocol.AuthFrameCount+1)
	}
	for i := 0; i < protocol.AuthFrameCount; i++ {
		if sleeps[i] != 150*time.Millisecond {
			t.Errorf("delay %d = %v, want the 150ms override", i, sleeps[i])
		}
	}
	if sleeps[protocol.AuthFrameCount] != 700*time.Millisecond {
		t.Errorf("settle delay = %v, want the 700ms override", sleeps[protocol.AuthFrameCount])
	}
}

func TestConnectWhenReadyIsNoOp(t *testing.T) {
	h := newHarness()
	first := h.connect(t)
	writes := h.transport.writeCount()

	second := h.connect(t)

	if second != first {
		t.Errorf("second Connect() = %+v, want %+v", second, first)
	}
	if h.transport.writeCount() != writes {
		t.Error("second Connect() wrote frames, want none")
	}
}

func TestConnectErrors(t *testing.T) {
	t.Run("no matching devices", func(t *testing.T) {
		h := newHarness(Device{Name: "SomeOtherDevice"})
		_, err := h.session.Connect(context.Background())
		if !IsDiscoveryError(err) {
			t.Errorf("error = %v, want discovery error", err)
		}
		if got := h.session.State(); got != StateDisconnected {
			t.Errorf("state = %v, want %v", got, StateDisconnected)
		}
	})

	t.Run("scan failure", func(t *testing.T) {
		h := newHarness()
		h.transport.discoverErr = errors.New("adapter off")
		_, err := h.session.Connect(context.Background())
		if !IsTransportError(err) {
			t.Errorf("error = %v, want transport error", err)
		}
	})

	t.Run("handshake write failure tears down", func(t *testing.T) {
		h := newHarness()
		h.transport.writeErr = errors.New("att write rejected")
		_, err := h.session.Connect(context.Background())
		if !IsTransportError(err) {
			t.Errorf("error = %v, want transport error", err)
		}
		if h.transport.isConnected() {
			t.Error("transport still connected after failed handshake")
		}
		if got := h.session.State(); got != StateDisconnected {
			t.Errorf("state = %v, want %v", got, StateDisconnected)
		}
	})
}

func TestScanListsDevicesWithoutAttaching(t *testing.T) {
	h := newHarness()

	devices, err := h.session.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(devices) != len(testDevices) {
		t.Fatalf("found %d devices, want %d", len(devices), len(testDevices))
	}
	if h.transport.isConnected() {
		t.Error("Scan() opened a link")
	}
	if got := h.session.State(); got != StateDisconnected {
		t.Errorf("state = %v, want %v", got, StateDisconnected)
	}

	h.transport.discoverErr = errors.New("adapter off")
	if _, err := h.session.Scan(context.Background()); !IsTransportError(err) {
		t.Errorf("error = %v, want transport error", err)
	}
}

func TestConnectToSkipsDiscovery(t *testing.T) {
	h := newHarness()
	h.transport.discoverErr = errors.New("should not scan")

	device, err := h.session.ConnectTo(context.Background(), testDevices[1])
	if err != nil {
		t.Fatalf("ConnectTo() error = %v", err)
	}
	if device.Name != "G2_45_L_C4E7" {
		t.Errorf("connected to %q, want the chosen device", device.Name)
	}
	if got := h.session.State(); got != StateReady {
		t.Errorf("state = %v, want %v", got, StateReady)
	}
	if got := h.transport.writeCount(); got != protocol.AuthFrameCount {
		t.Errorf("wrote %d frames, want the %d handshake frames", got, protocol.AuthFrameCount)
	}

	// Already ready: the second call returns the device untouched
	h.reset()
	again, err := h.session.ConnectTo(context.Background(), testDevices[0])
	if err != nil {
		t.Fatalf("second ConnectTo() error = %v", err)
	}
	if again != device {
		t.Errorf("second ConnectTo() = %+v, want %+v", again, device)
	}
	if h.transport.writeCount() != 0 {
		t.Error("second ConnectTo() wrote frames, want none")
	}
}

func TestSendBeforeConnect(t *testing.T) {
	h := newHarness()

	err := h.session.Send(context.Background(), protocol.ServiceConversate, []byte{0x08, 0x01})
	if !IsNotConnectedError(err) {
		t.Errorf("error = %v, want not connected", err)
	}
	if _, err := h.session.SendAndCollect(context.Background(), protocol.ServiceConversate, nil, 0); !IsNotConnectedError(err) {
		t.Errorf("SendAndCollect error = %v, want not connected", err)
	}
}

func TestOperationsRequireReadySession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	ops := []struct {
		name string
		call func() error
	}{
		{"SetText", func() error { return h.session.SetText(ctx, "hi") }},
		{"SetTeleprompter", func() error { return h.session.SetTeleprompter(ctx, "t", "body") }},
		{"StartNavigation", func() error { return h.session.StartNavigation(ctx) }},
		{"SetNavigation", func() error { return h.session.SetNavigation(ctx, NavigationInfo{}) }},
		{"NavigationHeartbeat", func() error { return h.session.NavigationHeartbeat(ctx) }},
		{"StopNavigation", func() error { return h.session.StopNavigation(ctx) }},
		{"ShowDashboard", func() error { return h.session.ShowDashboard(ctx) }},
		{"SetDashboardLayout", func() error { return h.session.SetDashboardLayout(ctx, DefaultDashboardLayout()) }},
		{"SendCalendar", func() error { return h.session.SendCalendar(ctx, []CalendarEntry{{Title: "t"}}) }},
		{"ClearStock", func() error { return h.session.ClearStock(ctx) }},
		{"SetNotifications", func() error { return h.session.SetNotifications(ctx, DefaultNotificationSettings()) }},
		{"SwitchPage", func() error { return h.session.SwitchPage(ctx, PageDashboard) }},
		{"WakeDisplay", func() error { return h.session.WakeDisplay(ctx) }},
		{"SyncTime", func() error { return h.session.SyncTime(ctx) }},
		{"SetAIStatus", func() error { return h.session.SetAIStatus(ctx, AIStatusEnter) }},
		{"SendAIReply", func() error { return h.session.SendAIReply(ctx, "hi") }},
		{"TriggerSkill", func() error { return h.session.TriggerSkill(ctx, SkillBrightness, 5, "") }},
		{"SendAIEvent", func() error { return h.session.SendAIEvent(ctx, AIEventScroll) }},
		{"SetLanguage", func() error { return h.session.SetLanguage(ctx, 0) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if err := op.call(); !IsNotConnectedError(err) {
				t.Errorf("error = %v, want not connected", err)
			}
		})
	}
	if _, err := h.session.QueryAutoClose(ctx); !IsNotConnectedError(err) {
		t.Errorf("QueryAutoClose error = %v, want not connected", err)
	}
}

func TestSequenceWrapsMessageIDDoesNot(t *testing.T) {
	h := newHarness()
	h.connect(t)

	var seq byte
	var id uint64
	for i := 0; i < 248; i++ {
		seq, id = h.session.AllocateIDs()
	}
	if seq != 0xFF {
		t.Errorf("248th sequence = 0x%02x, want 0xff", seq)
	}
	if id != protocol.FirstMessageIDAfterAuth+247 {
		t.Errorf("248th message id = %d, want %d", id, protocol.FirstMessageIDAfterAuth+247)
	}

	seq, id = h.session.AllocateIDs()
	if seq != 0x00 {
		t.Errorf("sequence after wrap = 0x%02x, want 0x00", seq)
	}
	if id != protocol.FirstMessageIDAfterAuth+248 {
		t.Errorf("message id after wrap = %d, want %d", id, protocol.FirstMessageIDAfterAuth+248)
	}
}

func TestAllocateIDsPairsStayAligned(t *testing.T) {
	h := newHarness()
	h.connect(t)

	const workers = 8
	const perWorker = 50

	type pair struct {
		seq byte
		id  uint64
	}
	results := make(chan pair, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				seq, id := h.session.AllocateIDs()
				results <- pair{seq, id}
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool)
	for p := range results {
		if seen[p.id] {
			t.Fatalf("message id %d handed out twice", p.id)
		}
		seen[p.id] = true

		// Both counters move in lockstep, so the sequence is always
		// derivable from the message id.
		wantSeq := protocol.FirstSequenceAfterAuth + byte(p.id-protocol.FirstMessageIDAfterAuth)
		if p.seq != wantSeq {
			t.Fatalf("id %d paired with seq 0x%02x, want 0x%02x", p.id, p.seq, wantSeq)
		}
	}
	if len(seen) != workers*perWorker {
		t.Errorf("got %d unique ids, want %d", len(seen), workers*perWorker)
	}
}

func TestSendFragmentsLargePayload(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	payload := bytes.Repeat([]byte{0x55}, 600)
	if err := h.session.Send(context.Background(), protocol.ServiceConversate, payload); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	frames := h.transport.frames(t)
	if len(frames) != 3 {
		t.Fatalf("wrote %d frames, want 3 fragments", len(frames))
	}
	var rebuilt []byte
	for i, frame := range frames {
		if frame.Sequence != frames[0].Sequence {
			t.Errorf("fragment %d sequence = 0x%02x, want 0x%02x", i, frame.Sequence, frames[0].Sequence)
		}
		if int(frame.FragTotal) != 3 || int(frame.FragIndex) != i+1 {
			t.Errorf("fragment %d = %d/%d, want %d/3", i, frame.FragIndex, frame.FragTotal, i+1)
		}
		rebuilt = append(rebuilt, frame.Payload...)
	}
	if !bytes.Equal(rebuilt, payload) {
		t.Error("fragments do not rebuild the original payload")
	}
}

func TestTransportDisconnectResetsSession(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	h.transport.dropLink(errors.New("connection supervision timeout"))

	if got := h.session.State(); got != StateDisconnected {
		t.Errorf("state = %v, want %v", got, StateDisconnected)
	}
	events := h.recordedEvents()
	if len(events) != 1 || events[0].Kind != EventDisconnected {
		t.Fatalf("events = %+v, want one disconnected event", events)
	}
	if events[0].Reason != "ble_disconnect" {
		t.Errorf("reason = %q, want %q", events[0].Reason, "ble_disconnect")
	}
	if events[0].Device != "G2_45_L_C4E7" {
		t.Errorf("event device = %q", events[0].Device)
	}

	if err := h.session.Send(context.Background(), protocol.ServiceConversate, nil); !IsNotConnectedError(err) {
		t.Errorf("Send after drop error = %v, want not connected", err)
	}

	// Reconnecting restarts the counters where the handshake leaves them
	h.connect(t)
	seq, id := h.session.AllocateIDs()
	if seq != protocol.FirstSequenceAfterAuth || id != protocol.FirstMessageIDAfterAuth {
		t.Errorf("ids after reconnect = (0x%02x, 0x%02x), want (0x%02x, 0x%02x)",
			seq, id, protocol.FirstSequenceAfterAuth, protocol.FirstMessageIDAfterAuth)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	if err := h.session.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if h.transport.isConnected() {
		t.Error("transport still connected")
	}
	if err := h.session.Disconnect(); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}

	events := h.recordedEvents()
	if len(events) != 1 || events[0].Kind != EventDisconnected {
		t.Fatalf("events = %+v, want exactly one disconnected event", events)
	}
	if events[0].Reason != "user" {
		t.Errorf("reason = %q, want %q", events[0].Reason, "user")
	}
}

func TestNotifyDeliversResponses(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	h.transport.notify(ackFrame(t, 0x08, protocol.ServiceConversate))

	events := h.recordedEvents()
	if len(events) != 1 || events[0].Kind != EventResponse {
		t.Fatalf("events = %+v, want one response event", events)
	}
	ack, ok := events[0].Message.(*protocol.AckMessage)
	if !ok {
		t.Fatalf("message = %T, want *protocol.AckMessage", events[0].Message)
	}
	if !ack.Success || ack.Sequence() != 0x08 {
		t.Errorf("ack = %+v, want success for seq 0x08", ack)
	}
}

func TestNotifyDropsCorruptFrames(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	frame := ackFrame(t, 0x08, protocol.ServiceConversate)
	frame[len(frame)-1] ^= 0xFF
	h.transport.notify(frame)

	if events := h.recordedEvents(); len(events) != 0 {
		t.Errorf("events = %+v, want none for a corrupt frame", events)
	}
}

func TestNotifyReassemblesFragments(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	full := protocol.AppendStringField(nil, 1, strings.Repeat("x", 260))
	half := len(full) / 2
	parts := [][]byte{full[:half], full[half:]}
	for i, part := range parts {
		f := &protocol.Frame{
			Type:      protocol.FrameTypeNotify,
			Sequence:  0x30,
			FragTotal: 2,
			FragIndex: byte(i + 1),
			Service:   protocol.ServiceConversate,
			Payload:   part,
		}
		data, err := f.Marshal()
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		h.transport.notify(data)
	}

	events := h.recordedEvents()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 after both fragments", len(events))
	}
	notify, ok := events[0].Message.(*protocol.NotifyMessage)
	if !ok {
		t.Fatalf("message = %T, want *protocol.NotifyMessage", events[0].Message)
	}
	text, found := protocol.FieldByNumber(notify.Fields, 1)
	if !found || len(text.Bytes) != 260 {
		t.Errorf("reassembled field = %d bytes, want 260", len(text.Bytes))
	}
}

func TestSendAndCollectGathersWindowReplies(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	// Deliver the reply while the collection window is open. The sleep
	// hook stands in for the firmware's turnaround time.
	h.session.sleep = func(ctx context.Context, d time.Duration) error {
		h.transport.notify(ackFrame(t, 0x08, protocol.ServiceSystem))
		return nil
	}

	msgs, err := h.session.SendAndCollect(context.Background(), protocol.ServiceSystem, []byte{0x08, 0x01}, 0)
	if err != nil {
		t.Fatalf("SendAndCollect() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("collected %d messages, want 1", len(msgs))
	}
	if _, ok := msgs[0].(*protocol.AckMessage); !ok {
		t.Errorf("collected %T, want *protocol.AckMessage", msgs[0])
	}

	// A reply landing between windows belongs to nobody
	h.transport.notify(ackFrame(t, 0x09, protocol.ServiceSystem))

	h.session.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	late, err := h.session.SendAndCollect(context.Background(), protocol.ServiceSystem, []byte{0x08, 0x02}, 0)
	if err != nil {
		t.Fatalf("second SendAndCollect() error = %v", err)
	}
	if len(late) != 0 {
		t.Errorf("collected %d stale messages, want 0", len(late))
	}
}

func TestSetTextWritesVendorSequence(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	if err := h.session.SetText(context.Background(), "Hello"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}

	frames := h.transport.frames(t)
	if len(frames) != 3 {
		t.Fatalf("wrote %d frames, want 3", len(frames))
	}
	for i, frame := range frames {
		if frame.Service != protocol.ServiceConversate {
			t.Errorf("frame %d service = %v, want %v", i, frame.Service, protocol.ServiceConversate)
		}
		if int(frame.Sequence) != int(protocol.FirstSequenceAfterAuth)+i {
			t.Errorf("frame %d sequence = 0x%02x", i, frame.Sequence)
		}
	}

	id := protocol.FirstMessageIDAfterAuth
	wantPayloads := [][]byte{
		BuildConversateConfig(id),
		BuildTranscription(id+1, "", false),
		BuildTranscription(id+2, "Hello", true),
	}
	for i, want := range wantPayloads {
		if !bytes.Equal(frames[i].Payload, want) {
			t.Errorf("frame %d payload = %x, want %x", i, frames[i].Payload, want)
		}
	}

	wantSleeps := []time.Duration{300 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}
	sleeps := h.recordedSleeps()
	if len(sleeps) != len(wantSleeps) {
		t.Fatalf("got %d settle delays, want %d", len(sleeps), len(wantSleeps))
	}
	for i, want := range wantSleeps {
		if sleeps[i] != want {
			t.Errorf("delay %d = %v, want %v", i, sleeps[i], want)
		}
	}
}

func TestSetTeleprompterStreamsPages(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	if err := h.session.SetTeleprompter(context.Background(), "Demo", "Hello world"); err != nil {
		t.Fatalf("SetTeleprompter() error = %v", err)
	}

	// display config, init, ten pages, marker, four pages, time sync
	frames := h.transport.frames(t)
	wantFrames := 2 + TeleprompterPages + 1 + 1
	if len(frames) != wantFrames {
		t.Fatalf("wrote %d frames, want %d", len(frames), wantFrames)
	}

	if frames[0].Service != protocol.ServiceDisplayCfg {
		t.Errorf("frame 0 service = %v, want display config", frames[0].Service)
	}
	if got := commandID(t, frames[1]); got != 1 || frames[1].Service != protocol.ServiceTeleprompter {
		t.Errorf("frame 1 = cmd %d on %v, want init on teleprompter", got, frames[1].Service)
	}

	// Pages carry command 3 with 1-based numbering; the marker (0xFF)
	// splits them after page ten.
	pageNum := 0
	for i := 2; i < wantFrames-1; i++ {
		cmd := commandID(t, frames[i])
		if i == 12 {
			if cmd != 0xFF {
				t.Errorf("frame %d cmd = %d, want the 0xff marker", i, cmd)
			}
			continue
		}
		pageNum++
		if cmd != 3 {
			t.Errorf("frame %d cmd = %d, want 3", i, cmd)
			continue
		}
		fields, _ := protocol.DecodeFields(frames[i].Payload)
		page, ok := protocol.FieldByNumber(fields, 5)
		if !ok {
			t.Fatalf("frame %d has no page body", i)
		}
		inner, _ := protocol.DecodeFields(page.Bytes)
		num, ok := protocol.FieldByNumber(inner, 1)
		if !ok || num.Uint != uint64(pageNum) {
			t.Errorf("frame %d page number = %d, want %d", i, num.Uint, pageNum)
		}
	}

	last := frames[wantFrames-1]
	if last.Service != protocol.ServiceSystem || commandID(t, last) != 0x0E {
		t.Errorf("last frame = cmd %d on %v, want time sync on system", commandID(t, last), last.Service)
	}

	// Pacing: config, init, pages at 50ms, marker, remaining pages, sync
	sleeps := h.recordedSleeps()
	if len(sleeps) != wantFrames {
		t.Fatalf("got %d settle delays, want %d", len(sleeps), wantFrames)
	}
	if sleeps[0] != 300*time.Millisecond || sleeps[1] != 500*time.Millisecond {
		t.Errorf("setup delays = %v, %v, want 300ms, 500ms", sleeps[0], sleeps[1])
	}
	for i := 2; i < wantFrames-1; i++ {
		if sleeps[i] != 50*time.Millisecond {
			t.Errorf("page delay %d = %v, want 50ms", i, sleeps[i])
		}
	}
	if sleeps[wantFrames-1] != 100*time.Millisecond {
		t.Errorf("final delay = %v, want 100ms", sleeps[wantFrames-1])
	}
}

func TestShowDashboardBringUpOrder(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	if err := h.session.ShowDashboard(context.Background()); err != nil {
		t.Fatalf("ShowDashboard() error = %v", err)
	}

	frames := h.transport.frames(t)
	wantServices := []protocol.ServiceID{
		protocol.ServiceTranscribe,
		protocol.ServiceEvenAI,
		protocol.ServiceOnboarding,
		protocol.ServiceNotification,
	}
	if len(frames) != len(wantServices) {
		t.Fatalf("wrote %d frames, want %d", len(frames), len(wantServices))
	}
	for i, want := range wantServices {
		if frames[i].Service != want {
			t.Errorf("frame %d service = %v, want %v", i, frames[i].Service, want)
		}
	}
}

func TestNavigationOps(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	ctx := context.Background()
	if err := h.session.StartNavigation(ctx); err != nil {
		t.Fatalf("StartNavigation() error = %v", err)
	}
	if err := h.session.SetNavigation(ctx, NavigationInfo{DirectionIndex: 2, Road: "Main St", WorkMethod: 1}); err != nil {
		t.Fatalf("SetNavigation() error = %v", err)
	}
	if err := h.session.NavigationHeartbeat(ctx); err != nil {
		t.Fatalf("NavigationHeartbeat() error = %v", err)
	}
	if err := h.session.StopNavigation(ctx); err != nil {
		t.Fatalf("StopNavigation() error = %v", err)
	}

	frames := h.transport.frames(t)
	if len(frames) != 4 {
		t.Fatalf("wrote %d frames, want 4", len(frames))
	}
	wantCmds := []uint64{5, 7, 0, 12}
	for i, want := range wantCmds {
		if frames[i].Service != protocol.ServiceNavigation {
			t.Errorf("frame %d service = %v, want navigation", i, frames[i].Service)
		}
		if got := commandID(t, frames[i]); got != want {
			t.Errorf("frame %d cmd = %d, want %d", i, got, want)
		}
	}

	wantSleeps := []time.Duration{500 * time.Millisecond, 100 * time.Millisecond, 300 * time.Millisecond}
	sleeps := h.recordedSleeps()
	if len(sleeps) != len(wantSleeps) {
		t.Fatalf("got %d settle delays, want %d (heartbeat has none)", len(sleeps), len(wantSleeps))
	}
	for i, want := range wantSleeps {
		if sleeps[i] != want {
			t.Errorf("delay %d = %v, want %v", i, sleeps[i], want)
		}
	}
}

func TestSetTextRejectsOversizeInput(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.reset()

	err := h.session.SetText(context.Background(), strings.Repeat("a", MaxTextBytes+1))
	if !IsValidationError(err) {
		t.Errorf("error = %v, want validation error", err)
	}
	if h.transport.writeCount() != 0 {
		t.Error("invalid input still reached the transport")
	}
}
