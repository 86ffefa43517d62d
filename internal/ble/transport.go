package ble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/kordwall/g2link/internal/glasses"
	"github.com/kordwall/g2link/internal/logging"
)

const (
	// UUIDWrite is the write-without-response characteristic the host
	// sends frames on.
	UUIDWrite = "00002760-08c2-11e1-9073-0e8ac72e5401"

	// UUIDNotify is the notify characteristic the glasses answer on.
	UUIDNotify = "00002760-08c2-11e1-9073-0e8ac72e5402"
)

// Transport drives a BLE adapter as a glasses.Transport. The zero value is
// not usable; call New.
type Transport struct {
	adapter *bluetooth.Adapter

	mu           sync.Mutex
	enabled      bool
	scanned      map[string]bluetooth.Address
	device       bluetooth.Device
	writeChar    bluetooth.DeviceCharacteristic
	address      string
	connected    bool
	closing      bool
	onDisconnect func(error)
}

var _ glasses.Transport = (*Transport)(nil)

// New returns a transport on the platform's default Bluetooth adapter.
func New() *Transport {
	return &Transport{
		adapter: bluetooth.DefaultAdapter,
		scanned: make(map[string]bluetooth.Address),
	}
}

// ensureEnabled powers the adapter and hooks the connection handler. The
// handler is registered once for the transport's lifetime because the
// adapter keeps only the last one.
func (t *Transport) ensureEnabled() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return nil
	}
	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("enabling bluetooth adapter: %w", err)
	}
	t.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		t.handleLinkDown(device.Address.String())
	})
	t.enabled = true
	return nil
}

// handleLinkDown fires the session's disconnect callback when the active
// link drops without a Disconnect call.
func (t *Transport) handleLinkDown(address string) {
	t.mu.Lock()
	if !t.connected || address != t.address {
		t.mu.Unlock()
		return
	}
	requested := t.closing
	handler := t.onDisconnect
	t.connected = false
	t.onDisconnect = nil
	t.mu.Unlock()

	if requested || handler == nil {
		return
	}
	logging.Debug("ble link lost", zap.String("address", address))
	handler(errors.New("link closed by remote device"))
}

// Discover scans for the full timeout window and returns every named
// advertisement seen, strongest signal first. The scan stops early only
// when ctx is cancelled.
func (t *Transport) Discover(ctx context.Context, timeout time.Duration) ([]glasses.Device, error) {
	if err := t.ensureEnabled(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	clear(t.scanned)
	t.mu.Unlock()

	var (
		foundMu sync.Mutex
		found   = make(map[string]glasses.Device)
	)

	done := make(chan struct{})
	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		case <-done:
			return
		}
		_ = t.adapter.StopScan()
	}()

	err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		if name == "" {
			return
		}
		address := result.Address.String()

		foundMu.Lock()
		_, seen := found[address]
		found[address] = glasses.Device{Name: name, Address: address, RSSI: result.RSSI}
		foundMu.Unlock()

		t.mu.Lock()
		t.scanned[address] = result.Address
		t.mu.Unlock()

		if !seen {
			logging.Debug("advertisement",
				zap.String("name", name),
				zap.String("address", address),
				zap.Int16("rssi", result.RSSI))
		}
	})
	close(done)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	devices := make([]glasses.Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].RSSI != devices[j].RSSI {
			return devices[i].RSSI > devices[j].RSSI
		}
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

// Connect dials a device from the last scan, resolves the vendor
// characteristics and subscribes to notifications. onNotify receives a
// fresh copy of each notification payload.
func (t *Transport) Connect(ctx context.Context, device glasses.Device, onNotify func([]byte), onDisconnect func(error)) error {
	if err := t.ensureEnabled(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return errors.New("already connected")
	}
	address, ok := t.scanned[device.Address]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("device %s was not seen in the last scan", device.Address)
	}

	dev, err := t.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", device.Address, err)
	}

	writeChar, notifyChar, err := resolveCharacteristics(dev)
	if err != nil {
		_ = dev.Disconnect()
		return err
	}

	// The stack may reuse the notification buffer after the callback
	// returns, so hand the session its own copy.
	err = notifyChar.EnableNotifications(func(buf []byte) {
		data := make([]byte, len(buf))
		copy(data, buf)
		onNotify(data)
	})
	if err != nil {
		_ = dev.Disconnect()
		return fmt.Errorf("enabling notifications: %w", err)
	}

	t.mu.Lock()
	t.device = dev
	t.writeChar = writeChar
	t.address = device.Address
	t.onDisconnect = onDisconnect
	t.closing = false
	t.connected = true
	t.mu.Unlock()

	logging.Debug("gatt link established",
		zap.String("name", device.Name),
		zap.String("address", device.Address))
	return nil
}

// resolveCharacteristics walks every service on the device looking for the
// vendor write and notify characteristics. The glasses expose several
// vendor services, so discovery is unfiltered and matched by UUID.
func resolveCharacteristics(dev bluetooth.Device) (write, notify bluetooth.DeviceCharacteristic, err error) {
	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return write, notify, fmt.Errorf("discovering services: %w", err)
	}

	var haveWrite, haveNotify bool
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, c := range chars {
			switch c.UUID().String() {
			case UUIDWrite:
				write = c
				haveWrite = true
			case UUIDNotify:
				notify = c
				haveNotify = true
			}
		}
		if haveWrite && haveNotify {
			return write, notify, nil
		}
	}
	return write, notify, errors.New("vendor characteristics not found; is this a G2 device?")
}

// Write sends one framed packet without waiting for a link-layer response,
// matching the pacing model the firmware expects.
func (t *Transport) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return errors.New("not connected")
	}
	char := t.writeChar
	t.mu.Unlock()

	if _, err := char.WriteWithoutResponse(frame); err != nil {
		return fmt.Errorf("gatt write: %w", err)
	}
	return nil
}

// Disconnect closes the link. The disconnect callback does not fire for
// requested teardowns.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	dev := t.device
	t.mu.Unlock()

	err := dev.Disconnect()

	t.mu.Lock()
	t.connected = false
	t.onDisconnect = nil
	t.mu.Unlock()

	if err != nil {
		return fmt.Errorf("closing link: %w", err)
	}
	return nil
}
