package config

import "time"

// Registry is the on-disk user configuration: the glasses this machine has
// paired with plus application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Glasses     map[string]*Glasses `yaml:"glasses,omitempty"` // Keyed by MAC address
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Glasses stores what is remembered about one pair of glasses between runs.
// The glasses themselves hold no pairing state worth caching; this is purely
// client-side bookkeeping.
type Glasses struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Name     string    `yaml:"name,omitempty"`      // Advertised BLE name, e.g. "G2_45_L_C4E7"
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last scan or connection time
	LastRSSI int16     `yaml:"last_rssi,omitempty"` // Signal strength at the last sighting
}

// DisplayName returns the nickname when one is set, otherwise the
// advertised BLE name.
func (g *Glasses) DisplayName() string {
	if g.Nickname != "" {
		return g.Nickname
	}
	return g.Name
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	ScanTimeout     int     `yaml:"scan_timeout"`     // BLE scan window in seconds
	PreferLeftArm   bool    `yaml:"prefer_left_arm"`  // Connect to the _L_ endpoint when both arms advertise
	BridgeListen    string  `yaml:"bridge_listen"`    // WebSocket bridge listen address
	AdvertiseBridge bool    `yaml:"advertise_bridge"` // Announce the bridge over mDNS
	Pacing          *Pacing `yaml:"pacing,omitempty"` // Protocol timing overrides
}

// Pacing overrides the handshake and response timings, in milliseconds.
// Zero values keep the built-in defaults. Congested links occasionally need
// more settle time than firmware 1.6.2 tolerates at the defaults.
type Pacing struct {
	AuthPacketMillis     int `yaml:"auth_packet_millis,omitempty"`     // Delay after each handshake frame
	AuthSettleMillis     int `yaml:"auth_settle_millis,omitempty"`     // Delay after the final handshake frame
	ResponseWindowMillis int `yaml:"response_window_millis,omitempty"` // Collection window for sendRaw replies
}

// ScanWindow returns the scan timeout as a duration, zero when unset.
func (p *Preferences) ScanWindow() time.Duration {
	return time.Duration(p.ScanTimeout) * time.Second
}

// AuthPacketInterval returns the per-frame handshake delay override, zero
// when unset.
func (p *Pacing) AuthPacketInterval() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.AuthPacketMillis) * time.Millisecond
}

// AuthSettleDelay returns the post-handshake settle override, zero when
// unset.
func (p *Pacing) AuthSettleDelay() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.AuthSettleMillis) * time.Millisecond
}

// ResponseWindow returns the reply collection window override, zero when
// unset.
func (p *Pacing) ResponseWindow() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.ResponseWindowMillis) * time.Millisecond
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Glasses:     make(map[string]*Glasses),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		ScanTimeout:   10,
		PreferLeftArm: true,
		BridgeListen:  "localhost:8765",
	}
}

// GetGlasses retrieves glasses metadata by MAC address. Returns nil when
// the glasses are not in the registry.
func (r *Registry) GetGlasses(mac string) *Glasses {
	return r.Glasses[mac]
}

// EnsureGlasses returns the entry for a MAC address, creating it on first
// sight.
func (r *Registry) EnsureGlasses(mac string) *Glasses {
	if r.Glasses == nil {
		r.Glasses = make(map[string]*Glasses)
	}
	if g, exists := r.Glasses[mac]; exists {
		return g
	}
	g := &Glasses{}
	r.Glasses[mac] = g
	return g
}

// RecordSighting updates the advertised name, timestamp and signal strength
// after a scan or connection.
func (r *Registry) RecordSighting(mac, name string, rssi int16) {
	g := r.EnsureGlasses(mac)
	g.Name = name
	g.LastSeen = time.Now()
	g.LastRSSI = rssi
}

// SetNickname sets a user-friendly nickname for a pair of glasses.
func (r *Registry) SetNickname(mac, nickname string) {
	r.EnsureGlasses(mac).Nickname = nickname
}

// Forget removes a pair of glasses from the registry. Returns false when
// the MAC was not present.
func (r *Registry) Forget(mac string) bool {
	if _, exists := r.Glasses[mac]; !exists {
		return false
	}
	delete(r.Glasses, mac)
	return true
}
