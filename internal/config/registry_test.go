package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "g2link") {
		t.Errorf("GetConfigDir() = %v, should contain 'g2link'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Glasses == nil {
		t.Error("NewRegistry().Glasses should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.ScanTimeout != 10 {
		t.Errorf("ScanTimeout = %v, want 10", reg.Preferences.ScanTimeout)
	}
	if !reg.Preferences.PreferLeftArm {
		t.Error("PreferLeftArm should be true by default")
	}
	if reg.Preferences.BridgeListen != "localhost:8765" {
		t.Errorf("BridgeListen = %v, want localhost:8765", reg.Preferences.BridgeListen)
	}
	if reg.Preferences.AdvertiseBridge {
		t.Error("AdvertiseBridge should be off by default")
	}
}

func TestRegistryEnsureGlasses(t *testing.T) {
	reg := NewRegistry()

	first := reg.EnsureGlasses("AA:BB:CC:DD:EE:01")
	if first == nil {
		t.Fatal("EnsureGlasses() returned nil")
	}

	second := reg.EnsureGlasses("AA:BB:CC:DD:EE:01")
	if first != second {
		t.Error("EnsureGlasses() should return same instance for same MAC")
	}

	other := reg.EnsureGlasses("AA:BB:CC:DD:EE:02")
	if first == other {
		t.Error("EnsureGlasses() should create new instance for different MAC")
	}
}

func TestRegistryRecordSighting(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RecordSighting("AA:BB:CC:DD:EE:01", "G2_45_L_C4E7", -48)
	after := time.Now()

	g := reg.GetGlasses("AA:BB:CC:DD:EE:01")
	if g == nil {
		t.Fatal("Glasses should exist after RecordSighting()")
	}
	if g.Name != "G2_45_L_C4E7" {
		t.Errorf("Name = %v, want G2_45_L_C4E7", g.Name)
	}
	if g.LastRSSI != -48 {
		t.Errorf("LastRSSI = %v, want -48", g.LastRSSI)
	}
	if g.LastSeen.Before(before) || g.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", g.LastSeen, before, after)
	}
}

func TestRegistrySetNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetNickname("AA:BB:CC:DD:EE:01", "Daily pair")

	g := reg.GetGlasses("AA:BB:CC:DD:EE:01")
	if g == nil {
		t.Fatal("Glasses should exist after SetNickname()")
	}
	if g.Nickname != "Daily pair" {
		t.Errorf("Nickname = %v, want 'Daily pair'", g.Nickname)
	}
}

func TestGlassesDisplayName(t *testing.T) {
	g := &Glasses{Name: "G2_45_L_C4E7"}
	if got := g.DisplayName(); got != "G2_45_L_C4E7" {
		t.Errorf("DisplayName() = %v, want advertised name", got)
	}

	g.Nickname = "Daily pair"
	if got := g.DisplayName(); got != "Daily pair" {
		t.Errorf("DisplayName() = %v, want nickname", got)
	}
}

func TestRegistryForget(t *testing.T) {
	reg := NewRegistry()
	reg.RecordSighting("AA:BB:CC:DD:EE:01", "G2_45_L_C4E7", -48)

	if !reg.Forget("AA:BB:CC:DD:EE:01") {
		t.Error("Forget() = false for a known MAC")
	}
	if reg.GetGlasses("AA:BB:CC:DD:EE:01") != nil {
		t.Error("Glasses should be gone after Forget()")
	}
	if reg.Forget("AA:BB:CC:DD:EE:01") {
		t.Error("Forget() = true for an unknown MAC")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.RecordSighting("AA:BB:CC:DD:EE:01", "G2_45_L_C4E7", -48)
	reg.SetNickname("AA:BB:CC:DD:EE:01", "Daily pair")
	reg.Preferences.ScanTimeout = 15
	reg.Preferences.Pacing = &Pacing{AuthSettleMillis: 800}

	data, err := marshalRegistry(reg, "/tmp/config.yaml")
	if err != nil {
		t.Fatalf("marshalRegistry() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# g2link Configuration File") {
		t.Error("saved config should start with the comment header")
	}

	loaded, err := parseRegistry(data)
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	g := loaded.GetGlasses("AA:BB:CC:DD:EE:01")
	if g == nil {
		t.Fatal("Glasses should exist in loaded registry")
	}
	if g.Nickname != "Daily pair" {
		t.Errorf("Loaded nickname = %v, want 'Daily pair'", g.Nickname)
	}
	if g.Name != "G2_45_L_C4E7" {
		t.Errorf("Loaded name = %v, want G2_45_L_C4E7", g.Name)
	}
	if loaded.Preferences.ScanTimeout != 15 {
		t.Errorf("Loaded ScanTimeout = %v, want 15", loaded.Preferences.ScanTimeout)
	}
	if loaded.Preferences.Pacing.AuthSettleDelay() != 800*time.Millisecond {
		t.Errorf("AuthSettleDelay() = %v, want 800ms", loaded.Preferences.Pacing.AuthSettleDelay())
	}
}

func TestParseRegistryRejectsUnknownVersion(t *testing.T) {
	_, err := parseRegistry([]byte("version: 2\n"))
	if err == nil {
		t.Fatal("parseRegistry() should reject version 2")
	}
}

func TestParseRegistryFillsDefaults(t *testing.T) {
	loaded, err := parseRegistry([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}
	if loaded.Glasses == nil {
		t.Error("Glasses map should be initialized")
	}
	if loaded.Preferences == nil {
		t.Fatal("Preferences should be initialized")
	}
	if loaded.Preferences.BridgeListen != "localhost:8765" {
		t.Errorf("BridgeListen = %v, want the default", loaded.Preferences.BridgeListen)
	}
}

func TestPacingDurations(t *testing.T) {
	var unset *Pacing
	if unset.AuthPacketInterval() != 0 || unset.AuthSettleDelay() != 0 || unset.ResponseWindow() != 0 {
		t.Error("nil Pacing should yield zero durations")
	}

	p := &Pacing{AuthPacketMillis: 150, AuthSettleMillis: 700, ResponseWindowMillis: 2000}
	if p.AuthPacketInterval() != 150*time.Millisecond {
		t.Errorf("AuthPacketInterval() = %v, want 150ms", p.AuthPacketInterval())
	}
	if p.AuthSettleDelay() != 700*time.Millisecond {
		t.Errorf("AuthSettleDelay() = %v, want 700ms", p.AuthSettleDelay())
	}
	if p.ResponseWindow() != 2*time.Second {
		t.Errorf("ResponseWindow() = %v, want 2s", p.ResponseWindow())
	}
}

func BenchmarkEnsureGlasses(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureGlasses("AA:BB:CC:DD:EE:01")
	}
}
