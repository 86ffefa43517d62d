// Package config provides user configuration management for g2link.
//
// This package manages a YAML-based configuration file that remembers the
// glasses this machine has paired with (nicknames, last sighting) together
// with application preferences such as the scan window and the bridge
// listen address. The file lives in the platform's conventional location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/g2link/config.yaml or $HOME/.config/g2link/config.yaml
//   - macOS: $HOME/.config/g2link/config.yaml
//   - Windows: %LOCALAPPDATA%\g2link\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Remember a pair of glasses found during a scan
//	registry.RecordSighting("AA:BB:CC:DD:EE:01", "G2_45_L_C4E7", -48)
//	registry.SetNickname("AA:BB:CC:DD:EE:01", "Daily pair")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across
// goroutines. File operations are protected by a mutex and written via a
// temp-file rename so a crash never corrupts the previous configuration.
package config
