// Package ble implements the glasses transport over Bluetooth Low Energy
// using tinygo.org/x/bluetooth.
//
// Even G2 glasses expose a vendor GATT service with two characteristics:
//
//	00002760-08c2-11e1-9073-0e8ac72e5401  write without response (host → glasses)
//	00002760-08c2-11e1-9073-0e8ac72e5402  notify (glasses → host)
//
// Each arm advertises its own endpoint (G2_<num>_L_<id> and G2_<num>_R_<id>);
// the left arm relays to the right one, so the session layer connects to it
// when both are visible.
//
// # Usage
//
//	transport := ble.New()
//	session := glasses.NewSession(glasses.Config{Transport: transport})
//	device, err := session.Connect(ctx)
//
// Discover collects advertisements for the full timeout window so both arms
// get a chance to appear. Connect must follow a Discover in the same process
// because the platform scan handle is needed to dial the device.
//
// # Threading
//
// Notification and disconnect callbacks run on the Bluetooth stack's event
// goroutine, never on the caller's. The package is safe for use by a single
// session; concurrent Connect calls are rejected.
package ble
