// Connection settings state
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

// ConnKind identifies the transport a device is configured to use.
// Exactly one connection is active at a time.
type ConnKind uint8

const (
	// SerialConn is a UART connection (params: baud, data bits, stop bits).
	SerialConn ConnKind = iota

	// EthernetConn is a wired TCP connection (params: address, port, gateway).
	EthernetConn

	// WifiConn is a wireless connection (params: ssid, passphrase, port).
	WifiConn
)

// String returns the kind name.
func (k ConnKind) String() string {
	switch k {
	case SerialConn:
		return "serial"
	case EthernetConn:
		return "ethernet"
	case WifiConn:
		return "wifi"
	default:
		return "unknown"
	}
}

// Settings holds the active connection configuration: a transport kind
// and three kind-dependent parameters kept as wire strings.
type Settings struct {
	Kind   ConnKind
	Params [3]string
}

// DefaultSettings returns the factory serial configuration.
func DefaultSettings() Settings {
	return Settings{
		Kind:   SerialConn,
		Params: [3]string{"9600", "8", "1"},
	}
}
