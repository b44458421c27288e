// internal/device/device.go

// Package device defines the acquisition contract shared by every reader.
package device

import (
	"context"
	"errors"
)

// Snapshot is the value published for one acquisition cycle.
// Field devices produce Channels. The HTTP adapter forwards the decoded body
// as-is, so a Snapshot may also be an array, a scalar or nil.
type Snapshot = any

// Channels maps channel ids to the values read in one cycle.
type Channels map[string]any

// AsChannels returns the per-channel view of s.
// Snapshots that are not JSON objects have none.
func AsChannels(s Snapshot) (Channels, bool) {
	switch v := s.(type) {
	case Channels:
		return v, true
	case map[string]any:
		return Channels(v), true
	}
	return nil, false
}

// Device reads one snapshot of all channels per call.
// Read is never called concurrently; a new call starts only after the previous one returned.
// Close releases the held serial handle or HTTP client and unblocks an in-flight Read.
type Device interface {
	Read(ctx context.Context) (Snapshot, error)
	Close() error
}

// Error taxonomy. Concrete errors wrap one of these.
var (
	// ErrConfiguration: a required sub-config for the selected device is missing. Fatal at start.
	ErrConfiguration = errors.New("configuration error")
	// ErrConstruction: the device could not be opened. Fatal at start.
	ErrConstruction = errors.New("device construction error")
	// ErrProtocol: malformed frame, checksum mismatch, exception response, short read.
	ErrProtocol = errors.New("protocol error")
	// ErrTimeout: the cycle did not complete within its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransport: the transport failed to carry the request.
	ErrTransport = errors.New("transport error")
)

// IsFatal reports whether err prevents an acquisition session from starting.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrConstruction)
}
