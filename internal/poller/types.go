// internal/poller/types.go
package poller

import (
	"time"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Kind names the acquisition strategy chosen for a session.
type Kind string

const (
	KindModbus Kind = "modbus"
	KindTa612c Kind = "ta612c"
	KindHTTP   Kind = "http"
)

// Result is the outcome of one tick.
type Result struct {
	At       time.Time
	Snapshot device.Snapshot
	Err      error // non-nil means the tick publishes nothing
}

// Notifier receives user-facing log events.
type Notifier interface {
	Notify(message string)
}
