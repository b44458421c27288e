// internal/status/snapshot.go
package status

import "time"

// State is the supervisor lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
)

// StateCode is the register value of a state.
func StateCode(s State) uint16 {
	switch s {
	case StateStarting:
		return 1
	case StateRunning:
		return 2
	default:
		return 0
	}
}

// Snapshot is what the supervisor reports about its acquisition session.
// It contains no logic; Tracker produces it.
type Snapshot struct {
	State  State  `json:"state"`
	Device string `json:"device,omitempty"`

	Health         uint16 `json:"health"`
	LastErrorCode  uint16 `json:"last_error_code"`
	LastError      string `json:"last_error,omitempty"`
	SecondsInError uint16 `json:"seconds_in_error"`

	Ticks         uint64    `json:"ticks"`
	Failures      uint64    `json:"failures"`
	LastReadingAt time.Time `json:"last_reading_at,omitzero"`
}

// Writer delivers status snapshots verbatim.
type Writer interface {
	WriteStatus(s Snapshot) error
}
