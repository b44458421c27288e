// internal/writer/modbus/mirror.go
package modbus

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Mirror writes each snapshot as one contiguous register block,
// one register per channel in configured order.
type Mirror struct {
	cli      RegisterClient
	channels []string
	addr     uint16
}

func NewMirror(cli RegisterClient, channels []string, dataAddress uint16) *Mirror {
	return &Mirror{
		cli:      cli,
		channels: append([]string(nil), channels...),
		addr:     dataAddress,
	}
}

// Write sends uint16(round(value*10)) per channel.
// Missing or non-numeric values write 0, as does every channel of a
// snapshot that is not a JSON object.
func (m *Mirror) Write(ctx context.Context, snap device.Snapshot) error {
	if len(m.channels) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	channels, _ := device.AsChannels(snap)
	regs := make([]uint16, len(m.channels))
	for i, id := range m.channels {
		regs[i] = Register(channels[id])
	}

	if err := m.cli.WriteRegisters(m.addr, regs); err != nil {
		return fmt.Errorf("mirror: addr=%d qty=%d: %w", m.addr, len(regs), err)
	}
	return nil
}

// Register converts a channel value into its tenths register, saturating at 0 and 65535.
func Register(v any) uint16 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return 0
	}

	r := math.Round(f * 10)
	switch {
	case r <= 0:
		return 0
	case r >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(r)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint16:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
