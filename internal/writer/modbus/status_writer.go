// internal/writer/modbus/status_writer.go
package modbus

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/roastcraft/roastcraft-daq/internal/status"
)

// liveSlots are rewritten individually when they change.
// Everything above is identity and only goes out with a full block.
const liveSlots = status.SlotFailuresHi + 1

// StatusWriter delivers supervisor status into the status block at slot*SlotsPerDevice.
// No interpretation: it writes what it is given.
type StatusWriter struct {
	cli  RegisterClient
	base uint16
	name string

	needFull bool
	last     []uint16
}

var _ status.Writer = (*StatusWriter)(nil)

func NewStatusWriter(cli RegisterClient, slot uint16, deviceName string) *StatusWriter {
	return &StatusWriter{
		cli:      cli,
		base:     slot * status.SlotsPerDevice,
		name:     deviceName,
		needFull: true, // full re-assert on first write
	}
}

// WriteStatus writes the full block on first use and after any failure,
// otherwise only the live slots that changed.
func (sw *StatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.cli == nil {
		return fmt.Errorf("status writer: no client")
	}

	regs := status.Encode(s, sw.name)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Delta writes
	// ------------------------------------------------------------
	var errs error
	for slot := 0; slot < liveSlots; slot++ {
		if sw.last[slot] == regs[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.base+uint16(slot), regs[slot:slot+1]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("slot%d write failed: %w", slot, err))
			continue
		}
		sw.last[slot] = regs[slot]
	}

	if errs != nil {
		// partial failure introduces doubt: re-assert on next call
		sw.needFull = true
		return fmt.Errorf("status writer: %w", errs)
	}
	return nil
}
