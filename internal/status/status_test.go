// internal/status/status_test.go
package status

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goburrow/modbus"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

func TestCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want uint16
	}{
		"nil":           {nil, CodeNone},
		"protocol":      {fmt.Errorf("%w: crc", device.ErrProtocol), CodeProtocol},
		"timeout":       {fmt.Errorf("%w: slow", device.ErrTimeout), CodeTimeout},
		"deadline":      {context.DeadlineExceeded, CodeTimeout},
		"transport":     {fmt.Errorf("%w: write", device.ErrTransport), CodeTransport},
		"construction":  {fmt.Errorf("%w: open", device.ErrConstruction), CodeConstruction},
		"configuration": {device.ErrConfiguration, CodeConfiguration},
		"unknown":       {errors.New("boom"), CodeUnknown},
		"exception": {
			fmt.Errorf("%w: slave 1: %w", device.ErrProtocol, &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 2}),
			2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("Code()=%#04x want %#04x", got, tc.want)
			}
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{
		State:          StateRunning,
		Health:         HealthError,
		LastErrorCode:  CodeProtocol,
		SecondsInError: 7,
		Failures:       0x00010002,
	}, "Kapok R1")

	if len(regs) != SlotsPerDevice {
		t.Fatalf("expected %d regs, got %d", SlotsPerDevice, len(regs))
	}
	if regs[SlotHealthCode] != HealthError || regs[SlotLastErrorCode] != CodeProtocol || regs[SlotSecondsInError] != 7 {
		t.Fatalf("live slots wrong: %v", regs[:3])
	}
	if regs[SlotState] != 2 {
		t.Fatalf("state slot=%d want 2", regs[SlotState])
	}
	if regs[SlotFailuresLo] != 2 || regs[SlotFailuresHi] != 1 {
		t.Fatalf("failure counter slots=%d,%d", regs[SlotFailuresLo], regs[SlotFailuresHi])
	}
	for i := SlotReservedStart; i <= SlotReservedEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("reserved slot %d not zero: %d", i, regs[i])
		}
	}
	if regs[SlotDeviceNameStart] != uint16('K')<<8|uint16('a') {
		t.Fatalf("device name first slot=%#04x", regs[SlotDeviceNameStart])
	}
}

func TestEncodeDeviceName(t *testing.T) {
	got := EncodeDeviceName("AB\x01DEFGHIJKLMNOPQRSTU")

	if len(got) != SlotDeviceNameSlots {
		t.Fatalf("expected %d regs, got %d", SlotDeviceNameSlots, len(got))
	}
	if got[0] != uint16('A')<<8|uint16('B') {
		t.Fatalf("slot0=%#04x", got[0])
	}
	// non-printable sanitised
	if got[1] != uint16('?')<<8|uint16('D') {
		t.Fatalf("slot1=%#04x", got[1])
	}
	// truncated at 16 chars: last pair is "OP"
	if got[7] != uint16('O')<<8|uint16('P') {
		t.Fatalf("slot7=%#04x", got[7])
	}

	short := EncodeDeviceName("X")
	if short[0] != uint16('X')<<8 || short[1] != 0 {
		t.Fatalf("short name=%v", short)
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	if s := tr.Snapshot(); s.State != StateIdle || s.Health != HealthUnknown {
		t.Fatalf("initial=%+v", s)
	}

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Starting()
	tr.Running("modbus")
	tr.Success(t0)

	s := tr.Snapshot()
	if s.State != StateRunning || s.Device != "modbus" || s.Health != HealthOK || s.Ticks != 1 || !s.LastReadingAt.Equal(t0) {
		t.Fatalf("after success=%+v", s)
	}

	tr.Failure(fmt.Errorf("%w: crc", device.ErrProtocol), t0.Add(2*time.Second))
	tr.Failure(fmt.Errorf("%w: crc", device.ErrProtocol), t0.Add(6*time.Second))

	s = tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != CodeProtocol || s.Failures != 2 || s.Ticks != 3 {
		t.Fatalf("after failures=%+v", s)
	}
	if s.SecondsInError != 4 {
		t.Fatalf("seconds in error=%d want 4", s.SecondsInError)
	}

	// recovery resets the error clock, keeps the last error for diagnosis
	tr.Success(t0.Add(8 * time.Second))
	s = tr.Snapshot()
	if s.SecondsInError != 0 || s.Health != HealthOK || s.LastErrorCode != CodeProtocol {
		t.Fatalf("after recovery=%+v", s)
	}

	tr.Stopped()
	s = tr.Snapshot()
	if s.State != StateIdle || s.Health != HealthDisabled || s.Ticks != 4 {
		t.Fatalf("after stop=%+v", s)
	}

	tr.Starting()
	if s := tr.Snapshot(); s.Ticks != 0 || s.Failures != 0 || s.LastError != "" {
		t.Fatalf("counters not reset on start: %+v", s)
	}
}

func TestTracker_SecondsInErrorSaturates(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Failure(device.ErrTimeout, t0)
	tr.Failure(device.ErrTimeout, t0.Add(30*time.Hour))

	if got := tr.Snapshot().SecondsInError; got != SecondsInErrorMax {
		t.Fatalf("seconds in error=%d want %d", got, SecondsInErrorMax)
	}
}

func TestTracker_StartFailed(t *testing.T) {
	tr := NewTracker()
	tr.Starting()
	tr.StartFailed(fmt.Errorf("%w: no such port", device.ErrConstruction))

	s := tr.Snapshot()
	if s.State != StateIdle || s.Health != HealthError || s.LastErrorCode != CodeConstruction {
		t.Fatalf("after start failure=%+v", s)
	}
}
