// internal/status/code.go
package status

import (
	"context"
	"errors"

	"github.com/goburrow/modbus"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Error codes written to SlotLastErrorCode.
// Codes below 0x100 are Modbus exception codes reported by a slave.
const (
	CodeNone          uint16 = 0x0000
	CodeConfiguration uint16 = 0x0101
	CodeConstruction  uint16 = 0x0102
	CodeProtocol      uint16 = 0x0103
	CodeTimeout       uint16 = 0x0104
	CodeTransport     uint16 = 0x0105
	CodeUnknown       uint16 = 0xFFFF
)

// Code maps an acquisition error to its register value.
func Code(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}

	switch {
	case errors.Is(err, device.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, device.ErrProtocol):
		return CodeProtocol
	case errors.Is(err, device.ErrTransport):
		return CodeTransport
	case errors.Is(err, device.ErrConstruction):
		return CodeConstruction
	case errors.Is(err, device.ErrConfiguration):
		return CodeConfiguration
	default:
		return CodeUnknown
	}
}
