// internal/poller/modbus/rtu.go
package modbus

import (
	"encoding/binary"
	"fmt"

	"github.com/goburrow/modbus"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

const (
	rtuMinSize = 4
	rtuMaxSize = 256

	// rtuHeaderLen is enough to size any response: id, fc, byte count (or exception code).
	rtuHeaderLen = 3
)

// rtuPackager frames PDUs for Modbus RTU.
//
// ADU:
//
//	ID(1) FC(1) DATA(n) CRC(2, little-endian)
type rtuPackager struct {
	SlaveID byte
}

func (p *rtuPackager) Encode(pdu *modbus.ProtocolDataUnit) ([]byte, error) {
	length := len(pdu.Data) + 4
	if length > rtuMaxSize {
		return nil, fmt.Errorf("modbus rtu: length of data '%d' must not be bigger than '%d'", length, rtuMaxSize)
	}

	adu := make([]byte, 0, length)
	adu = append(adu, p.SlaveID, pdu.FunctionCode)
	adu = append(adu, pdu.Data...)
	adu = binary.LittleEndian.AppendUint16(adu, crc16(adu))

	return adu, nil
}

func (p *rtuPackager) Verify(aduRequest, aduResponse []byte) error {
	if len(aduResponse) < rtuMinSize {
		return fmt.Errorf("%w: rtu response length %d below minimum %d", device.ErrProtocol, len(aduResponse), rtuMinSize)
	}
	if aduResponse[0] != aduRequest[0] {
		return fmt.Errorf("%w: rtu slave id mismatch: got=%d want=%d", device.ErrProtocol, aduResponse[0], aduRequest[0])
	}
	return nil
}

func (p *rtuPackager) Decode(adu []byte) (*modbus.ProtocolDataUnit, error) {
	n := len(adu)
	if n < rtuMinSize {
		return nil, fmt.Errorf("%w: rtu frame too short (%d)", device.ErrProtocol, n)
	}

	got := binary.LittleEndian.Uint16(adu[n-2:])
	want := crc16(adu[:n-2])
	if got != want {
		return nil, fmt.Errorf("%w: rtu crc mismatch: got=%04X want=%04X", device.ErrProtocol, got, want)
	}

	return &modbus.ProtocolDataUnit{
		FunctionCode: adu[1],
		Data:         adu[2 : n-2],
	}, nil
}

// rtuFrameLen sizes a response from its first rtuHeaderLen bytes.
func rtuFrameLen(header []byte) (int, error) {
	if len(header) < rtuHeaderLen {
		return 0, fmt.Errorf("%w: rtu header too short", device.ErrProtocol)
	}

	fc := header[1]
	if fc&0x80 != 0 {
		// id, fc|0x80, exception code, crc
		return 5, nil
	}
	return frameLenFor(fc, int(header[2]), 3, 2)
}

// frameLenFor returns the binary length of a response frame with the given
// function code. prefix counts id+fc+count, suffix the checksum bytes.
func frameLenFor(fc byte, count, prefix, suffix int) (int, error) {
	switch fc {
	case modbus.FuncCodeReadCoils,
		modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadHoldingRegisters,
		modbus.FuncCodeReadInputRegisters:
		return prefix + count + suffix, nil
	case modbus.FuncCodeWriteSingleCoil,
		modbus.FuncCodeWriteSingleRegister,
		modbus.FuncCodeWriteMultipleCoils,
		modbus.FuncCodeWriteMultipleRegisters:
		// id, fc, address(2), value/quantity(2)
		return 6 + suffix, nil
	default:
		return 0, fmt.Errorf("%w: unsupported function code %d in response", device.ErrProtocol, fc)
	}
}

// crc16 is CRC-16/MODBUS (poly 0xA001 reflected, init 0xFFFF).
func crc16(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
