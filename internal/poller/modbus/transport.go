// internal/poller/modbus/transport.go
package modbus

import (
	"fmt"
	"io"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// serialTransporter implements modbus.Transporter over an already open line.
// The response is framed by reading a fixed header, sizing the frame from it,
// then reading exactly the remaining bytes.
type serialTransporter struct {
	port      io.ReadWriter
	headerLen int
	frameLen  func(header []byte) (int, error)
}

func newRTUTransporter(port io.ReadWriter) *serialTransporter {
	return &serialTransporter{port: port, headerLen: rtuHeaderLen, frameLen: rtuFrameLen}
}

func newASCIITransporter(port io.ReadWriter) *serialTransporter {
	return &serialTransporter{port: port, headerLen: asciiHeaderLen, frameLen: asciiFrameLen}
}

func (t *serialTransporter) Send(aduRequest []byte) ([]byte, error) {
	if _, err := t.port.Write(aduRequest); err != nil {
		return nil, fmt.Errorf("%w: write: %w", device.ErrTransport, err)
	}

	header := make([]byte, t.headerLen)
	if _, err := io.ReadFull(t.port, header); err != nil {
		return nil, fmt.Errorf("%w: short read (header): %w", device.ErrProtocol, err)
	}

	n, err := t.frameLen(header)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, n)
	copy(frame, header)
	if n > t.headerLen {
		if _, err := io.ReadFull(t.port, frame[t.headerLen:]); err != nil {
			return nil, fmt.Errorf("%w: short read (frame of %d bytes): %w", device.ErrProtocol, n, err)
		}
	}
	return frame, nil
}
