// internal/poller/ta612c/ta612c.go
package ta612c

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/serialport"
)

// ---- FRAME ----

// Request asks the meter for all four probes.
var Request = []byte{0xAA, 0x55, 0x01, 0x03, 0x03}

const (
	// ResponseLen is the fixed response size.
	ResponseLen = 13

	// Fields is the number of probe values in a response.
	Fields = 4

	fieldOffset = 4
)

// Decode extracts the four probe values from a response.
//
// Layout:
//
//	[0..3]   header (ignored)
//	[4..11]  4 x uint16 little-endian, tenths of a degree
//	[12]     trailer (ignored)
func Decode(frame []byte) ([Fields]float64, error) {
	var out [Fields]float64
	if len(frame) < ResponseLen {
		return out, fmt.Errorf("%w: ta612c frame length %d, want %d", device.ErrProtocol, len(frame), ResponseLen)
	}

	for i := 0; i < Fields; i++ {
		off := fieldOffset + 2*i
		out[i] = float64(binary.LittleEndian.Uint16(frame[off:off+2])) / 10.0
	}
	return out, nil
}

// ---- DEVICE ----

// Device polls a TA612C four-channel thermometer.
type Device struct {
	port     io.ReadWriteCloser
	channels []config.Channel
	logger   *zap.Logger
}

var _ device.Device = (*Device)(nil)

// New opens the serial line. cfg.Ta612c is required.
func New(cfg *config.Serial, open serialport.Opener, logger *zap.Logger) (*Device, error) {
	if cfg == nil || cfg.Ta612c == nil {
		return nil, fmt.Errorf("%w: serial ta612c configuration missing", device.ErrConfiguration)
	}
	if open == nil {
		open = serialport.Open
	}

	port, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrConstruction, err)
	}

	return NewWithPort(port, cfg.Ta612c, logger), nil
}

// NewWithPort binds channels to an already open line.
func NewWithPort(port io.ReadWriteCloser, cfg *config.Ta612c, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.L()
	}
	return &Device{
		port:     port,
		channels: cfg.Channel,
		logger:   logger.With(zap.String("device", "ta612c")),
	}
}

// Read sends the request and maps field i to channel position i.
// A response that cannot be read in full yields an empty snapshot, not an error.
func (d *Device) Read(ctx context.Context) (device.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := d.port.Write(Request); err != nil {
		return nil, fmt.Errorf("%w: ta612c write: %w", device.ErrTransport, err)
	}

	frame := make([]byte, ResponseLen)
	if _, err := io.ReadFull(d.port, frame); err != nil {
		d.logger.Warn("ta612c response read failed, publishing empty reading",
			zap.Bool("timeout", serialport.IsTimeout(err)),
			zap.Error(err),
		)
		return device.Channels{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values, err := Decode(frame)
	if err != nil {
		return nil, err
	}

	snap := make(device.Channels, min(len(d.channels), Fields))
	for i, ch := range d.channels {
		if i >= Fields {
			break
		}
		snap[ch.ChannelID] = values[i]
	}
	return snap, nil
}

func (d *Device) Close() error {
	if d == nil || d.port == nil {
		return nil
	}
	return d.port.Close()
}
