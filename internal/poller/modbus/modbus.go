// internal/poller/modbus/modbus.go
package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/serialport"
)

// Device reads one register per configured slave over a shared serial line.
type Device struct {
	port   io.ReadWriteCloser
	slaves []slaveReader
	logger *zap.Logger
}

type slaveReader struct {
	cfg    config.Slave
	client modbus.Client
}

var _ device.Device = (*Device)(nil)

// New opens the serial line and prepares one client per slave.
func New(cfg *config.Serial, open serialport.Opener, logger *zap.Logger) (*Device, error) {
	if cfg == nil || cfg.Modbus == nil {
		return nil, fmt.Errorf("%w: serial modbus configuration missing", device.ErrConfiguration)
	}
	if open == nil {
		open = serialport.Open
	}

	port, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrConstruction, err)
	}

	return NewWithPort(port, cfg.Modbus, logger), nil
}

// NewWithPort wires the codec onto an already open line.
func NewWithPort(port io.ReadWriteCloser, cfg *config.Modbus, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.L()
	}

	ascii := cfg.Protocol == config.ProtocolASCII

	var tr modbus.Transporter
	if ascii {
		tr = newASCIITransporter(port)
	} else {
		tr = newRTUTransporter(port)
	}

	d := &Device{
		port:   port,
		slaves: make([]slaveReader, 0, len(cfg.Slave)),
		logger: logger.With(zap.String("device", "modbus"), zap.String("protocol", cfg.Protocol)),
	}

	for _, s := range cfg.Slave {
		var pk modbus.Packager
		if ascii {
			pk = &asciiPackager{SlaveID: byte(s.ID)}
		} else {
			pk = &rtuPackager{SlaveID: byte(s.ID)}
		}
		d.slaves = append(d.slaves, slaveReader{
			cfg:    s,
			client: modbus.NewClient2(pk, tr),
		})
	}

	return d
}

// Read polls every slave in order.
// All-or-nothing: any slave failure aborts the cycle.
func (d *Device) Read(ctx context.Context) (device.Snapshot, error) {
	snap := make(device.Channels, len(d.slaves))

	for _, s := range d.slaves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := s.read()
		if err != nil {
			return nil, err
		}

		d.logger.Debug("register read",
			zap.String("channel_id", s.cfg.ChannelID),
			zap.Uint16("id", s.cfg.ID),
			zap.Uint16("registry", s.cfg.Registry),
			zap.Float64("value", v),
		)
		snap[s.cfg.ChannelID] = v
	}

	// Commit only if all reads succeeded
	return snap, nil
}

// Close closes the serial line. An in-flight Read fails promptly.
func (d *Device) Close() error {
	if d == nil || d.port == nil {
		return nil
	}
	return d.port.Close()
}

func (s slaveReader) read() (float64, error) {
	var (
		res []byte
		err error
	)
	if s.cfg.Function == modbus.FuncCodeReadInputRegisters {
		res, err = s.client.ReadInputRegisters(s.cfg.Registry, 1)
	} else {
		res, err = s.client.ReadHoldingRegisters(s.cfg.Registry, 1)
	}
	if err != nil {
		return 0, classify(s.cfg, err)
	}
	if len(res) < 2 {
		return 0, fmt.Errorf("%w: slave %d registry %d: short register payload", device.ErrProtocol, s.cfg.ID, s.cfg.Registry)
	}

	return Scale(binary.BigEndian.Uint16(res[:2])), nil
}

// Scale converts a raw register to its display value.
// Divisor and decode type are deliberately not applied.
func Scale(raw uint16) float64 {
	return math.Round(float64(raw)*10.0) / 100.0
}

// classify keeps codec errors as they are and files everything the
// goburrow client produced on its own (exceptions, count mismatch) as protocol errors.
func classify(s config.Slave, err error) error {
	if errors.Is(err, device.ErrProtocol) || errors.Is(err, device.ErrTransport) {
		return fmt.Errorf("slave %d registry %d: %w", s.ID, s.Registry, err)
	}
	return fmt.Errorf("%w: slave %d registry %d: %w", device.ErrProtocol, s.ID, s.Registry, err)
}
