// internal/writer/builder.go
package writer

import (
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/status"
	wmodbus "github.com/roastcraft/roastcraft-daq/internal/writer/modbus"
	wmqtt "github.com/roastcraft/roastcraft-daq/internal/writer/mqtt"
	"github.com/roastcraft/roastcraft-daq/internal/writer/ws"
)

// MirrorOptions enables the Modbus TCP register mirror.
type MirrorOptions struct {
	Endpoint    string
	UnitID      uint8
	Timeout     time.Duration
	DataAddress uint16
	StatusSlot  uint16
	DeviceName  string
}

// Options selects the sinks. The log sink is always present.
type Options struct {
	Channels []string
	Hub      *ws.Hub        // nil disables
	Mirror   *MirrorOptions // nil disables
	MQTT     wmqtt.Config   // empty broker disables
	Logger   *zap.Logger
}

// Build connects every enabled sink. A sink that cannot connect fails the build
// and already connected sinks are closed again.
// The returned status.Writer is nil unless the mirror is enabled.
func Build(o Options) (*Fanout, status.Writer, func() error, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.L()
	}

	f := NewFanout(Sink{Name: "log", Writer: NewLog(logger)})
	var (
		sw      status.Writer
		closers []func() error
	)
	closeAll := func() error {
		var errs error
		for _, fn := range closers {
			errs = multierr.Append(errs, fn())
		}
		return errs
	}

	if o.Hub != nil {
		f.Add("ws", o.Hub)
	}

	if o.Mirror != nil {
		cli, err := wmodbus.NewEndpointClient(wmodbus.ClientConfig{
			Endpoint: o.Mirror.Endpoint,
			UnitID:   o.Mirror.UnitID,
			Timeout:  o.Mirror.Timeout,
		})
		if err != nil {
			return nil, nil, nil, multierr.Append(err, closeAll())
		}
		closers = append(closers, cli.Close)

		f.Add("mirror", wmodbus.NewMirror(cli, o.Channels, o.Mirror.DataAddress))
		sw = wmodbus.NewStatusWriter(cli, o.Mirror.StatusSlot, o.Mirror.DeviceName)
		logger.Info("register mirror enabled",
			zap.String("endpoint", o.Mirror.Endpoint),
			zap.Uint16("data_address", o.Mirror.DataAddress),
			zap.Uint16("status_slot", o.Mirror.StatusSlot),
		)
	}

	if o.MQTT.Enabled() {
		pub, err := wmqtt.Connect(o.MQTT, logger)
		if err != nil {
			return nil, nil, nil, multierr.Append(err, closeAll())
		}
		closers = append(closers, pub.Close)
		f.Add("mqtt", pub)
	}

	return f, sw, closeAll, nil
}
