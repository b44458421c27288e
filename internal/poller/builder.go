// internal/poller/builder.go
package poller

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/poller/httpdev"
	pmodbus "github.com/roastcraft/roastcraft-daq/internal/poller/modbus"
	"github.com/roastcraft/roastcraft-daq/internal/poller/ta612c"
	"github.com/roastcraft/roastcraft-daq/internal/serialport"
)

// BuildOptions carries the collaborators a device may need. Zero values use defaults.
type BuildOptions struct {
	Open       serialport.Opener
	HTTPClient *http.Client
	Notifier   Notifier
	Logger     *zap.Logger
}

// Factory constructs the device for one session.
type Factory func(cfg *config.Config) (device.Device, Kind, error)

// Select picks the strategy from which sub-configs are present.
// Serial with modbus wins, then any serial (ta612c), then http.
func Select(cfg *config.Config) (Kind, error) {
	if cfg == nil {
		return "", fmt.Errorf("%w: no configuration loaded", device.ErrConfiguration)
	}
	if cfg.Serial != nil {
		if cfg.Serial.Modbus != nil {
			return KindModbus, nil
		}
		return KindTa612c, nil
	}
	return KindHTTP, nil
}

// Build selects and constructs the device. ONE attempt, no retries.
func Build(cfg *config.Config, opts BuildOptions) (device.Device, Kind, error) {
	kind, err := Select(cfg)
	if err != nil {
		return nil, kind, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}

	switch kind {
	case KindModbus:
		d, err := pmodbus.New(cfg.Serial, opts.Open, logger)
		if err != nil {
			return nil, kind, err
		}
		return d, kind, nil

	case KindTa612c:
		d, err := ta612c.New(cfg.Serial, opts.Open, logger)
		if err != nil {
			return nil, kind, err
		}
		return d, kind, nil

	default:
		var n httpdev.Notifier
		if opts.Notifier != nil {
			n = opts.Notifier
		}
		d, err := httpdev.New(cfg.Tcp, opts.HTTPClient, n, logger)
		if err != nil {
			return nil, kind, err
		}
		return d, kind, nil
	}
}

// DefaultFactory binds Build to opts.
func DefaultFactory(opts BuildOptions) Factory {
	return func(cfg *config.Config) (device.Device, Kind, error) {
		return Build(cfg, opts)
	}
}
