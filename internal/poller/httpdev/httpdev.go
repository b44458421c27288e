// internal/poller/httpdev/httpdev.go
package httpdev

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Notifier receives user-facing log events.
type Notifier interface {
	Notify(message string)
}

// Device polls a JSON endpoint and forwards the body as the snapshot.
type Device struct {
	url      string
	client   *http.Client
	notifier Notifier
	logger   *zap.Logger
}

var _ device.Device = (*Device)(nil)

// New builds the adapter for http://ip:port. client and notifier may be nil.
func New(cfg *config.Tcp, client *http.Client, notifier Notifier, logger *zap.Logger) (*Device, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: tcp configuration missing", device.ErrConfiguration)
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.L()
	}

	u := "http://" + net.JoinHostPort(cfg.IP, strconv.Itoa(int(cfg.Port)))
	return &Device{
		url:      u,
		client:   client,
		notifier: notifier,
		logger:   logger.With(zap.String("device", "http"), zap.String("url", u)),
	}, nil
}

// URL is the polled endpoint.
func (d *Device) URL() string { return d.url }

// Read issues one GET bound to ctx.
//
// A transport failure is reported and yields a nil snapshot with no error,
// so the cycle still publishes. Any JSON value is forwarded unmodified;
// only a body that is not JSON is a protocol error.
func (d *Device) Read(ctx context.Context) (device.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", device.ErrTransport, err)
	}

	res, err := d.client.Do(req)
	if err != nil {
		// the tick deadline belongs to the supervisor
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Error("http poll failed", zap.Error(err))
		if d.notifier != nil {
			d.notifier.Notify(fmt.Sprintf("http poll %s failed: %v", d.url, err))
		}
		return nil, nil
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", device.ErrProtocol, err)
	}

	var snap any
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", device.ErrProtocol, err)
	}
	return snap, nil
}

// Close drops idle keep-alive connections.
func (d *Device) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
