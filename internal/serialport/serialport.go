// internal/serialport/serialport.go

// Package serialport opens the serial line described by the roaster configuration.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goburrow/serial"

	"github.com/roastcraft/roastcraft-daq/internal/config"
)

// ReadTimeout bounds every single Read on the port.
// A stuck device therefore returns serial.ErrTimeout instead of blocking forever.
const ReadTimeout = time.Second

// Opener opens a serial line. Devices take an Opener so tests can substitute a pipe.
type Opener func(c *config.Serial) (io.ReadWriteCloser, error)

// Open is the default Opener backed by github.com/goburrow/serial.
func Open(c *config.Serial) (io.ReadWriteCloser, error) {
	if c == nil {
		return nil, errors.New("serialport: no serial configuration")
	}

	port, err := serial.Open(Mode(c))
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", c.Port, err)
	}
	return port, nil
}

// Mode maps the configured line settings onto a serial.Config.
// Unknown values fall back to 8 data bits, no parity, 1 stop bit.
func Mode(c *config.Serial) *serial.Config {
	mode := &serial.Config{
		Address:  c.Port,
		BaudRate: c.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  ReadTimeout,
	}

	switch c.DataBits {
	case 5, 6, 7:
		mode.DataBits = c.DataBits
	}

	switch strings.ToLower(c.Parity) {
	case "even":
		mode.Parity = "E"
	case "odd":
		mode.Parity = "O"
	}

	if c.StopBits == 2 {
		mode.StopBits = 2
	}

	return mode
}

// IsTimeout reports whether err is a per-read port timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, serial.ErrTimeout)
}
