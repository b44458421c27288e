// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}

	// ------------------------------------------------------------
	// CHANNEL ID UNIQUENESS (whole tree)
	// ------------------------------------------------------------

	seen := make(map[string]string)
	claim := func(id, where string) error {
		if id == "" {
			return fmt.Errorf("%s: channel_id is required", where)
		}
		if prev, exists := seen[id]; exists {
			return fmt.Errorf("channel_id %q used by %s and %s", id, prev, where)
		}
		seen[id] = where
		return nil
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if s := cfg.Serial; s != nil {
		if s.Port == "" {
			return fmt.Errorf("serial: port is required")
		}
		if s.BaudRate <= 0 {
			return fmt.Errorf("serial: baud_rate must be > 0, got %d", s.BaudRate)
		}
		switch s.DataBits {
		case 0, 5, 6, 7, 8:
		default:
			return fmt.Errorf("serial: data_bits must be one of 5,6,7,8, got %d", s.DataBits)
		}
		switch s.StopBits {
		case 0, 1, 2:
		default:
			return fmt.Errorf("serial: stop_bits must be 1 or 2, got %d", s.StopBits)
		}
		switch strings.ToLower(strings.TrimSpace(s.Parity)) {
		case "", "none", "even", "odd":
		default:
			return fmt.Errorf("serial: parity must be none, even or odd, got %q", s.Parity)
		}

		if s.Modbus != nil {
			if err := validateModbus("serial.modbus", s.Modbus, claim); err != nil {
				return err
			}
		}
		if s.Ta612c != nil {
			for i, ch := range s.Ta612c.Channel {
				if err := claim(ch.ChannelID, fmt.Sprintf("serial.ta612c.channel[%d]", i)); err != nil {
					return err
				}
			}
		}
	}

	// ------------------------------------------------------------
	// TCP
	// ------------------------------------------------------------

	if t := cfg.Tcp; t != nil {
		if t.IP == "" {
			return fmt.Errorf("tcp: ip is required")
		}
		if t.Port == 0 {
			return fmt.Errorf("tcp: port is required")
		}
		if t.Modbus != nil {
			if err := validateModbus("tcp.modbus", t.Modbus, claim); err != nil {
				return err
			}
		}
		if t.Http != nil {
			for i, ch := range t.Http.Channel {
				if err := claim(ch.ChannelID, fmt.Sprintf("tcp.http.channel[%d]", i)); err != nil {
					return err
				}
			}
		}
	}

	for i, mc := range cfg.ManualChannel {
		where := fmt.Sprintf("manual_channel[%d]", i)
		if err := claim(mc.ChannelID, where); err != nil {
			return err
		}
		if mc.Min > mc.Max {
			return fmt.Errorf("%s: min %d > max %d", where, mc.Min, mc.Max)
		}
	}

	return nil
}

func validateModbus(where string, m *Modbus, claim func(id, where string) error) error {
	switch strings.ToLower(strings.TrimSpace(m.Protocol)) {
	case "rtu", ProtocolRTU, "ascii", ProtocolASCII:
	default:
		return fmt.Errorf("%s: unsupported protocol %q", where, m.Protocol)
	}

	if len(m.Slave) == 0 {
		return fmt.Errorf("%s: at least one slave required", where)
	}

	for i, s := range m.Slave {
		sw := fmt.Sprintf("%s.slave[%d]", where, i)
		if err := claim(s.ChannelID, sw); err != nil {
			return err
		}
		if s.ID > 247 {
			return fmt.Errorf("%s: id %d out of range (1-247)", sw, s.ID)
		}
	}

	return nil
}
