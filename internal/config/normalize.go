// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if s := cfg.Serial; s != nil {
		// Serial line defaults (8N1)
		if s.DataBits == 0 {
			s.DataBits = 8
		}
		if s.StopBits == 0 {
			s.StopBits = 1
		}
		s.Parity = strings.ToLower(strings.TrimSpace(s.Parity))
		if s.Parity == "" {
			s.Parity = "none"
		}

		normalizeModbus(s.Modbus)
	}

	if t := cfg.Tcp; t != nil {
		normalizeModbus(t.Modbus)
	}
}

func normalizeModbus(m *Modbus) {
	if m == nil {
		return
	}

	switch strings.ToLower(strings.TrimSpace(m.Protocol)) {
	case "rtu", ProtocolRTU:
		m.Protocol = ProtocolRTU
	case "ascii", ProtocolASCII:
		m.Protocol = ProtocolASCII
	}

	// Only 4 (input registers) is honoured; every other code reads holding
	// registers, so machine files written with other codes keep loading.
	for i := range m.Slave {
		if m.Slave[i].Function != 4 {
			m.Slave[i].Function = 3
		}
	}
}
