// internal/config/config.go
package config

// Config is the root of the roaster machine description.
// It is loaded once at process start and treated as read-only afterwards.
type Config struct {
	Version         string          `toml:"version" yaml:"version" json:"version"`
	Brand           string          `toml:"brand" yaml:"brand" json:"brand"`
	Model           string          `toml:"model" yaml:"model" json:"model"`
	TemperatureUnit string          `toml:"temperature_unit" yaml:"temperature_unit" json:"temperature_unit"`
	Alarms          []int           `toml:"alarms" yaml:"alarms" json:"alarms"`
	Serial          *Serial         `toml:"serial" yaml:"serial" json:"serial,omitempty"`
	Tcp             *Tcp            `toml:"tcp" yaml:"tcp" json:"tcp,omitempty"`
	ManualChannel   []ManualChannel `toml:"manual_channel" yaml:"manual_channel" json:"manual_channel,omitempty"`
}

// ---- TRANSPORTS ----

type Serial struct {
	Port     string  `toml:"port" yaml:"port" json:"port"`
	BaudRate int     `toml:"baud_rate" yaml:"baud_rate" json:"baud_rate"`
	DataBits int     `toml:"data_bits" yaml:"data_bits" json:"data_bits"`
	Parity   string  `toml:"parity" yaml:"parity" json:"parity"`
	StopBits int     `toml:"stop_bits" yaml:"stop_bits" json:"stop_bits"`
	Modbus   *Modbus `toml:"modbus" yaml:"modbus" json:"modbus,omitempty"`
	Ta612c   *Ta612c `toml:"ta612c" yaml:"ta612c" json:"ta612c,omitempty"`
}

type Tcp struct {
	IP     string  `toml:"ip" yaml:"ip" json:"ip"`
	Port   uint16  `toml:"port" yaml:"port" json:"port"`
	Modbus *Modbus `toml:"modbus" yaml:"modbus" json:"modbus,omitempty"`
	Http   *Http   `toml:"http" yaml:"http" json:"http,omitempty"`
}

// ---- PROTOCOLS ----

const (
	ProtocolRTU   = "modbus-rtu"
	ProtocolASCII = "modbus-ascii"
)

type Modbus struct {
	Protocol string  `toml:"protocol" yaml:"protocol" json:"protocol"`
	Slave    []Slave `toml:"slave" yaml:"slave" json:"slave"`
}

// Ta612c binds channel position 0..3 to the four fixed response fields.
type Ta612c struct {
	Channel []Channel `toml:"channel" yaml:"channel" json:"channel"`
}

// Http channels are advisory; the polled body is forwarded as-is.
type Http struct {
	Channel []Channel `toml:"channel" yaml:"channel" json:"channel"`
}

// ---- CHANNELS ----

type Channel struct {
	ChannelID string  `toml:"channel_id" yaml:"channel_id" json:"channel_id"`
	Label     string  `toml:"label" yaml:"label" json:"label"`
	Color     string  `toml:"color" yaml:"color" json:"color"`
	RorColor  *string `toml:"ror_color" yaml:"ror_color" json:"ror_color,omitempty"`
}

// Slave is one register read producing one channel value.
type Slave struct {
	ChannelID string  `toml:"channel_id" yaml:"channel_id" json:"channel_id"`
	Label     string  `toml:"label" yaml:"label" json:"label"`
	Color     string  `toml:"color" yaml:"color" json:"color"`
	RorColor  *string `toml:"ror_color" yaml:"ror_color" json:"ror_color,omitempty"`

	ID       uint16 `toml:"id" yaml:"id" json:"id"`
	Function uint16 `toml:"function" yaml:"function" json:"function"`
	Registry uint16 `toml:"registry" yaml:"registry" json:"registry"`

	// Divisor and DecodeType are carried but not applied: values are
	// always scaled as round(raw*10)/100.
	Divisor    uint16 `toml:"divisor" yaml:"divisor" json:"divisor"`
	DecodeType string `toml:"decode_type" yaml:"decode_type" json:"decode_type"`
}

type ManualChannel struct {
	ChannelID    string `toml:"channel_id" yaml:"channel_id" json:"channel_id"`
	Label        string `toml:"label" yaml:"label" json:"label"`
	Unit         string `toml:"unit" yaml:"unit" json:"unit"`
	Color        string `toml:"color" yaml:"color" json:"color"`
	Min          uint16 `toml:"min" yaml:"min" json:"min"`
	Max          uint16 `toml:"max" yaml:"max" json:"max"`
	Step         uint16 `toml:"step" yaml:"step" json:"step"`
	DefaultValue uint16 `toml:"default_value" yaml:"default_value" json:"default_value"`
}

// Channels returns the ids of the acquired channels in polling order.
// Manual channels are not acquired and are not listed.
func (c *Config) Channels() []string {
	if c == nil {
		return nil
	}

	var ids []string
	if s := c.Serial; s != nil {
		if s.Modbus != nil {
			for _, sl := range s.Modbus.Slave {
				ids = append(ids, sl.ChannelID)
			}
			return ids
		}
		if s.Ta612c != nil {
			for _, ch := range s.Ta612c.Channel {
				ids = append(ids, ch.ChannelID)
			}
		}
		return ids
	}
	if c.Tcp != nil && c.Tcp.Http != nil {
		for _, ch := range c.Tcp.Http.Channel {
			ids = append(ids, ch.ChannelID)
		}
	}
	return ids
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	out := *c
	out.Alarms = append([]int(nil), c.Alarms...)
	out.ManualChannel = append([]ManualChannel(nil), c.ManualChannel...)

	if c.Serial != nil {
		s := *c.Serial
		s.Modbus = c.Serial.Modbus.clone()
		if c.Serial.Ta612c != nil {
			s.Ta612c = &Ta612c{Channel: cloneChannels(c.Serial.Ta612c.Channel)}
		}
		out.Serial = &s
	}

	if c.Tcp != nil {
		t := *c.Tcp
		t.Modbus = c.Tcp.Modbus.clone()
		if c.Tcp.Http != nil {
			t.Http = &Http{Channel: cloneChannels(c.Tcp.Http.Channel)}
		}
		out.Tcp = &t
	}

	return &out
}

func (m *Modbus) clone() *Modbus {
	if m == nil {
		return nil
	}
	out := &Modbus{Protocol: m.Protocol, Slave: make([]Slave, len(m.Slave))}
	for i, s := range m.Slave {
		s.RorColor = cloneString(s.RorColor)
		out.Slave[i] = s
	}
	return out
}

func cloneChannels(in []Channel) []Channel {
	if in == nil {
		return nil
	}
	out := make([]Channel, len(in))
	for i, ch := range in {
		ch.RorColor = cloneString(ch.RorColor)
		out[i] = ch
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
