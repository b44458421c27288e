// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
version = "0.1"
brand = "Kapok"
model = "501"
temperature_unit = "C"
alarms = [200, 210]

[serial]
port = "/dev/ttyUSB0"
baud_rate = 9600
data_bits = 8
parity = "None"
stop_bits = 1

[serial.modbus]
protocol = "modbus-rtu"

[[serial.modbus.slave]]
channel_id = "BT"
label = "Bean Temp"
color = "#ff0000"
ror_color = "#00ff00"
id = 1
function = 3
registry = 18176
divisor = 1
decode_type = "uint16"

[[serial.modbus.slave]]
channel_id = "inlet"
label = "Inlet"
color = "#0000ff"
id = 2
function = 3
registry = 18176
divisor = 1
decode_type = "uint16"

[[manual_channel]]
channel_id = "gas"
label = "Gas"
unit = "kPa"
color = "#123456"
min = 0
max = 100
step = 5
default_value = 20
`

const sampleYAML = `
version: "0.1"
brand: Generic
model: http-meter
tcp:
  ip: 192.168.1.50
  port: 8080
  http:
    channel:
      - channel_id: BT
        label: Bean Temp
        color: "#ff0000"
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "roastcraft.toml", sampleTOML))
	require.NoError(t, err)

	require.NotNil(t, cfg.Serial)
	require.NotNil(t, cfg.Serial.Modbus)
	assert.Equal(t, "Kapok", cfg.Brand)
	assert.Equal(t, []int{200, 210}, cfg.Alarms)
	assert.Equal(t, "none", cfg.Serial.Parity)
	assert.Equal(t, ProtocolRTU, cfg.Serial.Modbus.Protocol)
	require.Len(t, cfg.Serial.Modbus.Slave, 2)
	assert.Equal(t, uint16(18176), cfg.Serial.Modbus.Slave[0].Registry)
	require.NotNil(t, cfg.Serial.Modbus.Slave[0].RorColor)
	assert.Nil(t, cfg.Serial.Modbus.Slave[1].RorColor)
	assert.Equal(t, []string{"BT", "inlet"}, cfg.Channels())
	require.Len(t, cfg.ManualChannel, 1)
	assert.Equal(t, uint16(20), cfg.ManualChannel[0].DefaultValue)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "machine.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Nil(t, cfg.Serial)
	require.NotNil(t, cfg.Tcp)
	assert.Equal(t, uint16(8080), cfg.Tcp.Port)
	assert.Equal(t, []string{"BT"}, cfg.Channels())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.toml", "[serial\nport="))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "invalid.toml", "[serial]\nport = \"\"\nbaud_rate = 9600\n"))
	assert.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	cfg, err := Load(writeFile(t, "roastcraft.toml", sampleTOML))
	require.NoError(t, err)

	cp := cfg.Clone()
	cp.Serial.Modbus.Slave[0].ChannelID = "changed"
	*cp.Serial.Modbus.Slave[0].RorColor = "#000000"
	cp.Alarms[0] = 1

	assert.Equal(t, "BT", cfg.Serial.Modbus.Slave[0].ChannelID)
	assert.Equal(t, "#00ff00", *cfg.Serial.Modbus.Slave[0].RorColor)
	assert.Equal(t, 200, cfg.Alarms[0])
}
