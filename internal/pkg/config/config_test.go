package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

func TestBuilder_TCPDefaults(t *testing.T) {
	d, err := NewBuilder("roof", registermap.Inverter).TCP("192.168.1.10", 0).Build()
	require.NoError(t, err)

	assert.Equal(t, "roof", d.Identity.Name)
	assert.Equal(t, uint8(1), d.Identity.UnitAddress)
	assert.Equal(t, TCP, d.Connection.Kind())
	tcp, ok := d.Connection.TCP()
	require.True(t, ok)
	assert.Equal(t, "192.168.1.10:502", tcp.Address())
	assert.Equal(t, DefaultTimeout, d.Connection.Timeout())
	_, ok = d.Connection.Serial()
	assert.False(t, ok)
}

func TestBuilder_SerialDefaults(t *testing.T) {
	d, err := NewBuilder("attic", registermap.Battery).Serial(SerialConnection{Parity: "e"}).Build()
	require.NoError(t, err)

	s, ok := d.Connection.Serial()
	require.True(t, ok)
	assert.Equal(t, SerialConnection{
		Port:     DefaultSerialPort,
		BaudRate: 9600,
		ByteSize: 8,
		StopBits: 2,
		Parity:   ParityEven,
		Method:   MethodRTU,
	}, s)
	assert.Equal(t, "rtu /dev/ttyUSB0 9600 8E2", d.Connection.String())
}

func TestBuilder_WallboxUnitDefaults(t *testing.T) {
	d, err := NewBuilder("garage", registermap.Wallbox).TCP("wallbox.local", 502).Build()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), d.Identity.UnitAddress)

	_, err = NewBuilder("garage", registermap.Wallbox).Serial(SerialConnection{}).Build()
	assert.True(t, errors.Is(err, ErrConfiguration))

	d, err = NewBuilder("garage", registermap.Wallbox).Serial(SerialConnection{}).UnitAddress(5).Build()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), d.Identity.UnitAddress)
}

func TestBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{"no name", NewBuilder(" ", registermap.Inverter).TCP("h", 502)},
		{"bad type", NewBuilder("x", "heatpump").TCP("h", 502)},
		{"no connection", NewBuilder("x", registermap.Inverter)},
		{"both connections", NewBuilder("x", registermap.Inverter).TCP("h", 502).Serial(SerialConnection{})},
		{"empty host", NewBuilder("x", registermap.Inverter).TCP("", 502)},
		{"port too large", NewBuilder("x", registermap.Inverter).TCP("h", 70000)},
		{"unit above range", NewBuilder("x", registermap.Inverter).TCP("h", 502).UnitAddress(248)},
		{"unit negative", NewBuilder("x", registermap.Inverter).TCP("h", 502).UnitAddress(-1)},
		{"baud", NewBuilder("x", registermap.Inverter).Serial(SerialConnection{BaudRate: 9601})},
		{"byte size", NewBuilder("x", registermap.Inverter).Serial(SerialConnection{ByteSize: 9})},
		{"stop bits", NewBuilder("x", registermap.Inverter).Serial(SerialConnection{StopBits: 3})},
		{"parity", NewBuilder("x", registermap.Inverter).Serial(SerialConnection{Parity: "M"})},
		{"method", NewBuilder("x", registermap.Inverter).Serial(SerialConnection{Method: "tcp"})},
		{"timeout", NewBuilder("x", registermap.Inverter).TCP("h", 502).Timeout(-time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), err.Error())
		})
	}
}

func TestConnection_ZeroValueInvalid(t *testing.T) {
	assert.True(t, errors.Is(Connection{}.Validate(), ErrConfiguration))
}

const deviceFileYAML = `
devices:
  - name: roof
    device_type: inverter
    timeout_ms: 3000
    tcp:
      host: 192.168.1.10
  - name: garage
    device_type: wallbox
    unit_address: 7
    serial:
      port: /dev/ttyUSB1
      baud_rate: 19200
      stop_bits: 1
      parity: N
      method: ascii
`

func TestParseDevices(t *testing.T) {
	devices, err := ParseDevices([]byte(deviceFileYAML))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	roof := devices[0]
	assert.Equal(t, registermap.Inverter, roof.Identity.DeviceType)
	assert.Equal(t, 3*time.Second, roof.Connection.Timeout())
	tcp, ok := roof.Connection.TCP()
	require.True(t, ok)
	assert.Equal(t, 502, tcp.Port)

	garage := devices[1]
	assert.Equal(t, uint8(7), garage.Identity.UnitAddress)
	s, ok := garage.Connection.Serial()
	require.True(t, ok)
	assert.Equal(t, MethodASCII, s.Method)
	assert.Equal(t, 19200, s.BaudRate)
	assert.Equal(t, 8, s.ByteSize)
}

func TestParseDevices_Errors(t *testing.T) {
	_, err := ParseDevices([]byte("devices: []"))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = ParseDevices([]byte("devices: [name"))
	assert.True(t, errors.Is(err, ErrConfiguration))

	dup := `
devices:
  - {name: a, device_type: inverter, tcp: {host: h}}
  - {name: a, device_type: battery, tcp: {host: h}}
`
	_, err = ParseDevices([]byte(dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate device name")
}

func TestLoadDevices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(deviceFileYAML), 0o600))

	devices, err := LoadDevices(path)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	_, err = LoadDevices(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDeviceFromEnv(t *testing.T) {
	t.Setenv("SUNGROW_NAME", "shed")
	t.Setenv("SUNGROW_DEVICE_TYPE", "battery")
	t.Setenv("SUNGROW_HOST", "10.0.0.2")
	t.Setenv("SUNGROW_PORT", "1502")
	t.Setenv("SUNGROW_TIMEOUT", "2s")

	d, err := DeviceFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "shed", d.Identity.Name)
	assert.Equal(t, registermap.Battery, d.Identity.DeviceType)
	assert.Equal(t, 2*time.Second, d.Connection.Timeout())
	tcp, _ := d.Connection.TCP()
	assert.Equal(t, "10.0.0.2:1502", tcp.Address())
}

func TestDeviceFromEnv_NoTransport(t *testing.T) {
	t.Setenv("SUNGROW_HOST", "")
	t.Setenv("SUNGROW_SERIAL_PORT", "")
	_, err := DeviceFromEnv()
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestConfig_Device(t *testing.T) {
	devices, err := ParseDevices([]byte(deviceFileYAML))
	require.NoError(t, err)
	cfg := &Config{Devices: devices}

	d, ok := cfg.Device("garage")
	assert.True(t, ok)
	assert.Equal(t, registermap.Wallbox, d.Identity.DeviceType)

	_, ok = cfg.Device("nope")
	assert.False(t, ok)
}
