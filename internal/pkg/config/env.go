package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

type deviceEnv struct {
	Name        string        `env:"NAME" envDefault:"sungrow"`
	DeviceType  string        `env:"DEVICE_TYPE" envDefault:"inverter"`
	UnitAddress int           `env:"UNIT_ADDRESS"`
	Host        string        `env:"HOST"`
	Port        int           `env:"PORT"`
	SerialPort  string        `env:"SERIAL_PORT"`
	BaudRate    int           `env:"BAUD_RATE"`
	ByteSize    int           `env:"BYTE_SIZE"`
	StopBits    int           `env:"STOP_BITS"`
	Parity      string        `env:"PARITY"`
	Method      string        `env:"METHOD"`
	Timeout     time.Duration `env:"TIMEOUT"`
}

// DeviceFromEnv builds a single device from SUNGROW_* variables. SUNGROW_HOST
// selects TCP, otherwise SUNGROW_SERIAL_PORT selects serial.
func DeviceFromEnv() (Device, error) {
	e, err := env.ParseAsWithOptions[deviceEnv](env.Options{Prefix: "SUNGROW_"})
	if err != nil {
		return Device{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	b := NewBuilder(e.Name, registermap.DeviceType(e.DeviceType)).
		UnitAddress(e.UnitAddress).
		Timeout(e.Timeout)
	switch {
	case e.Host != "":
		b.TCP(e.Host, e.Port)
	case e.SerialPort != "":
		b.Serial(SerialConnection{
			Port:     e.SerialPort,
			BaudRate: e.BaudRate,
			ByteSize: e.ByteSize,
			StopBits: e.StopBits,
			Parity:   Parity(e.Parity),
			Method:   FrameMethod(e.Method),
		})
	default:
		return Device{}, fmt.Errorf("%w: set SUNGROW_HOST or SUNGROW_SERIAL_PORT", ErrConfiguration)
	}
	return b.Build()
}
