package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

type fileConfig struct {
	Devices []deviceFile `yaml:"devices"`
}

type deviceFile struct {
	Name        string      `yaml:"name"`
	DeviceType  string      `yaml:"device_type"`
	UnitAddress int         `yaml:"unit_address"`
	TimeoutMS   int         `yaml:"timeout_ms"`
	TCP         *tcpFile    `yaml:"tcp"`
	Serial      *serialFile `yaml:"serial"`
}

type tcpFile struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type serialFile struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	ByteSize int    `yaml:"byte_size"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
	Method   string `yaml:"method"`
}

func LoadDevices(path string) ([]Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device file: %w", err)
	}
	return ParseDevices(data)
}

// ParseDevices builds every device declared in a YAML device file. All
// problems are reported together.
func ParseDevices(data []byte) ([]Device, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse device file: %w", ErrConfiguration, err)
	}
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("%w: device file declares no devices", ErrConfiguration)
	}

	var (
		devices = make([]Device, 0, len(cfg.Devices))
		seen    = make(map[string]struct{}, len(cfg.Devices))
		errs    []error
	)
	for i, df := range cfg.Devices {
		d, err := df.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("devices[%d]: %w", i, err))
			continue
		}
		if _, dup := seen[d.Identity.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: devices[%d]: duplicate device name %q", ErrConfiguration, i, d.Identity.Name))
			continue
		}
		seen[d.Identity.Name] = struct{}{}
		devices = append(devices, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return devices, nil
}

func (df deviceFile) build() (Device, error) {
	b := NewBuilder(df.Name, registermap.DeviceType(df.DeviceType)).
		UnitAddress(df.UnitAddress).
		Timeout(time.Duration(df.TimeoutMS) * time.Millisecond)
	if df.TCP != nil {
		b.TCP(df.TCP.Host, df.TCP.Port)
	}
	if df.Serial != nil {
		b.Serial(SerialConnection{
			Port:     df.Serial.Port,
			BaudRate: df.Serial.BaudRate,
			ByteSize: df.Serial.ByteSize,
			StopBits: df.Serial.StopBits,
			Parity:   Parity(df.Serial.Parity),
			Method:   FrameMethod(df.Serial.Method),
		})
	}
	return b.Build()
}
