package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
)

// loadDevices reads the device file named by --config, or builds a single
// device from SUNGROW_* variables when no file is given.
func loadDevices(c *cli.Context) ([]config.Device, error) {
	if path := c.String("config"); path != "" {
		return config.LoadDevices(path)
	}
	d, err := config.DeviceFromEnv()
	if err != nil {
		return nil, err
	}
	return []config.Device{d}, nil
}

// selectDevice picks the device called name. An empty name is allowed only
// when exactly one device is configured.
func selectDevice(devices []config.Device, name string) (config.Device, error) {
	if name == "" {
		if len(devices) == 1 {
			return devices[0], nil
		}
		return config.Device{}, fmt.Errorf("%d devices configured, pick one with --device", len(devices))
	}
	cfg := config.Config{Devices: devices}
	d, ok := cfg.Device(name)
	if !ok {
		return config.Device{}, fmt.Errorf("no device named %q", name)
	}
	return d, nil
}
