package config

type Config struct {
	Devices          []Device
	MqttCfg          *MqttConfig
	DatabaseURL      string
	MigrationsFolder string
	HTTPAddr         string
	PollSchedule     string
	LogLevel         string
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// Device returns the configured device with the given name.
func (c *Config) Device(name string) (Device, bool) {
	for _, d := range c.Devices {
		if d.Identity.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
