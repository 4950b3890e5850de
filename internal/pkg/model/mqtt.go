package model

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	SerialNumber string   `json:"serial_number,omitempty"`
}

// RegisterMessage is a Home Assistant MQTT discovery payload for one sensor.
type RegisterMessage struct {
	Tilda              string         `json:"~"`
	Name               string         `json:"name"`
	ID                 string         `json:"unique_id"`
	StateTopic         string         `json:"state_topic"`
	ValueTemplate      string         `json:"value_template"`
	UnitOfMeasurement  string         `json:"unit_of_measurement,omitempty"`
	DeviceClass        string         `json:"device_class,omitempty"`
	StateClass         string         `json:"state_class,omitempty"`
	AttributesTopic    string         `json:"json_attributes_topic,omitempty"`
	AttributesTemplate string         `json:"json_attributes_template,omitempty"`
	Device             RegisterDevice `json:"device"`
}
