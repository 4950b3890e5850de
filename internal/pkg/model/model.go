package model

// Device is an identified physical unit behind a configured connection.
type Device struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"device_type"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}
