package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

// Builder collects device settings and yields a Device only once everything
// required is present and valid. Zero-valued settings take their defaults.
type Builder struct {
	name        string
	deviceType  registermap.DeviceType
	unitAddress int
	tcp         *TCPConnection
	serial      *SerialConnection
	timeout     time.Duration
}

func NewBuilder(name string, deviceType registermap.DeviceType) *Builder {
	return &Builder{name: name, deviceType: deviceType}
}

// UnitAddress sets the Modbus station id. Zero selects the default for the
// device type.
func (b *Builder) UnitAddress(unit int) *Builder {
	b.unitAddress = unit
	return b
}

func (b *Builder) TCP(host string, port int) *Builder {
	b.tcp = &TCPConnection{Host: host, Port: port}
	return b
}

func (b *Builder) Serial(s SerialConnection) *Builder {
	b.serial = &s
	return b
}

func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

func (b *Builder) Build() (Device, error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	name := strings.TrimSpace(b.name)
	if name == "" {
		fail("device name is required")
	}
	if _, err := registermap.ParseDeviceType(string(b.deviceType)); err != nil {
		fail("%v", err)
	}

	conn := Connection{timeout: b.timeout}
	if conn.timeout == 0 {
		conn.timeout = DefaultTimeout
	}

	switch {
	case b.tcp != nil && b.serial != nil:
		fail("device %q has both tcp and serial settings", name)
	case b.tcp != nil:
		conn.kind = TCP
		conn.tcp = *b.tcp
		if conn.tcp.Port == 0 {
			conn.tcp.Port = DefaultTCPPort
		}
	case b.serial != nil:
		conn.kind = Serial
		conn.serial = withSerialDefaults(*b.serial)
	default:
		fail("device %q needs tcp or serial settings", name)
	}

	if b.tcp != nil || b.serial != nil {
		if err := conn.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("device %q: %w", name, err))
		}
	}

	unit := b.unitAddress
	if unit == 0 {
		def, ok := DefaultUnitAddress(b.deviceType, conn.kind)
		if !ok {
			fail("device %q: %s over %s has no default unit address", name, b.deviceType, conn.kind)
		}
		unit = int(def)
	}
	if unit != 0 && (unit < 1 || unit > 247) {
		fail("device %q: unit address %d out of range 1-247", name, unit)
	}

	if len(errs) > 0 {
		return Device{}, errors.Join(errs...)
	}
	return Device{
		Identity: Identity{
			Name:        name,
			DeviceType:  b.deviceType,
			UnitAddress: uint8(unit),
		},
		Connection: conn,
	}, nil
}

func withSerialDefaults(s SerialConnection) SerialConnection {
	if s.Port == "" {
		s.Port = DefaultSerialPort
	}
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.ByteSize == 0 {
		s.ByteSize = DefaultByteSize
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	s.Parity = Parity(strings.ToUpper(string(s.Parity)))
	if s.Method == "" {
		s.Method = DefaultMethod
	}
	s.Method = FrameMethod(strings.ToLower(string(s.Method)))
	return s
}
