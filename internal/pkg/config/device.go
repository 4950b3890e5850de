package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

// ErrConfiguration marks malformed connection or identity parameters. It is
// never retryable.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultTCPPort    = 502
	DefaultSerialPort = "/dev/ttyUSB0"
	DefaultBaudRate   = 9600
	DefaultByteSize   = 8
	DefaultStopBits   = 2
	DefaultParity     = ParityNone
	DefaultMethod     = MethodRTU
	DefaultTimeout    = 5 * time.Second
)

type ConnectionKind int

const (
	TCP ConnectionKind = iota
	Serial
)

func (k ConnectionKind) String() string {
	if k == Serial {
		return "serial"
	}
	return "tcp"
}

type Parity string

const (
	ParityNone Parity = "N"
	ParityEven Parity = "E"
	ParityOdd  Parity = "O"
)

type FrameMethod string

const (
	MethodRTU   FrameMethod = "rtu"
	MethodASCII FrameMethod = "ascii"
)

var baudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

type TCPConnection struct {
	Host string
	Port int
}

func (c TCPConnection) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type SerialConnection struct {
	Port     string
	BaudRate int
	ByteSize int
	StopBits int
	Parity   Parity
	Method   FrameMethod
}

// Connection says how to reach a device. Values are only produced by Builder
// and are fully defaulted and validated.
type Connection struct {
	kind    ConnectionKind
	tcp     TCPConnection
	serial  SerialConnection
	timeout time.Duration
}

func (c Connection) Kind() ConnectionKind {
	return c.kind
}

func (c Connection) TCP() (TCPConnection, bool) {
	return c.tcp, c.kind == TCP
}

func (c Connection) Serial() (SerialConnection, bool) {
	return c.serial, c.kind == Serial
}

// Timeout bounds each request and the initial connect.
func (c Connection) Timeout() time.Duration {
	return c.timeout
}

func (c Connection) String() string {
	if c.kind == Serial {
		s := c.serial
		return fmt.Sprintf("%s %s %d %d%s%d", s.Method, s.Port, s.BaudRate, s.ByteSize, s.Parity, s.StopBits)
	}
	return "tcp " + c.tcp.Address()
}

// Validate re-checks the invariants Builder enforces. The zero Connection is
// invalid.
func (c Connection) Validate() error {
	if c.timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrConfiguration)
	}
	switch c.kind {
	case TCP:
		return validateTCP(c.tcp)
	case Serial:
		return validateSerial(c.serial)
	}
	return fmt.Errorf("%w: unknown connection kind %d", ErrConfiguration, c.kind)
}

type Identity struct {
	Name        string
	DeviceType  registermap.DeviceType
	UnitAddress uint8
}

type Device struct {
	Identity   Identity
	Connection Connection
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%s, unit %d, %s)", d.Identity.Name, d.Identity.DeviceType, d.Identity.UnitAddress, d.Connection)
}

// DefaultUnitAddress is the factory unit address of a device type on a
// connection kind. A serial wallbox has no usable default.
func DefaultUnitAddress(dt registermap.DeviceType, kind ConnectionKind) (uint8, bool) {
	switch dt {
	case registermap.Inverter, registermap.Battery:
		return 1, true
	case registermap.Wallbox:
		if kind == TCP {
			return 3, true
		}
	}
	return 0, false
}

func validateTCP(c TCPConnection) error {
	if c.Host == "" {
		return fmt.Errorf("%w: tcp host is required", ErrConfiguration)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: tcp port %d out of range 1-65535", ErrConfiguration, c.Port)
	}
	return nil
}

func validateSerial(c SerialConnection) error {
	if c.Port == "" {
		return fmt.Errorf("%w: serial port is required", ErrConfiguration)
	}
	if !lo.Contains(baudRates, c.BaudRate) {
		return fmt.Errorf("%w: invalid baud rate %d", ErrConfiguration, c.BaudRate)
	}
	if c.ByteSize < 5 || c.ByteSize > 8 {
		return fmt.Errorf("%w: byte size %d not in 5-8", ErrConfiguration, c.ByteSize)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("%w: stop bits %d not 1 or 2", ErrConfiguration, c.StopBits)
	}
	switch c.Parity {
	case ParityNone, ParityEven, ParityOdd:
	default:
		return fmt.Errorf("%w: invalid parity %q", ErrConfiguration, c.Parity)
	}
	switch c.Method {
	case MethodRTU, MethodASCII:
	default:
		return fmt.Errorf("%w: invalid frame method %q", ErrConfiguration, c.Method)
	}
	return nil
}
