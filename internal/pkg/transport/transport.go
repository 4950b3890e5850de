// Package transport opens Modbus sessions over TCP or a serial line.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
)

var (
	ErrConfiguration = config.ErrConfiguration
	ErrConnection    = errors.New("connection error")
	ErrTransport     = errors.New("transport error")
	ErrClosed        = fmt.Errorf("%w: session closed", ErrTransport)
)

// Session is a live connection to one device. It serves one request at a
// time; callers must not share it between goroutines. Once closed it is dead
// and a new one must be opened.
type Session interface {
	ReadInputRegisters(ctx context.Context, unit byte, address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(ctx context.Context, unit byte, address, quantity uint16) ([]byte, error)
	WriteSingleRegister(ctx context.Context, unit byte, address, value uint16) ([]byte, error)
	Close() error
}

// handler is what goburrow's TCP, RTU and ASCII handlers have in common.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

type session struct {
	handler handler
	client  modbus.Client
	setUnit func(byte)
	closed  atomic.Bool
	desc    string
	logger  *zap.Logger
}

// Connect opens a session for the connection. Malformed or unresolvable
// addressing fails with ErrConfiguration, anything that stops the link from
// coming up fails with ErrConnection.
func Connect(ctx context.Context, conn config.Connection) (Session, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	logger := zap.L().With(zap.String("connection", conn.String()))

	var (
		h       handler
		setUnit func(byte)
	)
	switch conn.Kind() {
	case config.TCP:
		tcp, _ := conn.TCP()
		if err := resolve(ctx, tcp.Host); err != nil {
			return nil, err
		}
		th := modbus.NewTCPClientHandler(tcp.Address())
		th.Timeout = conn.Timeout()
		th.IdleTimeout = 0
		h = th
		setUnit = func(unit byte) { th.SlaveId = unit }
		if logger.Core().Enabled(zap.DebugLevel) {
			th.Logger = zap.NewStdLog(logger.Named("modbus"))
		}
	case config.Serial:
		s, _ := conn.Serial()
		switch s.Method {
		case config.MethodASCII:
			ah := modbus.NewASCIIClientHandler(s.Port)
			ah.BaudRate = s.BaudRate
			ah.DataBits = s.ByteSize
			ah.StopBits = s.StopBits
			ah.Parity = string(s.Parity)
			ah.Timeout = conn.Timeout()
			ah.IdleTimeout = 0
			h = ah
			setUnit = func(unit byte) { ah.SlaveId = unit }
		default:
			rh := modbus.NewRTUClientHandler(s.Port)
			rh.BaudRate = s.BaudRate
			rh.DataBits = s.ByteSize
			rh.StopBits = s.StopBits
			rh.Parity = string(s.Parity)
			rh.Timeout = conn.Timeout()
			rh.IdleTimeout = 0
			h = rh
			setUnit = func(unit byte) { rh.SlaveId = unit }
		}
	default:
		return nil, fmt.Errorf("%w: unknown connection kind %s", ErrConfiguration, conn.Kind())
	}

	if err := connect(ctx, h); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, conn, err)
	}
	logger.Debug("session opened")

	return &session{
		handler: h,
		client:  modbus.NewClient(h),
		setUnit: setUnit,
		desc:    conn.String(),
		logger:  logger,
	}, nil
}

func resolve(ctx context.Context, host string) error {
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return fmt.Errorf("%w: resolve host %q: %w", ErrConfiguration, host, err)
	}
	return nil
}

// connect dials in the background so a cancelled context does not have to
// wait out the dial timeout. A dial that completes after cancellation is
// closed again.
func connect(ctx context.Context, h handler) error {
	done := make(chan error, 1)
	go func() { done <- h.Connect() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		go func() {
			if err := <-done; err == nil {
				_ = h.Close()
			}
		}()
		return ctx.Err()
	}
}

func (s *session) ReadInputRegisters(ctx context.Context, unit byte, address, quantity uint16) ([]byte, error) {
	return s.do(ctx, unit, func() ([]byte, error) {
		return s.client.ReadInputRegisters(address, quantity)
	})
}

func (s *session) ReadHoldingRegisters(ctx context.Context, unit byte, address, quantity uint16) ([]byte, error) {
	return s.do(ctx, unit, func() ([]byte, error) {
		return s.client.ReadHoldingRegisters(address, quantity)
	})
}

func (s *session) WriteSingleRegister(ctx context.Context, unit byte, address, value uint16) ([]byte, error) {
	return s.do(ctx, unit, func() ([]byte, error) {
		return s.client.WriteSingleRegister(address, value)
	})
}

// do runs one exchange. If ctx ends first the session is closed and the
// exchange abandoned; its late result is discarded.
func (s *session) do(ctx context.Context, unit byte, exchange func() ([]byte, error)) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	s.setUnit(unit)

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := exchange()
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, classify(r.err)
		}
		return r.data, nil
	case <-ctx.Done():
		s.closed.Store(true)
		go func() {
			<-done
			_ = s.handler.Close()
		}()
		s.logger.Debug("request abandoned", zap.Error(ctx.Err()))
		return nil, fmt.Errorf("%w: request abandoned: %w", ErrTransport, ctx.Err())
	}
}

// classify passes device exceptions through untouched and marks everything
// else as a transport failure.
func classify(err error) error {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Close releases the connection. Closing twice is a no-op.
func (s *session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.logger.Debug("session closed")
	return s.handler.Close()
}

func (s *session) String() string {
	return s.desc
}
