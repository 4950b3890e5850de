// Package verifier confirms a device is reachable and identifies its model.
package verifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
)

type Result struct {
	ModelName    string `json:"model_name"`
	SerialNumber string `json:"serial_number"`
}

// Reader reads and decodes one descriptor.
type Reader interface {
	Read(ctx context.Context, d registermap.Descriptor) (decoder.Value, error)
}

// ConnectFunc opens a transport session.
type ConnectFunc func(ctx context.Context, conn config.Connection) (transport.Session, error)

type Verifier struct {
	connect ConnectFunc
	logger  *zap.Logger
}

func New() *Verifier {
	return NewWithConnect(transport.Connect)
}

func NewWithConnect(connect ConnectFunc) *Verifier {
	return &Verifier{
		connect: connect,
		logger:  zap.L(),
	}
}

// Verify opens a session to the device, identifies it and closes the session
// again whatever the outcome.
func (v *Verifier) Verify(ctx context.Context, device config.Device) (Result, error) {
	logger := v.logger.With(zap.String("device", device.Identity.Name))

	session, err := v.connect(ctx, device.Connection)
	if err != nil {
		return Result{}, fmt.Errorf("verify %q: %w", device.Identity.Name, err)
	}
	client := registers.NewClient(session, device.Identity.UnitAddress)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Debug("failed to close session", zap.Error(err))
		}
	}()

	res, err := Identify(ctx, client, device.Identity.DeviceType)
	if err != nil {
		return Result{}, fmt.Errorf("verify %q: %w", device.Identity.Name, err)
	}
	logger.Info("device verified",
		zap.String("model", res.ModelName),
		zap.String("serial_number", res.SerialNumber),
	)
	return res, nil
}

// Identify reads the serial number and model of an already connected device.
func Identify(ctx context.Context, r Reader, dt registermap.DeviceType) (Result, error) {
	serialDesc, modelDesc, err := registermap.Identification(dt)
	if err != nil {
		return Result{}, err
	}
	serial, err := r.Read(ctx, serialDesc)
	if err != nil {
		return Result{}, err
	}
	modelName, err := r.Read(ctx, modelDesc)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ModelName:    modelName.Text,
		SerialNumber: serial.Text,
	}, nil
}
