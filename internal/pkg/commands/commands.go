// Package commands drives the inverter's writable settings.
package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

var ErrUnsupported = errors.New("command not supported")

// Enum labels written by the commands.
const (
	EMSSelfConsumption = "Self-consumption mode"
	EMSForced          = "Forced mode"
	ForcedCharge       = "Charge"
	ForcedDischarge    = "Discharge"
	ForcedStop         = "Stop"
	InverterStart      = "Start"
	InverterStop       = "Stop"
	ExportLimitOn      = "Enabled"
	ExportLimitOff     = "Disabled"
)

type RegisterWriter interface {
	WriteRegister(ctx context.Context, address, value uint16) error
}

// Service turns named operations into single-register writes. The writes of
// one command are issued in order and are not atomic: a failure part way
// leaves the earlier writes applied.
type Service struct {
	writer     RegisterWriter
	deviceType registermap.DeviceType
	logger     *zap.Logger
}

func New(writer RegisterWriter, deviceType registermap.DeviceType) *Service {
	return &Service{
		writer:     writer,
		deviceType: deviceType,
		logger:     zap.L(),
	}
}

// step writes either an enum label or a raw value to a key.
type step struct {
	key   string
	label string
	value uint16
}

func label(key, l string) step {
	return step{key: key, label: l}
}

func raw(key string, v uint16) step {
	return step{key: key, value: v}
}

func (s *Service) SelfConsumption(ctx context.Context) error {
	return s.apply(ctx, "self consumption",
		label(registermap.KeyEMSMode, EMSSelfConsumption),
		label(registermap.KeyForcedCommand, ForcedStop),
	)
}

func (s *Service) ForcedCharge(ctx context.Context, watts uint16) error {
	return s.apply(ctx, "forced charge",
		label(registermap.KeyEMSMode, EMSForced),
		label(registermap.KeyForcedCommand, ForcedCharge),
		raw(registermap.KeyForcedPower, watts),
	)
}

func (s *Service) ForcedDischarge(ctx context.Context, watts uint16) error {
	return s.apply(ctx, "forced discharge",
		label(registermap.KeyEMSMode, EMSForced),
		label(registermap.KeyForcedCommand, ForcedDischarge),
		raw(registermap.KeyForcedPower, watts),
	)
}

func (s *Service) StopForced(ctx context.Context) error {
	return s.apply(ctx, "stop forced",
		label(registermap.KeyEMSMode, EMSForced),
		label(registermap.KeyForcedCommand, ForcedStop),
	)
}

func (s *Service) SetInverterRunning(ctx context.Context, running bool) error {
	state := InverterStop
	if running {
		state = InverterStart
	}
	return s.apply(ctx, "inverter "+state, label(registermap.KeyStartStop, state))
}

// SetExportLimit caps grid export at watts, or lifts the cap when disabled.
func (s *Service) SetExportLimit(ctx context.Context, enabled bool, watts uint16) error {
	if !enabled {
		return s.apply(ctx, "export limit off", label(registermap.KeyExportLimitMode, ExportLimitOff))
	}
	return s.apply(ctx, "export limit on",
		raw(registermap.KeyExportLimit, watts),
		label(registermap.KeyExportLimitMode, ExportLimitOn),
	)
}

func (s *Service) apply(ctx context.Context, name string, steps ...step) error {
	type write struct {
		d     registermap.Descriptor
		value uint16
	}
	writes := make([]write, 0, len(steps))
	for _, st := range steps {
		d, err := registermap.Lookup(s.deviceType, "", st.key)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", name, ErrUnsupported, err)
		}
		if d.Bank != registermap.Holding {
			return fmt.Errorf("%s: %w: %s is not writable", name, ErrUnsupported, d)
		}
		value := st.value
		if st.label != "" {
			code, ok := d.Code(st.label)
			if !ok {
				return fmt.Errorf("%s: %w: %s has no value %q", name, ErrUnsupported, d, st.label)
			}
			value = code
		}
		writes = append(writes, write{d: d, value: value})
	}

	for _, w := range writes {
		if err := s.writer.WriteRegister(ctx, w.d.Address, w.value); err != nil {
			return fmt.Errorf("%s: write %s: %w", name, w.d, err)
		}
	}
	s.logger.Info("command sent", zap.String("command", name), zap.Int("writes", len(writes)))
	return nil
}
