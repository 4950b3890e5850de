package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

type written struct {
	Address uint16
	Value   uint16
}

type MockRegisterWriter struct {
	WriteRegisterFunc func(ctx context.Context, address, value uint16) error
	writes            []written
}

func (m *MockRegisterWriter) WriteRegister(ctx context.Context, address, value uint16) error {
	m.writes = append(m.writes, written{address, value})
	if m.WriteRegisterFunc == nil {
		return nil
	}
	return m.WriteRegisterFunc(ctx, address, value)
}

func TestService_Commands(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, s *Service) error
		want []written
	}{
		{
			name: "self consumption",
			run:  func(ctx context.Context, s *Service) error { return s.SelfConsumption(ctx) },
			want: []written{{13049, 0}, {13050, 0xCC}},
		},
		{
			name: "forced charge",
			run:  func(ctx context.Context, s *Service) error { return s.ForcedCharge(ctx, 3000) },
			want: []written{{13049, 2}, {13050, 0xAA}, {13051, 3000}},
		},
		{
			name: "forced discharge",
			run:  func(ctx context.Context, s *Service) error { return s.ForcedDischarge(ctx, 4500) },
			want: []written{{13049, 2}, {13050, 0xBB}, {13051, 4500}},
		},
		{
			name: "stop forced",
			run:  func(ctx context.Context, s *Service) error { return s.StopForced(ctx) },
			want: []written{{13049, 2}, {13050, 0xCC}},
		},
		{
			name: "inverter on",
			run:  func(ctx context.Context, s *Service) error { return s.SetInverterRunning(ctx, true) },
			want: []written{{12999, 0xCF}},
		},
		{
			name: "inverter off",
			run:  func(ctx context.Context, s *Service) error { return s.SetInverterRunning(ctx, false) },
			want: []written{{12999, 0xCE}},
		},
		{
			name: "export limit on",
			run:  func(ctx context.Context, s *Service) error { return s.SetExportLimit(ctx, true, 5000) },
			want: []written{{13073, 5000}, {13086, 0xAA}},
		},
		{
			name: "export limit off",
			run:  func(ctx context.Context, s *Service) error { return s.SetExportLimit(ctx, false, 5000) },
			want: []written{{13086, 0x55}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &MockRegisterWriter{}
			require.NoError(t, tt.run(context.Background(), New(w, registermap.Inverter)))
			assert.Equal(t, tt.want, w.writes)
		})
	}
}

func TestService_StopsAtFirstFailedWrite(t *testing.T) {
	boom := errors.New("boom")
	w := &MockRegisterWriter{WriteRegisterFunc: func(_ context.Context, address, _ uint16) error {
		if address == 13050 {
			return boom
		}
		return nil
	}}

	err := New(w, registermap.Inverter).ForcedCharge(context.Background(), 1000)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `forced charge: write "forced_charge_discharge_command" (holding 13050 x1)`)
	assert.Equal(t, []written{{13049, 2}, {13050, 0xAA}}, w.writes)
}

func TestService_Unsupported(t *testing.T) {
	w := &MockRegisterWriter{}
	err := New(w, registermap.Wallbox).SelfConsumption(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, w.writes)
}
