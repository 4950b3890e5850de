package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
	"github.com/anicoll/sungrow-modbus/internal/pkg/poller"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/verifier"
)

type MockSink struct {
	WriteFunc          func(ctx context.Context, props model.Properties) error
	RegisterDeviceFunc func(ctx context.Context, device *model.Device) error
	written            []model.Properties
	registered         []*model.Device
}

func (m *MockSink) Write(ctx context.Context, props model.Properties) error {
	m.written = append(m.written, props)
	if m.WriteFunc == nil {
		return nil
	}
	return m.WriteFunc(ctx, props)
}

func (m *MockSink) RegisterDevice(ctx context.Context, device *model.Device) error {
	m.registered = append(m.registered, device)
	if m.RegisterDeviceFunc == nil {
		return nil
	}
	return m.RegisterDeviceFunc(ctx, device)
}

func snapshot(temperature float64) poller.Snapshot {
	return poller.Snapshot{
		Device:     "roof",
		DeviceType: registermap.Inverter,
		Identity:   verifier.Result{ModelName: "SH10RT-20", SerialNumber: "A2330000123"},
		Time:       time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Readings: []poller.Reading{
			{
				Descriptor: registermap.Descriptor{Key: "temperature", Name: "Inverter temperature", Unit: model.NumericUnitDegreeC, Precision: 1},
				Value:      decoder.Value{Kind: decoder.Real, Real: temperature},
			},
			{
				Descriptor: registermap.Descriptor{Key: "system_state", Name: "System state"},
				Value:      decoder.Value{Kind: decoder.Enum, Int: 0x0002, Text: "Stop"},
			},
			{
				Descriptor: registermap.Descriptor{Key: "meter_power"},
				Err:        &registers.ProtocolError{Function: 4, ExceptionCode: 2},
			},
		},
	}
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "sh10rt-20_A2330000123", Identifier("SH10RT-20", "A2330000123"))
	assert.Equal(t, "sh5-0rt_B1", Identifier("SH5.0RT", "B1"))
}

func TestProperties(t *testing.T) {
	props := Properties(snapshot(25))
	require.Len(t, props, 2)
	assert.Equal(t, model.Property{
		TimeStamp:  time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Unit:       "°C",
		Value:      "25.0",
		Identifier: "sh10rt-20_A2330000123",
		Slug:       "temperature",
		Name:       "Inverter temperature",
	}, props[0])
	assert.Equal(t, "Stop", props[1].Value)
	assert.Equal(t, "", props[1].Unit)
}

func TestPublisher_PublishDedupes(t *testing.T) {
	p := New()
	sink := &MockSink{}
	require.NoError(t, p.Register("mock", sink))

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, snapshot(25)))
	require.NoError(t, p.Publish(ctx, snapshot(25)))
	require.NoError(t, p.Publish(ctx, snapshot(26.5)))

	require.Len(t, sink.registered, 1)
	assert.Equal(t, "sh10rt-20_A2330000123", sink.registered[0].ID)
	assert.Equal(t, "roof", sink.registered[0].Name)

	require.Len(t, sink.written, 2)
	assert.Len(t, sink.written[0], 2)
	require.Len(t, sink.written[1], 1)
	assert.Equal(t, "26.5", sink.written[1][0].Value)
}

func TestPublisher_SinkFailureDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := New()
	p.logger = zap.New(core)

	failing := &MockSink{WriteFunc: func(context.Context, model.Properties) error { return errors.New("broker down") }}
	healthy := &MockSink{}
	require.NoError(t, p.Register("a-failing", failing))
	require.NoError(t, p.Register("b-healthy", healthy))

	require.NoError(t, p.Publish(context.Background(), snapshot(25)))
	assert.Len(t, healthy.written, 1)
	assert.Equal(t, 1, logs.FilterField(zap.String("publisher", "a-failing")).Len())
}

func TestPublisher_RegisterTwice(t *testing.T) {
	p := New()
	require.NoError(t, p.Register("mock", &MockSink{}))
	assert.ErrorIs(t, p.Register("mock", &MockSink{}), errAlreadyRegistered)
}

func TestStore(t *testing.T) {
	s := NewStore()
	p := New()
	require.NoError(t, p.Register("memory", s))

	_, ok := s.Latest("roof")
	assert.False(t, ok)

	require.NoError(t, p.Publish(context.Background(), snapshot(25)))
	require.NoError(t, p.Publish(context.Background(), snapshot(27)))

	device, ok := s.Device("roof")
	require.True(t, ok)
	assert.Equal(t, "SH10RT-20", device.Model)

	props, ok := s.Latest("roof")
	require.True(t, ok)
	require.Len(t, props, 2)
	assert.Equal(t, "system_state", props[0].Slug)
	assert.Equal(t, "temperature", props[1].Slug)
	assert.Equal(t, "27.0", props[1].Value)
}

func TestProperties_SeriesIsMarked(t *testing.T) {
	s := snapshot(25)
	s.Readings = []poller.Reading{{
		Descriptor: registermap.Descriptor{Key: "pv_power_now", Unit: model.NumericUnitWatt, Count: 3},
		Value:      decoder.Value{Kind: decoder.Series, Series: []float64{0, 120, 340}},
	}}
	props := Properties(s)
	require.Len(t, props, 1)
	assert.True(t, props[0].Series)
	assert.Equal(t, "[0,120,340]", props[0].Value)

	assert.False(t, Properties(snapshot(25))[0].Series)
}

func TestPublisher_RetriesDeviceRegistration(t *testing.T) {
	calls := 0
	flaky := &MockSink{RegisterDeviceFunc: func(context.Context, *model.Device) error {
		calls++
		if calls == 1 {
			return errors.New("connection reset")
		}
		return nil
	}}
	p := New()
	p.logger = zap.NewNop()
	require.NoError(t, p.Register("postgres", flaky))

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, snapshot(25)))
	require.NoError(t, p.Publish(ctx, snapshot(26)))
	require.NoError(t, p.Publish(ctx, snapshot(27)))

	assert.Len(t, flaky.registered, 2)
	assert.Len(t, flaky.written, 3)
}

func TestStore_ReplacedDevice(t *testing.T) {
	s := NewStore()
	p := New()
	require.NoError(t, p.Register("memory", s))
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, snapshot(25)))
	swapped := snapshot(31)
	swapped.Identity.SerialNumber = "B4410000999"
	require.NoError(t, p.Publish(ctx, swapped))

	device, ok := s.Device("roof")
	require.True(t, ok)
	assert.Equal(t, "B4410000999", device.SerialNumber)

	props, ok := s.Latest("roof")
	require.True(t, ok)
	require.Len(t, props, 2)
	assert.Equal(t, "sh10rt-20_B4410000999", props[1].Identifier)
	assert.Equal(t, "31.0", props[1].Value)
}
