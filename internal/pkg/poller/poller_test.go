package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/modbustest"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
)

type mockReader struct {
	ReadFunc func(ctx context.Context, d registermap.Descriptor) (decoder.Value, error)
}

func (m *mockReader) Read(ctx context.Context, d registermap.Descriptor) (decoder.Value, error) {
	if m.ReadFunc == nil {
		return decoder.Value{}, errors.New("mocked Read not implemented")
	}
	return m.ReadFunc(ctx, d)
}

var testDescriptors = []registermap.Descriptor{
	{Key: "a", Bank: registermap.Input, Address: 1, WordCount: 1},
	{Key: "b", Bank: registermap.Input, Address: 2, WordCount: 1},
	{Key: "c", Bank: registermap.Input, Address: 3, WordCount: 1},
}

func TestPollOnce_RecordsPerKeyErrors(t *testing.T) {
	r := &mockReader{ReadFunc: func(_ context.Context, d registermap.Descriptor) (decoder.Value, error) {
		switch d.Key {
		case "a":
			return decoder.Value{Kind: decoder.Integer, Int: 7}, nil
		case "b":
			return decoder.Value{}, &registers.ProtocolError{Function: 4, ExceptionCode: 2, Address: 2, Count: 1}
		default:
			return decoder.Value{}, fmt.Errorf("read %s: %w", d, decoder.ErrUnknownEnumValue)
		}
	}}

	readings, err := New(r, testDescriptors).PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{
		readings[0].Descriptor.Key, readings[1].Descriptor.Key, readings[2].Descriptor.Key,
	})

	s := Snapshot{Readings: readings}
	assert.Equal(t, map[string]decoder.Value{"a": {Kind: decoder.Integer, Int: 7}}, s.Values())
	errs := s.Errors()
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs["b"], registers.ErrProtocol))
	assert.True(t, errors.Is(errs["c"], decoder.ErrDecode))
}

func TestPollOnce_TransportErrorAbortsCycle(t *testing.T) {
	var calls int
	r := &mockReader{ReadFunc: func(_ context.Context, d registermap.Descriptor) (decoder.Value, error) {
		calls++
		if d.Key == "b" {
			return decoder.Value{}, fmt.Errorf("read %s: %w", d, transport.ErrTransport)
		}
		return decoder.Value{Kind: decoder.Integer}, nil
	}}

	readings, err := New(r, testDescriptors).PollOnce(context.Background())
	assert.True(t, errors.Is(err, transport.ErrTransport))
	assert.Nil(t, readings)
	assert.Equal(t, 2, calls)
}

func TestPollOnce_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &mockReader{ReadFunc: func(context.Context, registermap.Descriptor) (decoder.Value, error) {
		cancel()
		return decoder.Value{}, errors.New("aborted")
	}}

	_, err := New(r, testDescriptors).PollOnce(ctx)
	require.Error(t, err)
}

func seedInverter(srv *modbustest.Server) {
	srv.SetInputString(4989, "A2330000123", 10)
	srv.SetInput(4999, 0x0D06)
	srv.SetInput(5007, 0x00FA)
	srv.SetHolding(13049, 0)
}

func newTestRunner(t *testing.T, srv *modbustest.Server, timeout time.Duration, connects *atomic.Int32) (*Runner, chan Snapshot) {
	t.Helper()
	d, err := config.NewBuilder("roof", registermap.Inverter).TCP(srv.Host(), srv.Port()).Timeout(timeout).Build()
	require.NoError(t, err)

	snapshots := make(chan Snapshot, 4)
	connect := func(ctx context.Context, conn config.Connection) (transport.Session, error) {
		connects.Add(1)
		return transport.Connect(ctx, conn)
	}
	r := NewRunnerWithConnect(d, connect, func(_ context.Context, s Snapshot) {
		select {
		case snapshots <- s:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return r, snapshots
}

func tick(t *testing.T, r *Runner) {
	t.Helper()
	require.Eventually(t, r.Tick, time.Second, 5*time.Millisecond)
}

func TestRunner_PollsAndIdentifies(t *testing.T) {
	srv := modbustest.NewServer(t)
	seedInverter(srv)
	var connects atomic.Int32
	r, snapshots := newTestRunner(t, srv, time.Second, &connects)

	_, ok := r.Identity()
	assert.False(t, ok)

	tick(t, r)
	s := <-snapshots
	assert.Equal(t, "roof", s.Device)
	assert.Equal(t, "SH3K6", s.Identity.ModelName)
	assert.Equal(t, "A2330000123", s.Identity.SerialNumber)

	values := s.Values()
	assert.Equal(t, "A2330000123", values[registermap.KeySerialNumber].Text)
	temp, ok := values["temperature"].Float()
	require.True(t, ok)
	assert.Equal(t, 25.0, temp)
	assert.NotEmpty(t, s.Errors())

	for _, rd := range s.Readings {
		assert.False(t, rd.Descriptor.IsSeries(), "%s polled on %s", rd.Descriptor, s.Identity.ModelName)
	}

	tick(t, r)
	<-snapshots
	assert.Equal(t, int32(1), connects.Load())

	id, ok := r.Identity()
	require.True(t, ok)
	assert.Equal(t, "SH3K6", id.ModelName)
}

func TestRunner_WriteRegister(t *testing.T) {
	srv := modbustest.NewServer(t)
	seedInverter(srv)
	var connects atomic.Int32
	r, _ := newTestRunner(t, srv, time.Second, &connects)

	require.NoError(t, r.WriteRegister(context.Background(), 13049, 2))
	v, _ := srv.Holding(13049)
	assert.Equal(t, uint16(2), v)

	srv.SetException(13050, 4)
	err := r.WriteRegister(context.Background(), 13050, 0xAA)
	assert.True(t, errors.Is(err, registers.ErrProtocol))
	assert.Equal(t, int32(1), connects.Load())
}

func TestRunner_ReconnectsAfterTransportError(t *testing.T) {
	srv := modbustest.NewServer(t)
	seedInverter(srv)
	var connects atomic.Int32
	r, snapshots := newTestRunner(t, srv, 100*time.Millisecond, &connects)

	tick(t, r)
	<-snapshots

	srv.SetDelay(300 * time.Millisecond)
	tick(t, r)
	require.Eventually(t, r.Tick, 2*time.Second, 10*time.Millisecond)
	srv.SetDelay(0)

	tick(t, r)
	select {
	case <-snapshots:
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after reconnect")
	}
	assert.GreaterOrEqual(t, connects.Load(), int32(2))
}

func TestRunner_StoppedRejectsWrites(t *testing.T) {
	d, err := config.NewBuilder("roof", registermap.Inverter).TCP("127.0.0.1", 502).Build()
	require.NoError(t, err)
	r := NewRunner(d, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	assert.True(t, errors.Is(r.WriteRegister(context.Background(), 1, 1), ErrStopped))
}

func TestSchedule_InvalidSpec(t *testing.T) {
	err := Schedule(context.Background(), "every now and then")
	require.Error(t, err)
}

func TestSchedule_TicksRunners(t *testing.T) {
	srv := modbustest.NewServer(t)
	seedInverter(srv)
	var connects atomic.Int32
	r, snapshots := newTestRunner(t, srv, time.Second, &connects)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Schedule(ctx, "@every 1s", r) }()

	select {
	case s := <-snapshots:
		assert.Equal(t, "roof", s.Device)
	case <-time.After(5 * time.Second):
		t.Fatal("schedule never ticked")
	}
	cancel()
	require.NoError(t, <-done)
}
