package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
	"github.com/anicoll/sungrow-modbus/internal/pkg/verifier"
)

var ErrStopped = errors.New("runner stopped")

// SnapshotFunc receives the result of every completed poll cycle.
type SnapshotFunc func(ctx context.Context, s Snapshot)

type writeRequest struct {
	address uint16
	value   uint16
	reply   chan error
}

// Runner is the only owner of a device's session. Poll ticks and register
// writes are served one at a time on the goroutine running Run.
type Runner struct {
	device   config.Device
	connect  verifier.ConnectFunc
	onPoll   SnapshotFunc
	ticks    chan struct{}
	writes   chan writeRequest
	done     chan struct{}
	doneOnce sync.Once
	logger   *zap.Logger

	// owned by the Run goroutine
	client *registers.Client
	poller *Poller

	mu       sync.RWMutex
	identity *verifier.Result
}

func NewRunner(device config.Device, onPoll SnapshotFunc) *Runner {
	return NewRunnerWithConnect(device, transport.Connect, onPoll)
}

func NewRunnerWithConnect(device config.Device, connect verifier.ConnectFunc, onPoll SnapshotFunc) *Runner {
	return &Runner{
		device:  device,
		connect: connect,
		onPoll:  onPoll,
		ticks:   make(chan struct{}),
		writes:  make(chan writeRequest),
		done:    make(chan struct{}),
		logger:  zap.L().With(zap.String("device", device.Identity.Name)),
	}
}

func (r *Runner) Device() config.Device {
	return r.device
}

// Identity returns the model and serial number read when the current or last
// session was opened.
func (r *Runner) Identity() (verifier.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.identity == nil {
		return verifier.Result{}, false
	}
	return *r.identity, true
}

// Tick asks for a poll cycle. It reports false when the runner is busy and
// the tick was dropped.
func (r *Runner) Tick() bool {
	select {
	case r.ticks <- struct{}{}:
		return true
	default:
		return false
	}
}

// WriteRegister queues a single holding-register write and waits for it to
// complete on the device.
func (r *Runner) WriteRegister(ctx context.Context, address, value uint16) error {
	req := writeRequest{address: address, value: value, reply: make(chan error, 1)}
	select {
	case r.writes <- req:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run serves ticks and writes until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	defer r.doneOnce.Do(func() { close(r.done) })
	defer r.dropSession()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.ticks:
			if err := r.poll(ctx); err != nil {
				r.logger.Warn("poll cycle failed", zap.Error(err))
			}
		case req := <-r.writes:
			req.reply <- r.write(ctx, req.address, req.value)
		}
	}
}

func (r *Runner) poll(ctx context.Context) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}
	start := time.Now()
	readings, err := r.poller.PollOnce(ctx)
	if err != nil {
		r.dropSession()
		return err
	}
	identity, _ := r.Identity()
	snapshot := Snapshot{
		Device:     r.device.Identity.Name,
		DeviceType: r.device.Identity.DeviceType,
		Identity:   identity,
		Time:       start,
		Readings:   readings,
	}
	r.logger.Debug("poll cycle complete",
		zap.Int("readings", len(readings)),
		zap.Int("errors", len(snapshot.Errors())),
		zap.Duration("took", time.Since(start)),
	)
	if r.onPoll != nil {
		r.onPoll(ctx, snapshot)
	}
	return nil
}

func (r *Runner) write(ctx context.Context, address, value uint16) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}
	err := r.client.WriteRegister(ctx, address, value)
	if err != nil && fatal(ctx, err) {
		r.dropSession()
	}
	return err
}

// ensureSession connects and identifies the device when there is no live
// session.
func (r *Runner) ensureSession(ctx context.Context) error {
	if r.client != nil {
		return nil
	}
	session, err := r.connect(ctx, r.device.Connection)
	if err != nil {
		return err
	}
	client := registers.NewClient(session, r.device.Identity.UnitAddress)

	identity, err := verifier.Identify(ctx, client, r.device.Identity.DeviceType)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("identify: %w", err)
	}
	descriptors, err := registermap.ForModel(r.device.Identity.DeviceType, identity.ModelName)
	if err != nil {
		_ = client.Close()
		return err
	}

	r.mu.Lock()
	r.identity = &identity
	r.mu.Unlock()
	r.client = client
	r.poller = New(client, descriptors)
	r.logger.Info("session opened",
		zap.String("model", identity.ModelName),
		zap.String("serial_number", identity.SerialNumber),
		zap.Int("descriptors", len(descriptors)),
	)
	return nil
}

func (r *Runner) dropSession() {
	if r.client == nil {
		return
	}
	if err := r.client.Close(); err != nil {
		r.logger.Debug("failed to close session", zap.Error(err))
	}
	r.client = nil
	r.poller = nil
}
