package publisher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/contxt"
	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
	"github.com/anicoll/sungrow-modbus/internal/pkg/poller"
)

var errAlreadyRegistered = errors.New("publisher already registered")

const sinkTimeout = 10 * time.Second

// Sink receives the readings that changed since the last publish.
type Sink interface {
	Write(ctx context.Context, props model.Properties) error
	RegisterDevice(ctx context.Context, device *model.Device) error
}

type Publisher struct {
	mu      sync.RWMutex
	sinks   map[string]Sink
	sensors sync.Map
	devices sync.Map
	logger  *zap.Logger
}

func New() *Publisher {
	return &Publisher{
		sinks:  map[string]Sink{},
		logger: zap.L(),
	}
}

func (p *Publisher) Register(name string, sink Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sinks[name]; ok {
		return fmt.Errorf("%w: %s", errAlreadyRegistered, name)
	}
	p.sinks[name] = sink
	return nil
}

// Identifier names a physical device across sinks.
func Identifier(modelName, serial string) string {
	return fmt.Sprintf("%s_%s", slug.Make(modelName), serial)
}

// Device describes the device a snapshot came from.
func Device(s poller.Snapshot) *model.Device {
	return &model.Device{
		ID:           Identifier(s.Identity.ModelName, s.Identity.SerialNumber),
		Name:         s.Device,
		Type:         s.DeviceType.String(),
		Model:        s.Identity.ModelName,
		SerialNumber: s.Identity.SerialNumber,
	}
}

// Properties converts the successful readings of a snapshot.
func Properties(s poller.Snapshot) model.Properties {
	identifier := Identifier(s.Identity.ModelName, s.Identity.SerialNumber)
	props := make(model.Properties, 0, len(s.Readings))
	for _, r := range s.Readings {
		if r.Err != nil {
			continue
		}
		props = append(props, model.Property{
			TimeStamp:  s.Time,
			Unit:       r.Descriptor.Unit.Normalise(),
			Value:      r.Value.Format(r.Descriptor.Precision),
			Identifier: identifier,
			Slug:       slug.Make(r.Descriptor.Key),
			Name:       r.Descriptor.Name,
			Series:     r.Value.Kind == decoder.Series,
		})
	}
	return props
}

// Publish fans a snapshot out to every sink. Readings whose value has not
// changed are skipped. A failing sink is logged and the others still run.
func (p *Publisher) Publish(ctx context.Context, s poller.Snapshot) error {
	device := Device(s)
	if _, seen := p.devices.Load(device.ID); !seen {
		ok := p.forEach(ctx, "register device", func(ctx context.Context, sink Sink) error {
			return sink.RegisterDevice(ctx, device)
		})
		// Retried on the next snapshot until every sink has it.
		if ok {
			p.devices.Store(device.ID, struct{}{})
		}
	}

	var changed model.Properties
	for _, prop := range Properties(s) {
		if p.shouldUpdate(prop.Identifier, prop.Slug, prop.Value) {
			changed = append(changed, prop)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	p.forEach(ctx, "write", func(ctx context.Context, sink Sink) error {
		return sink.Write(ctx, changed)
	})
	p.logger.Debug("updated sensors", zap.String("device", device.ID), zap.Int("count", len(changed)))
	return nil
}

// forEach reports whether every sink succeeded.
func (p *Publisher) forEach(ctx context.Context, op string, fn func(context.Context, Sink) error) bool {
	p.mu.RLock()
	names := make([]string, 0, len(p.sinks))
	sinks := make(map[string]Sink, len(p.sinks))
	for name, sink := range p.sinks {
		names = append(names, name)
		sinks[name] = sink
	}
	p.mu.RUnlock()
	sort.Strings(names)

	ok := true
	for _, name := range names {
		sinkCtx, cancel := contxt.WithTimeout(ctx, sinkTimeout)
		err := fn(sinkCtx, sinks[name])
		cancel()
		if err != nil {
			p.logger.Error("failed to publish", zap.String("op", op), zap.String("publisher", name), zap.Error(err))
			ok = false
		}
	}
	return ok
}

func (p *Publisher) shouldUpdate(identifier, slug, newValue string) bool {
	key := fmt.Sprintf("%s_%s", identifier, slug)
	oldValue, exists := p.sensors.Load(key)
	if exists && strings.EqualFold(newValue, oldValue.(string)) {
		return false
	}
	if !exists {
		p.logger.Info("configured sensor", zap.String("device", identifier), zap.String("sensor", slug), zap.String("value", newValue))
	}
	p.sensors.Store(key, newValue)
	return true
}
