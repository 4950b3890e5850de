package publisher

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

// Store keeps the latest reading of every sensor in memory. Devices are
// keyed by configured name; a newly identified device replaces the old one.
type Store struct {
	mu      sync.RWMutex
	devices map[string]model.Device
	latest  map[string]map[string]model.Property
}

func NewStore() *Store {
	return &Store{
		devices: map[string]model.Device{},
		latest:  map[string]map[string]model.Property{},
	}
}

func (s *Store) RegisterDevice(_ context.Context, device *model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.devices[device.Name]; ok && old.ID != device.ID {
		delete(s.latest, old.ID)
	}
	s.devices[device.Name] = *device
	return nil
}

func (s *Store) Write(_ context.Context, props model.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range props {
		sensors, ok := s.latest[p.Identifier]
		if !ok {
			sensors = map[string]model.Property{}
			s.latest[p.Identifier] = sensors
		}
		sensors[p.Slug] = p
	}
	return nil
}

// Device returns the identified device registered under the configured name.
func (s *Store) Device(name string) (model.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[name]
	return d, ok
}

// Latest returns the newest reading of every sensor of the named device,
// ordered by slug.
func (s *Store) Latest(name string) (model.Properties, bool) {
	device, ok := s.Device(name)
	if !ok {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sensors := s.latest[device.ID]
	slugs := lo.Keys(sensors)
	slices.Sort(slugs)
	return lo.Map(slugs, func(slug string, _ int) model.Property { return sensors[slug] }), true
}
