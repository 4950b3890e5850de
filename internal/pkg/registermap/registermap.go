// Package registermap holds the static Sungrow register catalog and resolves
// the descriptors that apply to an identified device model.
package registermap

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"

	"github.com/samber/lo"
)

var (
	ErrUnknownDeviceType   = errors.New("unknown device type")
	ErrNoDescriptor        = errors.New("no applicable descriptor")
	ErrAmbiguousDescriptor = errors.New("ambiguous descriptor")
)

// catalogs is built once and only ever handed out as deep copies.
var catalogs = map[DeviceType][]Descriptor{
	Inverter: inverterCatalog,
	Battery:  batteryCatalog,
	Wallbox:  wallboxCatalog,
}

// Resolve returns every descriptor declared for the device type, including
// all model variants of a key.
func Resolve(dt DeviceType) ([]Descriptor, error) {
	descriptors, ok := catalogs[dt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, dt)
	}
	return lo.Map(descriptors, func(d Descriptor, _ int) Descriptor { return d.clone() }), nil
}

func (d Descriptor) clone() Descriptor {
	d.Enum = maps.Clone(d.Enum)
	d.Bits = slices.Clone(d.Bits)
	d.Filter = slices.Clone(d.Filter)
	return d
}

// Matches reports whether the descriptor applies to the model. Patterns use
// '?' for one character and '*' for any run, case-sensitive.
func (d Descriptor) Matches(modelName string) bool {
	if len(d.Filter) == 0 {
		return true
	}
	return lo.SomeBy(d.Filter, func(pattern string) bool {
		ok, err := path.Match(pattern, modelName)
		return err == nil && ok
	})
}

// Applicable narrows descriptors to the ones valid for the model, one per key,
// in first-declaration order of the keys. A key declared once with a filter the
// model does not match is dropped. A key with several variants must resolve to
// exactly one of them.
func Applicable(descriptors []Descriptor, modelName string) ([]Descriptor, error) {
	groups := lo.GroupBy(descriptors, func(d Descriptor) string { return d.Key })
	keys := lo.Uniq(lo.Map(descriptors, func(d Descriptor, _ int) string { return d.Key }))

	var (
		out  = make([]Descriptor, 0, len(keys))
		errs []error
	)
	for _, key := range keys {
		variants := groups[key]
		matched := lo.Filter(variants, func(d Descriptor, _ int) bool { return d.Matches(modelName) })
		switch {
		case len(matched) == 1:
			out = append(out, matched[0])
		case len(matched) == 0 && len(variants) == 1:
			continue
		case len(matched) == 0:
			errs = append(errs, fmt.Errorf("%w: key %q for model %q", ErrNoDescriptor, key, modelName))
		default:
			addrs := lo.Map(matched, func(d Descriptor, _ int) uint16 { return d.Address })
			errs = append(errs, fmt.Errorf("%w: key %q for model %q matches addresses %v", ErrAmbiguousDescriptor, key, modelName, addrs))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// ForModel resolves and filters the catalog of a device type in one step.
func ForModel(dt DeviceType, modelName string) ([]Descriptor, error) {
	descriptors, err := Resolve(dt)
	if err != nil {
		return nil, err
	}
	return Applicable(descriptors, modelName)
}

// Lookup returns the descriptor for key that applies to the model.
func Lookup(dt DeviceType, modelName, key string) (Descriptor, error) {
	descriptors, err := Resolve(dt)
	if err != nil {
		return Descriptor{}, err
	}
	variants := lo.Filter(descriptors, func(d Descriptor, _ int) bool { return d.Key == key })
	if len(variants) == 0 {
		return Descriptor{}, fmt.Errorf("%w: %s has no key %q", ErrNoDescriptor, dt, key)
	}
	applicable, err := Applicable(variants, modelName)
	if err != nil {
		return Descriptor{}, err
	}
	if len(applicable) == 0 {
		return Descriptor{}, fmt.Errorf("%w: key %q is not available on model %q", ErrNoDescriptor, key, modelName)
	}
	return applicable[0], nil
}

// Identification returns the unfiltered serial number and model descriptors
// used to identify a device of the given type.
func Identification(dt DeviceType) (serial, modelName Descriptor, err error) {
	descriptors, err := Resolve(dt)
	if err != nil {
		return Descriptor{}, Descriptor{}, err
	}
	find := func(key string) (Descriptor, error) {
		d, ok := lo.Find(descriptors, func(d Descriptor) bool { return d.Key == key && len(d.Filter) == 0 })
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: %s has no unfiltered %q", ErrNoDescriptor, dt, key)
		}
		return d, nil
	}
	if serial, err = find(KeySerialNumber); err != nil {
		return Descriptor{}, Descriptor{}, err
	}
	if modelName, err = find(KeyModelName); err != nil {
		return Descriptor{}, Descriptor{}, err
	}
	return serial, modelName, nil
}

// Models lists the model names a device type can identify as.
func Models(dt DeviceType) []string {
	_, modelName, err := Identification(dt)
	if err != nil {
		return nil
	}
	names := lo.Uniq(lo.Values(modelName.Enum))
	slices.Sort(names)
	return names
}
