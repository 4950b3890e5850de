// Package poller reads every applicable register of a device once per cycle.
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
	"github.com/anicoll/sungrow-modbus/internal/pkg/verifier"
)

// Reading is the outcome of one descriptor in a cycle. Exactly one of Value
// and Err is meaningful.
type Reading struct {
	Descriptor registermap.Descriptor
	Value      decoder.Value
	Err        error
}

// Snapshot is everything one poll cycle produced for a device, in catalog
// order.
type Snapshot struct {
	Device     string
	DeviceType registermap.DeviceType
	Identity   verifier.Result
	Time       time.Time
	Readings   []Reading
}

// Values maps each successfully read key to its value.
func (s Snapshot) Values() map[string]decoder.Value {
	out := make(map[string]decoder.Value, len(s.Readings))
	for _, r := range s.Readings {
		if r.Err == nil {
			out[r.Descriptor.Key] = r.Value
		}
	}
	return out
}

// Errors maps each failed key to its error.
func (s Snapshot) Errors() map[string]error {
	out := map[string]error{}
	for _, r := range s.Readings {
		if r.Err != nil {
			out[r.Descriptor.Key] = r.Err
		}
	}
	return out
}

type Poller struct {
	reader      verifier.Reader
	descriptors []registermap.Descriptor
	logger      *zap.Logger
}

func New(reader verifier.Reader, descriptors []registermap.Descriptor) *Poller {
	return &Poller{
		reader:      reader,
		descriptors: descriptors,
		logger:      zap.L(),
	}
}

// PollOnce reads every descriptor in order. Device exceptions and decode
// failures are recorded against their key and the cycle carries on. A
// transport failure or a cancelled context ends the cycle and is returned;
// the session is unusable afterwards.
func (p *Poller) PollOnce(ctx context.Context) ([]Reading, error) {
	readings := make([]Reading, 0, len(p.descriptors))
	for _, d := range p.descriptors {
		v, err := p.reader.Read(ctx, d)
		if err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			p.logger.Warn("failed to read register", zap.Stringer("descriptor", d), zap.Error(err))
		}
		readings = append(readings, Reading{Descriptor: d, Value: v, Err: err})
	}
	return readings, nil
}

func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, transport.ErrTransport) || ctx.Err() != nil
}
