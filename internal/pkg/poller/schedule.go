package poller

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 30s"

// Schedule ticks every runner on the cron spec until ctx ends. Ticks a busy
// runner cannot take are dropped.
func Schedule(ctx context.Context, spec string, runners ...*Runner) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		for _, r := range runners {
			if !r.Tick() {
				r.logger.Debug("poll tick dropped, previous cycle still running")
			}
		}
	}); err != nil {
		return fmt.Errorf("poll schedule %q: %w", spec, err)
	}

	zap.L().Info("starting poll schedule", zap.String("schedule", spec), zap.Int("devices", len(runners)))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
