package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/contxt"
	"github.com/anicoll/sungrow-modbus/internal/pkg/database"
	"github.com/anicoll/sungrow-modbus/internal/pkg/database/migration"
	"github.com/anicoll/sungrow-modbus/internal/pkg/mqtt"
	"github.com/anicoll/sungrow-modbus/internal/pkg/poller"
	"github.com/anicoll/sungrow-modbus/internal/pkg/publisher"
	"github.com/anicoll/sungrow-modbus/internal/pkg/server"
)

const (
	cleanupSchedule = "CRON_TZ=Australia/Adelaide 0 3 * * *"
	cleanupTimeout  = time.Minute
	shutdownTimeout = 5 * time.Second
)

var errNoDevices = errors.New("no devices configured")

// RunCommand polls every configured device and serves the API until the
// process is interrupted.
func RunCommand(c *cli.Context) error {
	devices, err := loadDevices(c)
	if err != nil {
		return err
	}
	cfg := &config.Config{
		Devices:          devices,
		DatabaseURL:      c.String("database-url"),
		MigrationsFolder: c.String("migrations-folder"),
		HTTPAddr:         c.String("http-addr"),
		PollSchedule:     c.String("poll-schedule"),
		LogLevel:         c.String("log-level"),
	}
	if host := c.String("mqtt-host"); host != "" {
		cfg.MqttCfg = &config.MqttConfig{
			Host:     host,
			Username: c.String("mqtt-user"),
			Password: c.String("mqtt-pass"),
		}
	}
	return run(c.Context, cfg)
}

// SetupLogger installs the process logger at the level of --log-level.
func SetupLogger(c *cli.Context) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func run(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Devices) == 0 {
		return errNoDevices
	}
	logger := zap.L()
	eg, ctx := errgroup.WithContext(ctx)

	pub := publisher.New()
	store := publisher.NewStore()
	hub := server.NewHub()
	if err := pub.Register("memory", store); err != nil {
		return err
	}
	if err := pub.Register("stream", hub); err != nil {
		return err
	}

	if cfg.DatabaseURL != "" {
		if cfg.MigrationsFolder != "" {
			if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder); err != nil {
				return err
			}
		}
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := pub.Register("postgres", db); err != nil {
			return err
		}
		eg.Go(func() error {
			return cronDbCleanup(ctx, db)
		})
	}

	if cfg.MqttCfg != nil {
		mqttSvc := mqtt.New(mqtt.NewClient(cfg.MqttCfg.Host, cfg.MqttCfg.Username, cfg.MqttCfg.Password))
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		defer mqttSvc.Close()
		if err := pub.Register("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	onPoll := func(ctx context.Context, s poller.Snapshot) {
		if err := pub.Publish(ctx, s); err != nil {
			logger.Error("failed to publish snapshot", zap.String("device", s.Device), zap.Error(err))
		}
	}
	runners := lo.Map(cfg.Devices, func(d config.Device, _ int) *poller.Runner {
		return poller.NewRunner(d, onPoll)
	})
	for _, r := range runners {
		eg.Go(func() error {
			return r.Run(ctx)
		})
	}

	schedule := cfg.PollSchedule
	if schedule == "" {
		schedule = poller.DefaultSchedule
	}
	eg.Go(func() error {
		return poller.Schedule(ctx, schedule, runners...)
	})

	if cfg.HTTPAddr != "" {
		api := server.New(lo.Map(runners, func(r *poller.Runner, _ int) server.DeviceRunner { return r }), store, hub)
		eg.Go(func() error {
			return serve(ctx, &http.Server{
				Handler:      api.Handler(),
				Addr:         cfg.HTTPAddr,
				WriteTimeout: 15 * time.Second,
				ReadTimeout:  15 * time.Second,
			})
		})
	}

	logger.Info("started", zap.Int("devices", len(runners)), zap.String("schedule", schedule))
	return eg.Wait()
}

// serve runs srv until ctx ends, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func cronDbCleanup(ctx context.Context, db cleaner) error {
	if err := db.Cleanup(ctx); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(cleanupSchedule, func() {
		cctx, cancel := contxt.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := db.Cleanup(cctx); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
