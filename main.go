package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/sungrow-modbus/cmd"
	"github.com/anicoll/sungrow-modbus/internal/pkg/poller"
)

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=./gen/config.yaml ./gen/api.yaml

// deviceFlags select the device a command talks to.
func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"CONFIG"},
			Usage:   "YAML device file; without it one device is built from SUNGROW_* variables",
		},
		&cli.StringFlag{
			Name:    "device",
			EnvVars: []string{"DEVICE"},
			Usage:   "name of the device to use when several are configured",
		},
	}
}

func main() {
	app := &cli.App{
		Name:   "sungrow-modbus",
		Usage:  "poller and controller for Sungrow inverters, batteries and wallboxes over Modbus",
		Before: cmd.SetupLogger,
		Action: cmd.RunCommand,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
			&cli.StringFlag{
				Name:    "http-addr",
				EnvVars: []string{"HTTP_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "poll-schedule",
				EnvVars: []string{"POLL_SCHEDULE"},
				Value:   poller.DefaultSchedule,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "database-url",
				EnvVars: []string{"DATABASE_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "migrations-folder",
				EnvVars: []string{"MIGRATIONS_FOLDER"},
				Value:   "",
			},
		}, deviceFlags()...),
		Commands: []*cli.Command{
			{
				Name:   "verify",
				Usage:  "identify the configured devices and print model and serial number",
				Action: cmd.VerifyCommand,
				Flags:  deviceFlags(),
			},
			{
				Name:   "read",
				Usage:  "read and decode one register key",
				Action: cmd.ReadCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "key", Required: true},
				}, deviceFlags()...),
			},
			{
				Name:   "write",
				Usage:  "write one holding register",
				Action: cmd.WriteCommand,
				Flags: append([]cli.Flag{
					&cli.UintFlag{Name: "address", Required: true},
					&cli.UintFlag{Name: "value", Required: true},
				}, deviceFlags()...),
			},
			{
				Name:   "catalog",
				Usage:  "list the register catalog of a device type",
				Action: cmd.CatalogCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "device-type", Value: "inverter"},
					&cli.StringFlag{Name: "model", Usage: "only list registers available on this model"},
				},
			},
			{
				Name:   "watch",
				Usage:  "print the live reading stream of a running instance",
				Action: cmd.WatchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Value: "ws://127.0.0.1:8000/ws"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
