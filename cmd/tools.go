package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
	"github.com/anicoll/sungrow-modbus/internal/pkg/verifier"
	"github.com/anicoll/sungrow-modbus/pkg/sockets"
)

// VerifyCommand identifies every configured device, or the one named by
// --device.
func VerifyCommand(c *cli.Context) error {
	devices, err := loadDevices(c)
	if err != nil {
		return err
	}
	if name := c.String("device"); name != "" {
		d, err := selectDevice(devices, name)
		if err != nil {
			return err
		}
		devices = []config.Device{d}
	}
	return verifyDevices(c.Context, verifier.New(), devices, os.Stdout)
}

func ReadCommand(c *cli.Context) error {
	d, err := commandDevice(c)
	if err != nil {
		return err
	}
	return readKey(c.Context, transport.Connect, d, c.String("key"), os.Stdout)
}

func WriteCommand(c *cli.Context) error {
	d, err := commandDevice(c)
	if err != nil {
		return err
	}
	address, value := c.Uint("address"), c.Uint("value")
	if address > 0xFFFF || value > 0xFFFF {
		return fmt.Errorf("address %d and value %d must fit in 16 bits", address, value)
	}
	return writeRegister(c.Context, transport.Connect, d, uint16(address), uint16(value))
}

func CatalogCommand(c *cli.Context) error {
	dt, err := registermap.ParseDeviceType(c.String("device-type"))
	if err != nil {
		return err
	}
	return printCatalog(dt, c.String("model"), os.Stdout)
}

// WatchCommand prints the live reading stream of a running instance.
func WatchCommand(c *cli.Context) error {
	return watch(c.Context, c.String("url"), os.Stdout)
}

func commandDevice(c *cli.Context) (config.Device, error) {
	devices, err := loadDevices(c)
	if err != nil {
		return config.Device{}, err
	}
	return selectDevice(devices, c.String("device"))
}

func verifyDevices(ctx context.Context, v *verifier.Verifier, devices []config.Device, w io.Writer) error {
	var failed int
	for _, d := range devices {
		res, err := v.Verify(ctx, d)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n", d.Identity.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s: %s %s\n", d.Identity.Name, res.ModelName, res.SerialNumber)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d devices failed verification", failed, len(devices))
	}
	return nil
}

// withClient opens a session to d and hands a client bound to its unit to fn.
func withClient(ctx context.Context, connect verifier.ConnectFunc, d config.Device, fn func(*registers.Client) error) error {
	session, err := connect(ctx, d.Connection)
	if err != nil {
		return err
	}
	client := registers.NewClient(session, d.Identity.UnitAddress)
	defer func() {
		if err := client.Close(); err != nil {
			zap.L().Warn("failed to close session", zap.String("device", d.Identity.Name), zap.Error(err))
		}
	}()
	return fn(client)
}

func readKey(ctx context.Context, connect verifier.ConnectFunc, d config.Device, key string, w io.Writer) error {
	return withClient(ctx, connect, d, func(client *registers.Client) error {
		id, err := verifier.Identify(ctx, client, d.Identity.DeviceType)
		if err != nil {
			return err
		}
		desc, err := registermap.Lookup(d.Identity.DeviceType, id.ModelName, key)
		if err != nil {
			return err
		}
		v, err := client.Read(ctx, desc)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.TrimSpace(fmt.Sprintf("%s = %s %s", key, v.Format(desc.Precision), desc.Unit.Normalise())))
		return nil
	})
}

func writeRegister(ctx context.Context, connect verifier.ConnectFunc, d config.Device, address, value uint16) error {
	return withClient(ctx, connect, d, func(client *registers.Client) error {
		if err := client.WriteRegister(ctx, address, value); err != nil {
			return err
		}
		zap.L().Info("register written",
			zap.String("device", d.Identity.Name),
			zap.Uint16("address", address),
			zap.Uint16("value", value),
		)
		return nil
	})
}

func printCatalog(dt registermap.DeviceType, modelName string, w io.Writer) error {
	var (
		descriptors []registermap.Descriptor
		err         error
	)
	if modelName == "" {
		descriptors, err = registermap.Resolve(dt)
	} else {
		descriptors, err = registermap.ForModel(dt, modelName)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tBANK\tADDRESS\tWORDS\tTYPE\tUNIT\tMODELS")
	for _, d := range descriptors {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			d.Key, d.Bank, d.Address, d.WordCount, d.Type, d.Unit, strings.Join(d.Filter, ","))
	}
	return tw.Flush()
}

func watch(ctx context.Context, url string, w io.Writer) error {
	conn := sockets.New(
		sockets.OnMessage(func(msg []byte, _ sockets.Connection) {
			fmt.Fprintln(w, string(msg))
		}),
		sockets.OnError(func(err error) {
			zap.L().Warn("stream closed", zap.String("url", url), zap.Error(err))
		}),
	)
	if err := conn.Dial(ctx, url); err != nil {
		return err
	}
	defer conn.Close()

	select {
	case <-ctx.Done():
	case <-conn.Done():
	}
	return nil
}
