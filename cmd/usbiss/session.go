package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/adapter"
	"github.com/mklimuk/usbiss/cmd/usbiss/console"
	"github.com/mklimuk/usbiss/i2c"
)

// defaultBus selects the USB-ISS itself; any other --bus value names a
// periph.io bus.
const defaultBus = "usbiss"

func usesAdapter(c *cli.Context) bool {
	return strings.EqualFold(c.String("bus"), defaultBus)
}

// openAdapter connects to the adapter described by the global flags.
func openAdapter(c *cli.Context) (*adapter.USBISS, error) {
	d := adapter.New(
		adapter.WithLogger(slog.Default()),
		adapter.WithVerbose(c.Bool("verbose")),
	)
	err := d.Open(c.Context, c.String("port"), c.Int("baud"))
	if err != nil {
		return nil, console.Fail("unable to open USB-ISS: %s", console.Red(err))
	}
	info := d.Info()
	console.Okf("USB-ISS connected")
	console.Detailf("  Port     : %s", info.Port)
	console.Detailf("  Baudrate : %d", info.BaudRate)
	console.Detailf("  Firmware : %s", info.Firmware)
	console.Detailf("  Serial   : %s", info.Serial)
	return d, nil
}

// configureAdapter opens the adapter and switches it to --mode.
func configureAdapter(c *cli.Context) (*adapter.USBISS, error) {
	d, err := openAdapter(c)
	if err != nil {
		return nil, err
	}
	err = d.SetMode(c.Context, c.String("mode"))
	if err != nil {
		closeAdapter(d)
		return nil, console.Fail("USB-ISS mode setup failed: %s", console.Red(err))
	}
	console.Detailf("  Mode     : %s", d.Mode())
	return d, nil
}

func closeAdapter(d *adapter.USBISS) {
	err := d.Close()
	if err != nil {
		console.Warnf("could not close USB-ISS connection: %s", err)
	}
}

// withBus runs fn against the bus selected by --bus and closes it afterwards.
func withBus(c *cli.Context, fn func(ctx context.Context, bus usbiss.I2CMaster) error) error {
	if !usesAdapter(c) {
		bus, err := i2c.NewGenericBus(c.String("bus"))
		if err != nil {
			return console.Fail("unable to open bus: %s", console.Red(err))
		}
		defer func() {
			_ = bus.Close()
		}()
		console.Okf("bus %s opened", bus)
		return fn(c.Context, bus)
	}
	d, err := configureAdapter(c)
	if err != nil {
		return err
	}
	defer closeAdapter(d)
	return fn(c.Context, d)
}
