package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/adapter"
	"github.com/mklimuk/usbiss/cmd/usbiss/console"
	"github.com/mklimuk/usbiss/transport"
)

var listCmd = cli.Command{
	Name:  "list",
	Usage: "list serial ports a USB-ISS is attached to",
	Action: func(c *cli.Context) error {
		ports, err := transport.ListAdapters()
		if err != nil {
			return console.Fail("port enumeration failed: %s", console.Red(err))
		}
		if len(ports) == 0 {
			console.Infof("no USB-ISS matching ports found")
			return nil
		}
		w := tabwriter.NewWriter(console.Output(), 16, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PORT\tVENDOR\tPRODUCT ID\tSERIAL\tPRODUCT\n")
		for _, p := range ports {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var infoCmd = cli.Command{
	Name:    "info",
	Aliases: []string{"test"},
	Usage:   "check the connection and print the adapter identity",
	Action: func(c *cli.Context) error {
		d, err := openAdapter(c)
		if err != nil {
			return err
		}
		defer closeAdapter(d)
		if console.Brief {
			return nil
		}
		enc := yaml.NewEncoder(console.Output())
		defer enc.Close()
		err = enc.Encode(d.Info())
		if err != nil {
			return console.Fail("encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var modeCmd = cli.Command{
	Name:      "mode",
	Usage:     "switch the adapter to an I2C mode, or show the current one",
	ArgsUsage: "[NAME]",
	Action: func(c *cli.Context) error {
		d, err := openAdapter(c)
		if err != nil {
			return err
		}
		defer closeAdapter(d)
		if c.Args().Present() {
			err = d.SetMode(c.Context, c.Args().First())
			if err != nil {
				return console.Fail("USB-ISS mode setup failed: %s", console.Red(err))
			}
		}
		console.Print(d.Mode().String())
		if !c.Args().Present() && !console.Brief {
			names := make([]string, 0, len(adapter.I2CModes))
			for _, m := range adapter.I2CModes {
				names = append(names, m.String())
			}
			console.Detailf("I2C modes: %s", strings.Join(names, ", "))
		}
		return nil
	},
}

var writeCmd = cli.Command{
	Name:      "write",
	Usage:     "write bytes to a device",
	ArgsUsage: "ADDR B0 [B1 ...]",
	Action: func(c *cli.Context) error {
		args := c.Args().Slice()
		if len(args) < 2 {
			return console.Fail("usage: write ADDR B0 [B1 ...]")
		}
		fields := append([]string{args[0], "w"}, args[1:]...)
		return transferAction(c, fields)
	},
}

var readCmd = cli.Command{
	Name:      "read",
	Usage:     "read bytes from a device",
	ArgsUsage: "ADDR N",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Fail("usage: read ADDR N")
		}
		return transferAction(c, []string{c.Args().Get(0), "r", c.Args().Get(1)})
	},
}

var xferCmd = cli.Command{
	Name:      "xfer",
	Usage:     "run a transfer written as \"<adr7> w <b0> .. <bn> r <cnt>\"",
	ArgsUsage: "\"ADDR [w B0 ..] [r N]\"",
	Action: func(c *cli.Context) error {
		return transferAction(c, strings.Fields(strings.Join(c.Args().Slice(), " ")))
	},
}

func transferAction(c *cli.Context, fields []string) error {
	t, err := parseTransfer(fields)
	if err != nil {
		return console.Fail("%s", err)
	}
	return withBus(c, func(ctx context.Context, bus usbiss.I2CMaster) error {
		data, err := t.run(ctx, bus)
		if err != nil {
			return console.Fail("transfer with device 0x%02x failed: %s", t.Address, console.Red(err))
		}
		t.report(data)
		return nil
	})
}

var scanCmd = cli.Command{
	Name:      "scan",
	Usage:     "look for devices answering on the bus",
	ArgsUsage: "[START:STOP]",
	Action: func(c *cli.Context) error {
		start, stop, err := parseScanRange(c.Args().First())
		if err != nil {
			return console.Fail("%s", err)
		}
		return withBus(c, func(ctx context.Context, bus usbiss.I2CMaster) error {
			return scan(ctx, bus, start, stop)
		})
	},
}

func scan(ctx context.Context, bus usbiss.Scanner, start, stop byte) error {
	found, err := bus.Scan(ctx, start, stop)
	if err != nil {
		return console.Fail("scan of I2C bus in range 0x%x:0x%x failed: %s", start, stop, console.Red(err))
	}
	indent := dumpIndent
	if console.Brief {
		indent = ""
	}
	console.Okf("Scan I2C bus in range 0x%x:0x%x", start, stop)
	console.Printf("%s", scanTable(indent, start, stop, found))
	return nil
}

var releaseCmd = cli.Command{
	Name:  "release",
	Usage: "send a stop condition to free a stuck bus",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("Send a stop condition to the bus?")
			if err != nil {
				return console.Fail("%s", err)
			}
			if !ok {
				console.PInfof(console.PictoStop, "release cancelled")
				return nil
			}
		}
		return withBus(c, func(ctx context.Context, bus usbiss.I2CMaster) error {
			err := bus.Release(ctx)
			if err != nil {
				return console.Fail("bus release failed: %s", console.Red(err))
			}
			console.Okf("bus released")
			return nil
		})
	},
}
