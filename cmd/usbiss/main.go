package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/usbiss/adapter"
	"github.com/mklimuk/usbiss/cmd/usbiss/console"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()
	app.Name = "usbiss"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "I2C master access through a Devantech USB-ISS adapter"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "USB-ISS serial port, default: first port found",
			EnvVars: []string{"USBISS_PORT"},
		},
		&cli.IntFlag{
			Name:    "baud",
			Aliases: []string{"b"},
			Value:   adapter.DefaultBaudRate,
			Usage:   "UART baud rate",
			EnvVars: []string{"USBISS_BAUD"},
		},
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Value:   adapter.ModeI2CS100kHz.String(),
			Usage:   "I2C transfer mode, I2C_S_20KHZ .. I2C_S_400KHZ or I2C_H_100KHZ .. I2C_H_1000KHZ",
			EnvVars: []string{"USBISS_MODE"},
		},
		&cli.StringFlag{
			Name:  "bus",
			Value: defaultBus,
			Usage: "bus to use for transfers, any name other than usbiss opens a periph.io host bus",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML file with defaults for the flags above",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging, including every frame sent to the adapter",
		},
		&cli.BoolFlag{
			Name:  "brief",
			Usage: "print only the requested data",
		},
	}
	app.Before = func(c *cli.Context) error {
		err := applyConfig(c)
		if err != nil {
			return console.Fail("%s", err)
		}
		console.Brief = c.Bool("brief")
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		if console.Brief {
			charm.SetLevel(chlog.WarnLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&listCmd,
		&infoCmd,
		&modeCmd,
		&writeCmd,
		&readCmd,
		&xferCmd,
		&scanCmd,
		&shellCmd,
		&releaseCmd,
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		console.Errorf("%s", err)
		return console.ExitFailure
	}
	return 0
}
