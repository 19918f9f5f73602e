package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/adapter"
	"github.com/mklimuk/usbiss/cmd/usbiss/console"
	"github.com/mklimuk/usbiss/i2c"
)

var errQuit = errors.New("quit")

const shellHelp = `  <adr7> w <b0> .. <bn>          write
  <adr7> r <cnt>                 read
  <adr7> w <b0> .. <bn> r <cnt>  write, repeated start, read
  scan [START:STOP]              look for devices (default 0x03:0x77)
  mode [NAME]                    show or change the I2C mode
  release                        send a stop condition
  help                           this text
  quit                           leave the shell`

// modeSwitcher is what the shell needs to manage modes; only the USB-ISS
// has them.
type modeSwitcher interface {
	SetMode(ctx context.Context, name string) error
	Mode() adapter.Mode
}

type shell struct {
	bus   usbiss.I2CMaster
	modes modeSwitcher
}

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive session on one connection",
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, bus usbiss.I2CMaster) error {
			sh := &shell{bus: bus}
			if m, ok := bus.(modeSwitcher); ok {
				sh.modes = m
			}
			prompt := fmt.Sprintf("%s> ", c.String("bus"))
			if g, ok := bus.(*i2c.GenericBus); ok {
				prompt = fmt.Sprintf("%s> ", g)
			}
			rl, err := console.NewShell(prompt, historyFile(), "scan", "mode", "release", "help", "quit")
			if err != nil {
				return console.Fail("could not start shell: %s", err)
			}
			defer rl.Close()
			return sh.loop(ctx, rl)
		})
	},
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "usbiss_history")
}

func (s *shell) loop(ctx context.Context, rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return console.Fail("could not read input: %s", err)
		}
		err = s.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			console.Error(err.Error())
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one shell line.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		console.Print(shellHelp)
		return nil
	case "scan":
		var rng string
		if len(fields) > 1 {
			rng = fields[1]
		}
		start, stop, err := parseScanRange(rng)
		if err != nil {
			return err
		}
		found, err := s.bus.Scan(ctx, start, stop)
		if err != nil {
			return err
		}
		console.Printf("%s", scanTable("", start, stop, found))
		return nil
	case "mode":
		if s.modes == nil {
			return fmt.Errorf("this bus has no modes")
		}
		if len(fields) > 1 {
			err := s.modes.SetMode(ctx, fields[1])
			if err != nil {
				return err
			}
		}
		console.Print(s.modes.Mode().String())
		return nil
	case "release":
		return s.bus.Release(ctx)
	}
	t, err := parseTransfer(fields)
	if err != nil {
		return err
	}
	data, err := t.run(ctx, s.bus)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		console.Print(hexString(data))
	}
	return nil
}
