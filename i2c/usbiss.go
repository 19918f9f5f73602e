// Package i2c connects the USB-ISS to the periph.io I2C ecosystem and gives
// native host buses the same face as the adapter.
package i2c

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/adapter"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

var ErrTenBitAddress = errors.New("USB-ISS supports 7-bit addresses only")

// Session is the part of adapter.USBISS the bridge relies on.
type Session interface {
	usbiss.I2CMaster
	SetModeValue(ctx context.Context, mode adapter.Mode) error
	Port() string
	Close() error
}

var (
	_ Session       = &adapter.USBISS{}
	_ i2c.BusCloser = &Bus{}
)

// Bus exposes a USB-ISS session as a periph.io I2C bus so that the periph
// device drivers can run on top of it.
type Bus struct {
	dev Session
	// owned sessions are closed together with the bus
	owned bool
}

// NewBus wraps an open session. Closing the bus leaves the session open.
func NewBus(dev Session) *Bus {
	return &Bus{dev: dev}
}

// Config selects the adapter Open connects to.
type Config struct {
	Port     string
	BaudRate int
	Mode     adapter.Mode
}

// Open connects to an adapter, switches it to cfg.Mode and returns a bus
// owning the session.
func Open(ctx context.Context, cfg Config, opts ...adapter.USBISSOpt) (*Bus, error) {
	d := adapter.New(opts...)
	err := d.Open(ctx, cfg.Port, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	err = d.SetModeValue(ctx, cfg.Mode)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	return &Bus{dev: d, owned: true}, nil
}

// Register makes the adapter described by cfg available as i2creg.Open(name).
// The adapter is only contacted when the bus is opened.
func Register(name string, cfg Config, opts ...adapter.USBISSOpt) error {
	return i2creg.Register(name, nil, -1, func() (i2c.BusCloser, error) {
		bus, err := Open(context.Background(), cfg, opts...)
		if err != nil {
			return nil, err
		}
		return bus, nil
	})
}

func (b *Bus) String() string {
	return fmt.Sprintf("USB-ISS(%s)", b.dev.Port())
}

// Tx runs a write, a read or a repeated start write/read depending on which
// buffers are non-empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: %#x", ErrTenBitAddress, addr)
	}
	ctx := context.Background()
	switch {
	case len(w) > 0 && len(r) > 0:
		return b.dev.WriteReadAddr(ctx, byte(addr), w, r)
	case len(w) > 0:
		return b.dev.WriteToAddr(ctx, byte(addr), w)
	case len(r) > 0:
		return b.dev.ReadFromAddr(ctx, byte(addr), r)
	}
	return nil
}

// SetSpeed switches the adapter to the I2C mode clocked at f.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	mode, err := adapter.ModeForFrequency(f)
	if err != nil {
		return err
	}
	return b.dev.SetModeValue(context.Background(), mode)
}

// Session returns the session behind the bus.
func (b *Bus) Session() Session {
	return b.dev
}

func (b *Bus) Close() error {
	if !b.owned {
		return nil
	}
	return b.dev.Close()
}
