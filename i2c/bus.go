package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/usbiss"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var _ usbiss.I2CMaster = &GenericBus{}

// GenericBus drives any bus periph.io knows about, native host buses as well
// as a registered USB-ISS, through the same interfaces the adapter offers.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus loads the periph host drivers and opens the bus called dev
// ("" picks the first one available).
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", dev, err)
	}
	return &GenericBus{bus: bus}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	if len(w) == 0 || len(r) == 0 {
		return nil
	}
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("could not write/read i2c bus %x: %w", address, err)
	}
	return nil
}

// Scan reads one byte from every address in [start, stop]. Host drivers
// cannot send an address-only frame, so a device that refuses reads looks
// absent.
func (b *GenericBus) Scan(ctx context.Context, start, stop byte) ([]byte, error) {
	if stop > 0x7F || start > stop {
		return nil, fmt.Errorf("invalid address range [%#x, %#x]", start, stop)
	}
	found := make([]byte, 0)
	probe := make([]byte, 1)
	for addr := int(start); addr <= int(stop); addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if b.bus.Tx(uint16(addr), nil, probe) == nil {
			found = append(found, byte(addr))
		}
	}
	return found, nil
}

// Release is a no-op, host drivers always finish with a stop condition.
func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) String() string {
	return b.bus.String()
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
