// Package usbiss defines the I2C master interfaces implemented by the USB-ISS
// adapter (package adapter) and by periph.io backed buses (package i2c).
package usbiss

import (
	"context"
)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	// Release frees a bus left in an unfinished transfer.
	Release(ctx context.Context) error
}

// WriteReader performs a write followed by a repeated start and a read
// without releasing the bus in between.
type WriteReader interface {
	WriteReadAddr(ctx context.Context, address byte, w, r []byte) error
}

// Scanner probes a range of 7-bit addresses and returns the ones that answered.
type Scanner interface {
	Scan(ctx context.Context, start, stop byte) ([]byte, error)
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

type I2CMaster interface {
	I2CBus
	WriteReader
	Scanner
}
