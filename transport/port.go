// Package transport carries bytes between the host and a USB-ISS adapter.
//
// The adapter enumerates as a CDC-ACM serial device. Port is the narrow
// contract the protocol engine needs from it; OpenSerial returns one backed
// by go.bug.st/serial.
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout bounds a single read call on the serial line. The
// adapter answers every frame within a few milliseconds, so hitting it means
// the device stopped talking.
const DefaultReadTimeout = 500 * time.Millisecond

var (
	ErrReadTimeout     = errors.New("serial read timed out")
	ErrAdapterNotFound = errors.New("no USB-ISS compatible serial port found")
)

// Port is a byte-oriented serial channel.
type Port interface {
	io.ReadWriteCloser
	// Drain blocks until everything written has left the host.
	Drain() error
	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error
}

// Opener opens the serial device at path with the given baud rate.
type Opener func(path string, baud int) (Port, error)

var _ Opener = OpenSerial

// OpenSerial opens path as an 8N1 serial line without flow control.
func OpenSerial(path string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("could not open %s at %d baud: %w", path, baud, err)
	}
	err = port.SetReadTimeout(DefaultReadTimeout)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// ReadFull reads until buf is full. Serial lines deliver data in bursts so a
// short read is not an error; a read that returns nothing at all means the
// port's read timeout expired. The number of bytes collected is always
// returned, also on error.
func ReadFull(r io.Reader, buf []byte) (int, error) {
	var got int
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		if err != nil {
			if errors.Is(err, io.EOF) && got < len(buf) {
				return got, io.ErrUnexpectedEOF
			}
			if got == len(buf) {
				return got, nil
			}
			return got, err
		}
		if n == 0 {
			return got, ErrReadTimeout
		}
	}
	return got, nil
}
