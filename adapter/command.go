package adapter

import (
	"errors"
	"fmt"
	"io"

	"github.com/mklimuk/usbiss/transport"
)

const (
	cmdSetup    byte = 0x5A
	cmdVersion  byte = 0x01
	cmdSetMode  byte = 0x02
	cmdSerial   byte = 0x03
	statusACK   byte = 0xFF
	moduleID    byte = 0x07
	minFirmware byte = 0x08
	// ioTypeDefault is sent as the io-type byte of every I2C mode change.
	ioTypeDefault byte = 0x04
	serialLength       = 8
)

type version struct {
	ModuleID byte
	Firmware byte
	Mode     Mode
}

// handshake asks the adapter for its module id, firmware version and
// current mode.
func (d *USBISS) handshake(port transport.Port) (version, error) {
	reply := d.response[:3]
	err := d.exchange(port, "version", []byte{cmdSetup, cmdVersion}, reply)
	if err != nil {
		return version{}, err
	}
	d.log.Debug("adapter version", "id", fmt.Sprintf("0x%02x", reply[0]), "firmware", fmt.Sprintf("0x%02x", reply[1]), "mode", fmt.Sprintf("0x%02x", reply[2]))
	if reply[0] != moduleID {
		return version{}, fmt.Errorf("%w: unexpected module id 0x%02x", ErrFraming, reply[0])
	}
	return version{ModuleID: reply[0], Firmware: reply[1], Mode: decodeMode(reply[2])}, nil
}

func (d *USBISS) readSerial(port transport.Port) (string, error) {
	reply := d.response[:serialLength]
	err := d.exchange(port, "serial number", []byte{cmdSetup, cmdSerial}, reply)
	if err != nil {
		return "", err
	}
	return string(reply), nil
}

func (d *USBISS) writeMode(port transport.Port, mode Mode) error {
	reply := d.response[:2]
	err := d.exchange(port, "set mode", []byte{cmdSetup, cmdSetMode, byte(mode), ioTypeDefault}, reply)
	if err != nil {
		return err
	}
	if reply[0] != statusACK {
		return newAdapterError("set mode", reply[1])
	}
	return nil
}

// exchange sends a request frame and reads exactly len(reply) bytes back.
func (d *USBISS) exchange(port transport.Port, op string, frame, reply []byte) error {
	err := d.send(port, op, frame)
	if err != nil {
		return err
	}
	return d.receive(port, op, reply)
}

func (d *USBISS) send(port transport.Port, op string, frame []byte) error {
	if d.verbose {
		d.log.Debug("sending frame to adapter", "op", op, "frame", fmt.Sprintf("% x", frame))
	}
	n, err := port.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: could not write %s request: %w", ErrTransport, op, err)
	}
	if n != len(frame) {
		return fmt.Errorf("%w: short write of %s request: %d of %d bytes", ErrTransport, op, n, len(frame))
	}
	err = port.Drain()
	if err != nil {
		d.log.Debug("could not drain serial output", "op", op, "error", err)
	}
	return nil
}

func (d *USBISS) receive(port transport.Port, op string, reply []byte) error {
	n, err := transport.ReadFull(port, reply)
	if err != nil {
		if errors.Is(err, transport.ErrReadTimeout) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s reply: expected %d bytes, got %d", ErrFraming, op, len(reply), n)
		}
		return fmt.Errorf("%w: could not read %s reply: %w", ErrTransport, op, err)
	}
	if d.verbose {
		d.log.Debug("read frame from adapter", "op", op, "frame", fmt.Sprintf("% x", reply))
	}
	return nil
}

// discard drops whatever the adapter sent that nobody asked for.
func (d *USBISS) discard(port transport.Port) {
	err := port.ResetInputBuffer()
	if err != nil {
		d.log.Debug("could not discard pending input", "error", err)
	}
}
