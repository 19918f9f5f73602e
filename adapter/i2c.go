package adapter

import (
	"context"
	"fmt"
)

// I2C direct mode opcodes.
const (
	cmdDirect  byte = 0x57
	i2cStart   byte = 0x01
	i2cRestart byte = 0x02
	i2cStop    byte = 0x03
	i2cNCK     byte = 0x04 // NACK the next byte read
	i2cRead    byte = 0x20 // 0x2n reads n+1 bytes
	i2cWrite   byte = 0x30 // 0x3n writes n+1 bytes

	dirWrite byte = 0x00
	dirRead  byte = 0x01

	// ChunkSize is the largest data phase the adapter accepts in one frame.
	ChunkSize = 16

	maxAddress byte = 0x7F
)

// I2CWrite writes data to the device at the 7-bit address: start, address
// with the write bit, data in chunks of up to ChunkSize bytes, stop.
// Writing nothing succeeds without touching the bus.
func (d *USBISS) I2CWrite(ctx context.Context, address byte, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.checkI2C(address)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	err = d.transaction(ctx, address, data, nil)
	if err != nil {
		return fmt.Errorf("write to %#x failed: %w", address, err)
	}
	return nil
}

// WriteToAddr is I2CWrite under the bus interface name.
func (d *USBISS) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return d.I2CWrite(ctx, address, buffer)
}

// I2CRead reads n bytes from the device at the 7-bit address. Every byte
// but the last is acknowledged; the last one is NACKed to end the transfer.
func (d *USBISS) I2CRead(ctx context.Context, address byte, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrInvalidState, n)
	}
	buf := make([]byte, n)
	err := d.ReadFromAddr(ctx, address, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFromAddr fills buffer with bytes read from the device at address.
func (d *USBISS) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.checkI2C(address)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	err = d.transaction(ctx, address, nil, buffer)
	if err != nil {
		return fmt.Errorf("bus read from %#x failed: %w", address, err)
	}
	return nil
}

// I2CWriteRead writes w, issues a repeated start and reads n bytes back
// without releasing the bus. The result is a new slice; w is left untouched.
// With nothing to write or nothing to read the call is a no-op.
func (d *USBISS) I2CWriteRead(ctx context.Context, address byte, w []byte, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrInvalidState, n)
	}
	if len(w) == 0 || n == 0 {
		return []byte{}, nil
	}
	r := make([]byte, n)
	err := d.WriteReadAddr(ctx, address, w, r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// WriteReadAddr is the repeated start transfer on caller buffers. The write
// phase has fully completed before the first byte is stored into r, so r may
// share its backing array with w: reading into the buffer that held the
// request is supported and overwrites it.
// Nothing is sent unless both w and r are non-empty.
func (d *USBISS) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	if len(w) == 0 || len(r) == 0 {
		return nil
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.checkI2C(address)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	err = d.transaction(ctx, address, w, r)
	if err != nil {
		return fmt.Errorf("write/read with %#x failed: %w", address, err)
	}
	return nil
}

// Release sends a lone stop condition to free a bus left clamped by an
// interrupted transfer.
func (d *USBISS) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.checkI2C(0)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return d.stopBit()
}

// transaction runs start, the data phases and stop. Once the start frame
// went out a stop is attempted on every path; the first failure is the one
// reported.
func (d *USBISS) transaction(ctx context.Context, address byte, w, r []byte) error {
	dir := dirWrite
	if len(w) == 0 && len(r) > 0 {
		dir = dirRead
	}
	err := d.startBit(i2cStart, address, dir)
	if err == nil && len(w) > 0 {
		err = d.writeData(ctx, w)
	}
	if err == nil && len(w) > 0 && len(r) > 0 {
		err = d.startBit(i2cRestart, address, dirRead)
	}
	if err == nil && len(r) > 0 {
		err = d.readData(ctx, r)
	}
	stopErr := d.stopBit()
	if err != nil {
		if stopErr != nil {
			d.log.Warn("stop after failed transfer was not accepted, bus may be clamped", "address", fmt.Sprintf("%#x", address), "error", stopErr)
		}
		return err
	}
	return stopErr
}

func (d *USBISS) startBit(marker, address, dir byte) error {
	op := "start"
	if marker == i2cRestart {
		op = "restart"
	}
	frame := d.request[:4]
	frame[0] = cmdDirect
	frame[1] = marker
	frame[2] = i2cWrite // one byte: the address
	frame[3] = address<<1 | dir
	return d.directStatus(op, frame)
}

func (d *USBISS) stopBit() error {
	frame := d.request[:2]
	frame[0] = cmdDirect
	frame[1] = i2cStop
	return d.directStatus("stop", frame)
}

// directStatus sends a direct mode frame answered by [status, reason].
func (d *USBISS) directStatus(op string, frame []byte) error {
	reply := d.response[:2]
	err := d.exchange(d.port, op, frame, reply)
	if err != nil {
		return err
	}
	if reply[0] != statusACK {
		return newAdapterError(op, reply[1])
	}
	return nil
}

func (d *USBISS) writeData(ctx context.Context, data []byte) error {
	for off := 0; off < len(data); off += ChunkSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("write interrupted at offset %d: %w", off, err)
		}
		chunk := data[off:min(off+ChunkSize, len(data))]
		frame := d.request[:2+len(chunk)]
		frame[0] = cmdDirect
		frame[1] = i2cWrite + byte(len(chunk)-1)
		copy(frame[2:], chunk)
		err := d.directStatus("write", frame)
		if err != nil {
			return fmt.Errorf("chunk at offset %d: %w", off, err)
		}
	}
	return nil
}

// readData reads len(buf) bytes: all but the last in acknowledged chunks,
// the last one on its own with a NACK.
func (d *USBISS) readData(ctx context.Context, buf []byte) error {
	last := len(buf) - 1
	for off := 0; off < last; off += ChunkSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("read interrupted at offset %d: %w", off, err)
		}
		chunk := buf[off:min(off+ChunkSize, last)]
		frame := d.request[:2]
		frame[0] = cmdDirect
		frame[1] = i2cRead + byte(len(chunk)-1)
		err := d.readChunk("read", frame, chunk)
		if err != nil {
			return fmt.Errorf("chunk at offset %d: %w", off, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("read interrupted at offset %d: %w", last, err)
	}
	frame := d.request[:3]
	frame[0] = cmdDirect
	frame[1] = i2cNCK
	frame[2] = i2cRead
	err := d.readChunk("read last", frame, buf[last:])
	if err != nil {
		return fmt.Errorf("last byte at offset %d: %w", last, err)
	}
	return nil
}

// readChunk sends a read frame, checks [status, count] and then collects
// count payload bytes into dst.
func (d *USBISS) readChunk(op string, frame, dst []byte) error {
	reply := d.response[:2]
	err := d.exchange(d.port, op, frame, reply)
	if err != nil {
		return err
	}
	if reply[0] != statusACK {
		return newAdapterError(op, reply[1])
	}
	if int(reply[1]) != len(dst) {
		d.discard(d.port)
		return fmt.Errorf("%w: %s returned %d bytes, requested %d", ErrFraming, op, reply[1], len(dst))
	}
	return d.receive(d.port, op, dst)
}
