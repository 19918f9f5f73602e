package adapter

import (
	"context"
	"fmt"
)

// Scan probes every address in [start, stop] with a write start condition
// followed by a stop and returns the addresses that acknowledged, in
// ascending order. Addresses the adapter reports as not answering are
// skipped; a failure of the serial line ends the scan.
func (d *USBISS) Scan(ctx context.Context, start, stop byte) ([]byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.open {
		return nil, ErrNotOpen
	}
	if !d.mode.IsI2C() {
		return nil, fmt.Errorf("%w (current mode %s)", ErrNotI2CMode, d.mode)
	}
	if stop > maxAddress || start > stop {
		return nil, fmt.Errorf("%w: [%#x, %#x]", ErrInvalidRange, start, stop)
	}
	found := make([]byte, 0)
	for addr := int(start); addr <= int(stop); addr++ {
		if err := ctx.Err(); err != nil {
			return found, fmt.Errorf("scan interrupted at %#x: %w", addr, err)
		}
		ok, err := d.probe(byte(addr))
		if err != nil {
			return found, fmt.Errorf("scan aborted at %#x: %w", addr, err)
		}
		if ok {
			d.log.Debug("device found", "address", fmt.Sprintf("%#x", addr))
			found = append(found, byte(addr))
		}
	}
	return found, nil
}

// probe tells whether a device acknowledges its address. Only adapter
// rejections count as absence; any other failure is returned.
func (d *USBISS) probe(address byte) (bool, error) {
	err := d.startBit(i2cStart, address, dirWrite)
	present := err == nil
	if err != nil && !IsRejected(err) {
		// still try to leave the bus idle before giving up
		stopErr := d.stopBit()
		if stopErr != nil {
			d.log.Warn("stop after failed probe was not accepted, bus may be clamped", "address", fmt.Sprintf("%#x", address), "error", stopErr)
		}
		return false, err
	}
	stopErr := d.stopBit()
	if stopErr == nil {
		return present, nil
	}
	if !IsRejected(stopErr) {
		return false, stopErr
	}
	if present {
		d.log.Warn("stop after probe was not accepted", "address", fmt.Sprintf("%#x", address), "error", stopErr)
	}
	return present, nil
}
