package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/cmd/usbiss/console"
)

const (
	defaultScanStart byte = 0x03
	defaultScanStop  byte = 0x77
)

var ErrSyntax = errors.New("invalid transfer syntax")

// transfer is one bus access in the "<adr7> w <b0> .. <bn> r <cnt>" notation.
type transfer struct {
	Address byte
	Write   []byte
	Read    int
}

// parseTransfer reads the command grammar:
//
//	<adr7> w <b0> <bn>    write
//	<adr7> r <cnt>        read
//	<adr7> w <bn> r <cnt> write, repeated start, read
func parseTransfer(fields []string) (transfer, error) {
	var t transfer
	if len(fields) == 0 {
		return t, fmt.Errorf("%w: missing device address", ErrSyntax)
	}
	addr, err := parseNumber(fields[0], 8)
	if err != nil {
		return t, fmt.Errorf("%w: address %q: %w", ErrSyntax, fields[0], err)
	}
	if addr > 0x7F {
		return t, fmt.Errorf("%w: address %#x is not a 7-bit address", ErrSyntax, addr)
	}
	t.Address = byte(addr)

	var access string
	var sawWrite, sawRead bool
	for _, f := range fields[1:] {
		switch strings.ToLower(f) {
		case "w":
			if sawWrite || sawRead {
				return t, fmt.Errorf("%w: 'w' must come once and before 'r'", ErrSyntax)
			}
			sawWrite = true
			access = "w"
			continue
		case "r":
			if sawRead {
				return t, fmt.Errorf("%w: more than one 'r'", ErrSyntax)
			}
			sawRead = true
			access = "r"
			continue
		}
		switch access {
		case "w":
			b, err := parseNumber(f, 8)
			if err != nil {
				return t, fmt.Errorf("%w: write byte %q: %w", ErrSyntax, f, err)
			}
			t.Write = append(t.Write, byte(b))
		case "r":
			if t.Read != 0 {
				return t, fmt.Errorf("%w: unexpected %q after read count", ErrSyntax, f)
			}
			n, err := parseNumber(f, 16)
			if err != nil {
				return t, fmt.Errorf("%w: read count %q: %w", ErrSyntax, f, err)
			}
			if n == 0 {
				return t, fmt.Errorf("%w: read count must be positive", ErrSyntax)
			}
			t.Read = int(n)
		default:
			return t, fmt.Errorf("%w: %q before 'w' or 'r'", ErrSyntax, f)
		}
	}
	if sawWrite && len(t.Write) == 0 {
		return t, fmt.Errorf("%w: 'w' without data", ErrSyntax)
	}
	if sawRead && t.Read == 0 {
		return t, fmt.Errorf("%w: 'r' without count", ErrSyntax)
	}
	if !sawWrite && !sawRead {
		return t, fmt.Errorf("%w: nothing to transfer", ErrSyntax)
	}
	return t, nil
}

// parseNumber accepts decimal and 0x prefixed hexadecimal.
func parseNumber(s string, bits int) (uint64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

// parseScanRange reads "START:STOP"; an empty string is the default range.
func parseScanRange(s string) (byte, byte, error) {
	if s == "" {
		return defaultScanStart, defaultScanStop, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: scan range %q, use START:STOP", ErrSyntax, s)
	}
	start, err := parseNumber(lo, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: scan start %q: %w", ErrSyntax, lo, err)
	}
	stop, err := parseNumber(hi, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: scan stop %q: %w", ErrSyntax, hi, err)
	}
	if start > stop {
		return 0, 0, fmt.Errorf("%w: scan range needs to be ascending, stop >= start", ErrSyntax)
	}
	if stop > 0x7F {
		return 0, 0, fmt.Errorf("%w: scan stop %#x is not a 7-bit address", ErrSyntax, stop)
	}
	return byte(start), byte(stop), nil
}

// run performs t on bus and returns the bytes read, if any.
func (t transfer) run(ctx context.Context, bus usbiss.I2CMaster) ([]byte, error) {
	switch {
	case len(t.Write) > 0 && t.Read > 0:
		r := make([]byte, t.Read)
		err := bus.WriteReadAddr(ctx, t.Address, t.Write, r)
		return r, err
	case len(t.Write) > 0:
		return nil, bus.WriteToAddr(ctx, t.Address, t.Write)
	default:
		r := make([]byte, t.Read)
		err := bus.ReadFromAddr(ctx, t.Address, r)
		return r, err
	}
}

// report prints the outcome of t the way the transfer commands do. In brief
// mode only the bytes read are printed, as one line of hex.
func (t transfer) report(data []byte) {
	if console.Brief {
		if len(data) > 0 {
			console.Print(hexString(data))
		}
		return
	}
	switch {
	case len(t.Write) > 0 && t.Read > 0:
		console.Okf("Write/Read interaction with device 0x%02x", t.Address)
		console.Detailf("Write %d bytes", len(t.Write))
		console.Printf("%s", hexdump(dumpIndent, t.Write))
		console.Detailf("Read %d bytes", len(data))
		console.Printf("%s", hexdump(dumpIndent, data))
	case len(t.Write) > 0:
		console.Okf("Write %d bytes to device 0x%02x", len(t.Write), t.Address)
		console.Printf("%s", hexdump(dumpIndent, t.Write))
	default:
		console.Okf("Read %d bytes from device 0x%02x", len(data), t.Address)
		console.Printf("%s", hexdump(dumpIndent, data))
	}
}
