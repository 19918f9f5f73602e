package main

import (
	"fmt"
	"strings"
)

const dumpIndent = "             "

// hexdump renders data 16 bytes per line, each line prefixed by indent and
// the offset of its first byte, with an extra gap after the eighth byte.
func hexdump(indent string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	digits := len(fmt.Sprintf("%x", len(data)-1))
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		fmt.Fprintf(&sb, "%s%0*x:  ", indent, digits, off)
		for j := 0; j < 16 && off+j < len(data); j++ {
			fmt.Fprintf(&sb, "%02x ", data[off+j])
			if j == 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func hexString(data []byte) string {
	return fmt.Sprintf("% x", data)
}

// scanTable draws the i2cdetect style map of a scan over [start, stop]:
// found addresses by number, silent ones as "--" and addresses outside the
// range left blank. Rows cover whole blocks of 16.
func scanTable(indent string, start, stop byte, found []byte) string {
	present := make(map[byte]bool, len(found))
	for _, a := range found {
		present[a] = true
	}
	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString("   ")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&sb, "%3x", i)
	}
	first := int(start) &^ 0x0F
	last := int(stop) | 0x0F
	for a := first; a <= last; a++ {
		if a%16 == 0 {
			fmt.Fprintf(&sb, "\n%s%02x: ", indent, a)
		}
		switch {
		case a < int(start) || a > int(stop):
			sb.WriteString("   ")
		case present[byte(a)]:
			fmt.Fprintf(&sb, "%02x ", a)
		default:
			sb.WriteString("-- ")
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
