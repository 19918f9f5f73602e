package adapter

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Mode is the adapter's transfer personality as reported by the handshake
// and accepted by the set-mode command.
type Mode byte

const (
	ModeIO          Mode = 0x00
	ModeIOChange    Mode = 0x10
	ModeI2CS20kHz   Mode = 0x20 // software bit-banged I2C
	ModeI2CS50kHz   Mode = 0x30
	ModeI2CS100kHz  Mode = 0x40
	ModeI2CS400kHz  Mode = 0x50
	ModeI2CH100kHz  Mode = 0x60 // hardware I2C
	ModeI2CH400kHz  Mode = 0x70
	ModeI2CH1000kHz Mode = 0x80
	ModeSPI         Mode = 0x90
	ModeSerial      Mode = 0x01

	// ModeUnknown marks a mode byte reported by the device that is not in the table above.
	ModeUnknown Mode = 0xFE
	// ModeUnset is the mode of a session that is not open.
	ModeUnset Mode = 0xFF
)

var modeNames = map[Mode]string{
	ModeIO:          "IO_MODE",
	ModeIOChange:    "IO_CHANGE",
	ModeI2CS20kHz:   "I2C_S_20KHZ",
	ModeI2CS50kHz:   "I2C_S_50KHZ",
	ModeI2CS100kHz:  "I2C_S_100KHZ",
	ModeI2CS400kHz:  "I2C_S_400KHZ",
	ModeI2CH100kHz:  "I2C_H_100KHZ",
	ModeI2CH400kHz:  "I2C_H_400KHZ",
	ModeI2CH1000kHz: "I2C_H_1000KHZ",
	ModeSPI:         "SPI_MODE",
	ModeSerial:      "SERIAL",
}

// I2CModes lists the I2C personalities from the slowest to the fastest.
var I2CModes = []Mode{
	ModeI2CS20kHz,
	ModeI2CS50kHz,
	ModeI2CS100kHz,
	ModeI2CS400kHz,
	ModeI2CH100kHz,
	ModeI2CH400kHz,
	ModeI2CH1000kHz,
}

func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "UNSET"
	case ModeUnknown:
		return "UNKNOWN"
	}
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsI2C tells whether m is one of the I2C personalities.
func (m Mode) IsI2C() bool {
	switch m {
	case ModeI2CS20kHz, ModeI2CS50kHz, ModeI2CS100kHz, ModeI2CS400kHz,
		ModeI2CH100kHz, ModeI2CH400kHz, ModeI2CH1000kHz:
		return true
	}
	return false
}

// Frequency returns the I2C clock of m, or 0 for non I2C modes.
func (m Mode) Frequency() physic.Frequency {
	switch m {
	case ModeI2CS20kHz:
		return 20 * physic.KiloHertz
	case ModeI2CS50kHz:
		return 50 * physic.KiloHertz
	case ModeI2CS100kHz, ModeI2CH100kHz:
		return 100 * physic.KiloHertz
	case ModeI2CS400kHz, ModeI2CH400kHz:
		return 400 * physic.KiloHertz
	case ModeI2CH1000kHz:
		return physic.MegaHertz
	}
	return 0
}

// decodeMode maps a raw byte from the device onto the enumeration.
func decodeMode(b byte) Mode {
	if _, ok := modeNames[Mode(b)]; ok {
		return Mode(b)
	}
	return ModeUnknown
}

// ParseMode resolves a mode name, case-insensitively.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return ModeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedMode, name)
}

// ModeForFrequency picks the I2C mode running at f. The hardware engine is
// preferred where both engines offer the same clock; 20 and 50 kHz exist
// only as software modes.
func ModeForFrequency(f physic.Frequency) (Mode, error) {
	switch f {
	case 20 * physic.KiloHertz:
		return ModeI2CS20kHz, nil
	case 50 * physic.KiloHertz:
		return ModeI2CS50kHz, nil
	case 100 * physic.KiloHertz:
		return ModeI2CH100kHz, nil
	case 400 * physic.KiloHertz:
		return ModeI2CH400kHz, nil
	case physic.MegaHertz:
		return ModeI2CH1000kHz, nil
	}
	return ModeUnknown, fmt.Errorf("%w: no I2C mode runs at %s", ErrUnsupportedMode, f)
}
