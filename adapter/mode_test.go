package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		want Mode
	}{
		{"I2C_S_20KHZ", ModeI2CS20kHz},
		{"i2c_s_100khz", ModeI2CS100kHz},
		{" I2C_H_1000KHZ ", ModeI2CH1000kHz},
		{"SERIAL", ModeSerial},
		{"IO_MODE", ModeIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}

	_, err := ParseMode("I2C_FAST")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "I2C_H_400KHZ", ModeI2CH400kHz.String())
	assert.Equal(t, "UNSET", ModeUnset.String())
	assert.Equal(t, "UNKNOWN", ModeUnknown.String())
	assert.Equal(t, "UNKNOWN", Mode(0x33).String())
}

func TestIsI2C(t *testing.T) {
	for _, m := range I2CModes {
		assert.True(t, m.IsI2C(), m.String())
	}
	for _, m := range []Mode{ModeIO, ModeIOChange, ModeSPI, ModeSerial, ModeUnknown, ModeUnset} {
		assert.False(t, m.IsI2C(), m.String())
	}
}

func TestDecodeMode(t *testing.T) {
	assert.Equal(t, ModeI2CS100kHz, decodeMode(0x40))
	assert.Equal(t, ModeSerial, decodeMode(0x01))
	assert.Equal(t, ModeUnknown, decodeMode(0x44))
}

func TestFrequency(t *testing.T) {
	assert.Equal(t, 100*physic.KiloHertz, ModeI2CS100kHz.Frequency())
	assert.Equal(t, physic.MegaHertz, ModeI2CH1000kHz.Frequency())
	assert.Equal(t, physic.Frequency(0), ModeSPI.Frequency())

	m, err := ModeForFrequency(400 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, ModeI2CH400kHz, m)
	m, err = ModeForFrequency(50 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, ModeI2CS50kHz, m)
	_, err = ModeForFrequency(3400 * physic.KiloHertz)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}
