package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseTransfer(t *testing.T) {
	tests := []struct {
		cmd  string
		want transfer
	}{
		{"0x50 w 0x00 0x10 255", transfer{Address: 0x50, Write: []byte{0x00, 0x10, 0xFF}}},
		{"80 r 4", transfer{Address: 0x50, Read: 4}},
		{"0x68 w 0x75 r 0x01", transfer{Address: 0x68, Write: []byte{0x75}, Read: 1}},
		{"0x1e W 1 R 300", transfer{Address: 0x1E, Write: []byte{1}, Read: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			got, err := parseTransfer(strings.Fields(tt.cmd))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransferErrors(t *testing.T) {
	for _, cmd := range []string{
		"",
		"0x50",
		"0x80 r 1",
		"zz r 1",
		"0x50 1 2",
		"0x50 w",
		"0x50 r",
		"0x50 r 0",
		"0x50 r 1 2",
		"0x50 w 1 w 2",
		"0x50 r 1 w 2",
		"0x50 r 1 r 2",
		"0x50 w 256",
		"0x50 w 0xZZ",
	} {
		t.Run(cmd, func(t *testing.T) {
			_, err := parseTransfer(strings.Fields(cmd))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParseScanRange(t *testing.T) {
	start, stop, err := parseScanRange("")
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), start)
	assert.Equal(t, byte(0x77), stop)

	start, stop, err = parseScanRange("0x48:0x4f")
	require.NoError(t, err)
	assert.Equal(t, byte(0x48), start)
	assert.Equal(t, byte(0x4F), stop)

	start, stop, err = parseScanRange("16:16")
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), start)
	assert.Equal(t, byte(0x10), stop)

	for _, bad := range []string{"0x10", "0x20:0x10", "0x03:0x80", "a:b", "1:"} {
		_, _, err = parseScanRange(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

// mockMaster implements usbiss.I2CMaster.
type mockMaster struct {
	mock.Mock
}

func (m *mockMaster) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *mockMaster) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return m.Called(ctx, address, buffer).Error(0)
}

func (m *mockMaster) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	args := m.Called(ctx, address, w, r)
	if data, ok := args.Get(0).([]byte); ok {
		copy(r, data)
	}
	return args.Error(1)
}

func (m *mockMaster) Scan(ctx context.Context, start, stop byte) ([]byte, error) {
	args := m.Called(ctx, start, stop)
	found, _ := args.Get(0).([]byte)
	return found, args.Error(1)
}

func (m *mockMaster) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestTransferRun(t *testing.T) {
	ctx := context.Background()

	t.Run("write", func(t *testing.T) {
		bus := &mockMaster{}
		bus.On("WriteToAddr", ctx, byte(0x50), []byte{0x00, 0x01}).Return(nil).Once()
		data, err := transfer{Address: 0x50, Write: []byte{0x00, 0x01}}.run(ctx, bus)
		require.NoError(t, err)
		assert.Nil(t, data)
		bus.AssertExpectations(t)
	})

	t.Run("read", func(t *testing.T) {
		bus := &mockMaster{}
		bus.On("ReadFromAddr", ctx, byte(0x50), mock.Anything).Return([]byte{0xCA, 0xFE}, nil).Once()
		data, err := transfer{Address: 0x50, Read: 2}.run(ctx, bus)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xCA, 0xFE}, data)
		bus.AssertExpectations(t)
	})

	t.Run("write then read", func(t *testing.T) {
		bus := &mockMaster{}
		bus.On("WriteReadAddr", ctx, byte(0x68), []byte{0x75}, mock.Anything).Return([]byte{0x71}, nil).Once()
		data, err := transfer{Address: 0x68, Write: []byte{0x75}, Read: 1}.run(ctx, bus)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x71}, data)
		bus.AssertExpectations(t)
	})
}
