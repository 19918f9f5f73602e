package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

type burstReader struct {
	bursts [][]byte
	err    error
}

func (r *burstReader) Read(p []byte) (int, error) {
	if len(r.bursts) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, nil
	}
	n := copy(p, r.bursts[0])
	r.bursts[0] = r.bursts[0][n:]
	if len(r.bursts[0]) == 0 {
		r.bursts = r.bursts[1:]
	}
	return n, nil
}

func TestReadFull(t *testing.T) {
	t.Run("one byte at a time", func(t *testing.T) {
		buf := make([]byte, 4)
		n, err := ReadFull(iotest.OneByteReader(bytes.NewReader([]byte{1, 2, 3, 4, 5})), buf)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, []byte{1, 2, 3, 4}, buf)
	})
	t.Run("bursts", func(t *testing.T) {
		r := &burstReader{bursts: [][]byte{{0xFF}, {0x02, 0xAA}, {0xBB}}}
		buf := make([]byte, 4)
		n, err := ReadFull(r, buf)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, []byte{0xFF, 0x02, 0xAA, 0xBB}, buf)
	})
	t.Run("timeout", func(t *testing.T) {
		r := &burstReader{bursts: [][]byte{{0xFF}}}
		buf := make([]byte, 2)
		n, err := ReadFull(r, buf)
		assert.ErrorIs(t, err, ErrReadTimeout)
		assert.Equal(t, 1, n)
	})
	t.Run("hard error", func(t *testing.T) {
		broken := errors.New("device unplugged")
		r := &burstReader{err: broken}
		n, err := ReadFull(r, make([]byte, 3))
		assert.ErrorIs(t, err, broken)
		assert.Zero(t, n)
	})
	t.Run("eof", func(t *testing.T) {
		n, err := ReadFull(bytes.NewReader([]byte{1}), make([]byte, 2))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Equal(t, 1, n)
	})
	t.Run("empty request", func(t *testing.T) {
		n, err := ReadFull(iotest.ErrReader(errors.New("not called")), nil)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestListAdapters(t *testing.T) {
	orig := listPorts
	defer func() { listPorts = orig }()

	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyACM3", IsUSB: true, VID: "04d8", PID: "ffee", SerialNumber: "00060147"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
			{Name: "/dev/ttyACM1", IsUSB: true, VID: "04D8", PID: "FFEE"},
		}, nil
	}
	ports, err := ListAdapters()
	require.NoError(t, err)
	require.Len(t, ports, 2)
	assert.Equal(t, "/dev/ttyACM1", ports[0].Name)
	assert.Equal(t, "/dev/ttyACM3", ports[1].Name)

	path, err := DetectAdapter()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", path)

	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, nil
	}
	_, err = DetectAdapter()
	assert.ErrorIs(t, err, ErrAdapterNotFound)

	listPorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("sysfs unavailable")
	}
	_, err = ListAdapters()
	assert.Error(t, err)
}
