package adapter

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/usbiss/transport"
)

// simTarget is an I2C slave attached to the simulated adapter.
type simTarget struct {
	written []byte
	data    []byte
	pos     int
}

func (t *simTarget) next() byte {
	if len(t.data) == 0 {
		return 0xFF
	}
	b := t.data[t.pos%len(t.data)]
	t.pos++
	return b
}

// simAdapter speaks the USB-ISS serial protocol well enough to drive the
// engine: it answers setup commands and runs direct I2C frames against the
// attached targets.
type simAdapter struct {
	mu       sync.Mutex
	id       byte
	firmware byte
	mode     byte
	serial   string
	targets  map[byte]*simTarget

	// override may replace the reply to a frame; returning ok == false keeps
	// the default behaviour.
	override func(frame []byte) (reply []byte, ok bool)

	frames      [][]byte
	out         bytes.Buffer
	selected    *simTarget
	inTx        bool
	interleaved bool
	resets      int
	closed      bool
}

func newSimAdapter() *simAdapter {
	return &simAdapter{
		id:       moduleID,
		firmware: 0x08,
		mode:     byte(ModeI2CS100kHz),
		serial:   "00012345",
		targets:  map[byte]*simTarget{},
	}
}

func (s *simAdapter) attach(address byte, data ...byte) *simTarget {
	t := &simTarget{data: data}
	s.targets[address] = t
	return t
}

func (s *simAdapter) Write(frame []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := append([]byte(nil), frame...)
	s.frames = append(s.frames, f)
	if s.override != nil {
		if reply, ok := s.override(f); ok {
			s.out.Write(reply)
			return len(frame), nil
		}
	}
	s.out.Write(s.reply(f))
	return len(frame), nil
}

func (s *simAdapter) reply(f []byte) []byte {
	switch {
	case len(f) == 2 && f[0] == cmdSetup && f[1] == cmdVersion:
		return []byte{s.id, s.firmware, s.mode}
	case len(f) == 2 && f[0] == cmdSetup && f[1] == cmdSerial:
		return []byte(s.serial)
	case len(f) == 4 && f[0] == cmdSetup && f[1] == cmdSetMode:
		if !Mode(f[2]).IsI2C() {
			return []byte{0x00, byte(CodeUnknownCommand1)}
		}
		s.mode = f[2]
		return []byte{statusACK, 0x00}
	case len(f) >= 2 && f[0] == cmdDirect:
		return s.direct(f[1:])
	}
	return []byte{0x00, byte(CodeUnknownCommand2)}
}

func (s *simAdapter) direct(f []byte) []byte {
	nack := []byte{0x00, byte(CodeNoACK)}
	switch {
	case f[0] == i2cStart || f[0] == i2cRestart:
		if f[0] == i2cStart && s.inTx {
			s.interleaved = true
		}
		s.inTx = true
		s.selected = s.targets[f[2]>>1]
		if s.selected == nil {
			return nack
		}
		return []byte{statusACK, 0x00}
	case f[0] == i2cStop:
		s.inTx = false
		s.selected = nil
		return []byte{statusACK, 0x00}
	case f[0] == i2cNCK && len(f) == 2 && f[1] == i2cRead:
		if s.selected == nil {
			return nack
		}
		return []byte{statusACK, 0x01, s.selected.next()}
	case f[0]&0xF0 == i2cWrite:
		if s.selected == nil {
			return nack
		}
		s.selected.written = append(s.selected.written, f[1:]...)
		return []byte{statusACK, 0x00}
	case f[0]&0xF0 == i2cRead:
		if s.selected == nil {
			return nack
		}
		n := int(f[0]&0x0F) + 1
		reply := []byte{statusACK, byte(n)}
		for i := 0; i < n; i++ {
			reply = append(reply, s.selected.next())
		}
		return reply
	}
	return []byte{0x00, byte(CodeUnknownCommand1)}
}

// Read behaves like a serial port with a read timeout: nothing pending
// means zero bytes and no error.
func (s *simAdapter) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out.Len() == 0 {
		return 0, nil
	}
	return s.out.Read(p)
}

func (s *simAdapter) Drain() error { return nil }

func (s *simAdapter) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.out.Reset()
	return nil
}

func (s *simAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *simAdapter) sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *simAdapter) clearFrames() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	s.resets = 0
}

func (s *simAdapter) opener() transport.Opener {
	return func(path string, baud int) (transport.Port, error) {
		return s, nil
	}
}

// openSim returns an open session on sim with the handshake frames already
// cleared from its log.
func openSim(t *testing.T, sim *simAdapter) *USBISS {
	t.Helper()
	d := New(WithOpener(sim.opener()), WithLogger(slog.New(slog.DiscardHandler)), WithVerbose(true))
	require.NoError(t, d.Open(context.Background(), "/dev/ttyACM0", 0))
	sim.clearFrames()
	return d
}

// mockPort lets a test decide the outcome of every port call.
type mockPort struct {
	mock.Mock
}

func (m *mockPort) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockPort) Read(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockPort) Drain() error {
	return m.Called().Error(0)
}

func (m *mockPort) ResetInputBuffer() error {
	return m.Called().Error(0)
}

func (m *mockPort) Close() error {
	return m.Called().Error(0)
}

// replyWith makes a Read call deliver reply in one burst.
func replyWith(reply ...byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		copy(args.Get(0).([]byte), reply)
	}
}

// attachedTo builds a session bound to port as if Open had succeeded.
func attachedTo(port transport.Port, mode Mode) *USBISS {
	d := New(WithLogger(slog.New(slog.DiscardHandler)))
	d.port = port
	d.portPath = "/dev/ttyACM0"
	d.baudRate = DefaultBaudRate
	d.firmware = 0x08
	d.mode = mode
	d.open = true
	return d
}
