package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/usbiss"
	"github.com/mklimuk/usbiss/transport"
)

// DefaultBaudRate is the rate the USB-ISS serial interface runs at after power-on.
const DefaultBaudRate = 230400

var supportedBaudRates = []int{9600, 14400, 19200, 38400, 57600, 115200, 230400}

var _ usbiss.I2CMaster = &USBISS{}

type USBISSOpts struct {
	Logger  *slog.Logger
	Verbose bool
	Opener  transport.Opener
	// Detector returns the port to use when Open is called without one.
	Detector func() (string, error)
}

type USBISSOpt func(*USBISSOpts)

func WithLogger(logger *slog.Logger) USBISSOpt {
	return func(o *USBISSOpts) {
		o.Logger = logger
	}
}

// WithVerbose enables debug dumps of every frame exchanged with the adapter.
func WithVerbose(verbose bool) USBISSOpt {
	return func(o *USBISSOpts) {
		o.Verbose = verbose
	}
}

func WithOpener(opener transport.Opener) USBISSOpt {
	return func(o *USBISSOpts) {
		o.Opener = opener
	}
}

func WithDetector(detect func() (string, error)) USBISSOpt {
	return func(o *USBISSOpts) {
		o.Detector = detect
	}
}

// USBISS is a connection to a Devantech USB-ISS adapter driving an I2C bus.
//
// Typical usage:
//
//	d := adapter.New()
//	err := d.Open(ctx, "", 0) // first adapter found, 230400 baud
//	defer d.Close()
//	err = d.SetMode(ctx, "I2C_S_100KHZ")
//	data, err := d.I2CRead(ctx, 0x50, 4)
//
// A USBISS serializes its own operations but a transaction is never
// interrupted half way: once a start condition went out, a stop follows.
type USBISS struct {
	mx       sync.Mutex
	log      *slog.Logger
	verbose  bool
	opener   transport.Opener
	detector func() (string, error)

	port     transport.Port
	portPath string
	baudRate int
	mode     Mode
	firmware byte
	serial   string
	open     bool

	request  []byte
	response []byte
}

// Info is a snapshot of the connection state.
type Info struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Firmware string `yaml:"firmware"`
	Serial   string `yaml:"serial"`
	Mode     string `yaml:"mode"`
	Open     bool   `yaml:"open"`
}

// New creates a session that is not connected yet.
func New(opts ...USBISSOpt) *USBISS {
	config := USBISSOpts{
		Logger:   slog.Default(),
		Opener:   transport.OpenSerial,
		Detector: transport.DetectAdapter,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &USBISS{
		log:      config.Logger,
		verbose:  config.Verbose,
		opener:   config.Opener,
		detector: config.Detector,
		mode:     ModeUnset,
		request:  make([]byte, 2+ChunkSize),
		response: make([]byte, 2+ChunkSize),
	}
}

func (d *USBISS) SetVerbose(verbose bool) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.verbose = verbose
}

// Open connects to the adapter at path. An empty path selects the first
// USB-ISS found on the system, a zero baud selects DefaultBaudRate. The
// adapter must identify itself and report its serial number; on any failure
// the port is closed again and the session stays as it was.
func (d *USBISS) Open(ctx context.Context, path string, baud int) (err error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.open {
		return ErrAlreadyOpen
	}
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if !isSupportedBaudRate(baud) {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
	}
	if path == "" {
		path, err = d.detector()
		if err != nil {
			return fmt.Errorf("could not select adapter port: %w", err)
		}
		d.log.Debug("selected adapter port", "port", path)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	port, err := d.opener(path, baud)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() {
		if err == nil {
			return
		}
		cerr := port.Close()
		if cerr != nil {
			d.log.Debug("could not close port after failed open", "port", path, "error", cerr)
		}
	}()
	d.discard(port)
	version, err := d.handshake(port)
	if err != nil {
		return fmt.Errorf("adapter identification on %s failed: %w", path, err)
	}
	if version.Firmware < minFirmware {
		return fmt.Errorf("%w: installed 0x%02x, required 0x%02x", ErrFirmwareTooOld, version.Firmware, minFirmware)
	}
	serial, err := d.readSerial(port)
	if err != nil {
		return fmt.Errorf("adapter serial number read on %s failed: %w", path, err)
	}
	d.port = port
	d.portPath = path
	d.baudRate = baud
	d.firmware = version.Firmware
	d.mode = version.Mode
	d.serial = serial
	d.open = true
	d.log.Info("adapter connected", "port", path, "baud", baud, "firmware", fmt.Sprintf("0x%02x", version.Firmware), "serial", serial, "mode", version.Mode)
	return nil
}

// Close releases the serial port and resets the session to its initial state.
// Closing a session that is not open is a no-op.
func (d *USBISS) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	var err error
	path := d.portPath
	if d.port != nil {
		err = d.port.Close()
	}
	d.port = nil
	d.portPath = ""
	d.baudRate = 0
	d.mode = ModeUnset
	d.firmware = 0
	d.serial = ""
	d.open = false
	if err != nil {
		return fmt.Errorf("%w: could not close %s: %w", ErrTransport, path, err)
	}
	return nil
}

// SetMode switches the adapter to the I2C mode called name (see Mode.String).
func (d *USBISS) SetMode(ctx context.Context, name string) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.open {
		return ErrNotOpen
	}
	mode, err := ParseMode(name)
	if err != nil {
		return err
	}
	return d.setMode(ctx, mode)
}

// SetModeValue is SetMode for an already resolved mode.
func (d *USBISS) SetModeValue(ctx context.Context, mode Mode) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.open {
		return ErrNotOpen
	}
	return d.setMode(ctx, mode)
}

func (d *USBISS) setMode(ctx context.Context, mode Mode) error {
	if mode == d.mode {
		return nil
	}
	if !mode.IsI2C() {
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.writeMode(d.port, mode)
	if err != nil {
		return fmt.Errorf("mode change to %s failed: %w", mode, err)
	}
	d.log.Debug("adapter mode changed", "from", d.mode, "to", mode)
	d.mode = mode
	return nil
}

func (d *USBISS) Mode() Mode {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.mode
}

func (d *USBISS) IsOpen() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.open
}

func (d *USBISS) Port() string {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.portPath
}

func (d *USBISS) BaudRate() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.baudRate
}

func (d *USBISS) Firmware() byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.firmware
}

// Serial returns the adapter's 8 character serial number.
func (d *USBISS) Serial() string {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.serial
}

func (d *USBISS) Info() Info {
	d.mx.Lock()
	defer d.mx.Unlock()
	return Info{
		Port:     d.portPath,
		BaudRate: d.baudRate,
		Firmware: fmt.Sprintf("0x%02x", d.firmware),
		Serial:   d.serial,
		Mode:     d.mode.String(),
		Open:     d.open,
	}
}

func (d *USBISS) checkI2C(address byte) error {
	if !d.open {
		return ErrNotOpen
	}
	if !d.mode.IsI2C() {
		return fmt.Errorf("%w (current mode %s)", ErrNotI2CMode, d.mode)
	}
	if address > maxAddress {
		return fmt.Errorf("%w: %#x", ErrInvalidAddress, address)
	}
	return nil
}

func isSupportedBaudRate(baud int) bool {
	for _, b := range supportedBaudRates {
		if b == baud {
			return true
		}
	}
	return false
}
