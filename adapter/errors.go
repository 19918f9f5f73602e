package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps failures of the serial line itself.
	ErrTransport = errors.New("transport error")
	// ErrFraming reports a reply whose length or content does not fit the frame sent.
	ErrFraming = errors.New("protocol framing error")
	// ErrInvalidState is the parent of every error raised before any byte is sent.
	ErrInvalidState = errors.New("invalid state")

	ErrNotOpen         = fmt.Errorf("%w: adapter connection not open", ErrInvalidState)
	ErrAlreadyOpen     = fmt.Errorf("%w: adapter connection already open", ErrInvalidState)
	ErrNotI2CMode      = fmt.Errorf("%w: adapter is not configured for an I2C mode", ErrInvalidState)
	ErrUnsupportedMode = fmt.Errorf("%w: unsupported mode", ErrInvalidState)
	ErrInvalidAddress  = fmt.Errorf("%w: invalid 7-bit I2C address", ErrInvalidState)
	ErrInvalidRange    = fmt.Errorf("%w: invalid address range", ErrInvalidState)

	ErrInvalidBaudRate = errors.New("unsupported baud rate")
	ErrFirmwareTooOld  = errors.New("adapter firmware too old for I2C direct mode")

	// ErrNoACK matches an AdapterError carrying CodeNoACK.
	ErrNoACK = errors.New("no ACK from device")
)

// ErrorCode is the reason byte the adapter sends with a rejected frame.
type ErrorCode byte

const (
	CodeNoACK           ErrorCode = 0x01
	CodeBufferOverflow  ErrorCode = 0x02
	CodeBufferUnderflow ErrorCode = 0x03
	CodeUnknownCommand1 ErrorCode = 0x04
	CodeUnknownCommand2 ErrorCode = 0x05
	CodeInternalError1  ErrorCode = 0x06
	CodeInternalError2  ErrorCode = 0x07
	// CodeUnknown stands for any reason byte outside the documented range.
	CodeUnknown ErrorCode = 0x00
)

func decodeErrorCode(b byte) ErrorCode {
	if b >= byte(CodeNoACK) && b <= byte(CodeInternalError2) {
		return ErrorCode(b)
	}
	return CodeUnknown
}

func (c ErrorCode) String() string {
	switch c {
	case CodeNoACK:
		return "No ACK from device"
	case CodeBufferOverflow:
		return "Buffer Overflow, You must limit the frame to < 60 bytes"
	case CodeBufferUnderflow:
		return "Buffer Underflow, More write data was expected than sent"
	case CodeUnknownCommand1, CodeUnknownCommand2:
		return "Unknown command"
	case CodeInternalError1:
		return "Internal Error 1"
	case CodeInternalError2:
		return "Internal Error 2"
	default:
		return "UNKNOWN"
	}
}

// AdapterError is returned when the adapter answers a frame with a status
// other than ACK.
type AdapterError struct {
	Op   string
	Code ErrorCode
	// Raw is the reason byte as received.
	Raw byte
}

func newAdapterError(op string, reason byte) *AdapterError {
	return &AdapterError{Op: op, Code: decodeErrorCode(reason), Raw: reason}
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s rejected by adapter: %s (0x%02x)", e.Op, e.Code, e.Raw)
}

func (e *AdapterError) Is(target error) bool {
	return target == ErrNoACK && e.Code == CodeNoACK
}

// IsRejected reports whether err carries an adapter rejection.
func IsRejected(err error) bool {
	var aerr *AdapterError
	return errors.As(err, &aerr)
}
