package imgread

import (
	"errors"
	"fmt"

	"imgread/limits"
)

var (
	// ErrUnsupportedFormat is matched by *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("imgread: unsupported format")

	// ErrLimitsExceeded is matched when a decode would cross a bound of
	// the reader's limits.
	ErrLimitsExceeded = limits.ErrExceeded

	// ErrSource is matched by *SourceError.
	ErrSource = errors.New("imgread: source error")

	// ErrDecode is matched by *DecodeError.
	ErrDecode = errors.New("imgread: decode error")

	// ErrConsumed is returned by any call on a Reader after a terminal
	// operation handed its source to a decoder. It reports misuse of the
	// Reader rather than a property of the input, so it matches none of
	// ErrSource, ErrDecode, ErrUnsupportedFormat or ErrLimitsExceeded.
	ErrConsumed = errors.New("imgread: reader already consumed")

	// ErrPositionLost is wrapped by the SourceError returned from every
	// operation on a reader whose sniff could not restore the stream
	// position.
	ErrPositionLost = errors.New("imgread: stream position lost")
)

// SourceError reports an I/O failure of the underlying byte source.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("imgread: source %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSource }

// UnsupportedFormatError reports a terminal operation on a reader whose
// format is unknown, or known but without a decoder. Recognized is set
// for formats the sniffer identifies but no decoder handles.
type UnsupportedFormatError struct {
	Format     Format
	Recognized bool
}

func (e *UnsupportedFormatError) Error() string {
	switch {
	case e.Format == FormatUnknown:
		return "imgread: unsupported format: format could not be determined"
	case e.Recognized:
		return fmt.Sprintf("imgread: unsupported format: %s is recognized but cannot be decoded", e.Format)
	}
	return fmt.Sprintf("imgread: unsupported format: no decoder for %s", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// DecodeError wraps the error a format decoder returned for malformed
// data. Unwrap yields the decoder's error unchanged.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("imgread: decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
