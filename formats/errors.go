package formats

import "errors"

var (
	// ErrInvalidData indicates malformed or incomplete format data.
	ErrInvalidData = errors.New("formats: invalid data")

	// ErrUnsupported is returned for a valid file that uses a feature no
	// decoder here handles.
	ErrUnsupported = errors.New("formats: unsupported feature")
)
