package dataset

import "errors"

// Common errors.
var (
	ErrShape              = errors.New("input_ids and labels lengths differ")
	ErrClosed             = errors.New("dataset writer is closed")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrCorruptIndex       = errors.New("corrupt dataset index")
	ErrRowOutOfRange      = errors.New("row index out of range")
)
