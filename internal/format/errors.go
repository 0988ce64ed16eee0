package format

import "errors"

var (
	// ErrTruncated indicates input ended inside a value.
	ErrTruncated = errors.New("format: truncated input")
	// ErrOverflow indicates a varint longer than 64 bits.
	ErrOverflow = errors.New("format: varint overflows 64 bits")
)
