package capture

import "errors"

var (
	// ErrResource marks failures to create, write or close the output file.
	ErrResource = errors.New("resource error")
	// ErrConversion marks a frame which could not be resized or encoded.
	ErrConversion = errors.New("conversion error")
)
