package marlin

import "errors"

var (
	// ErrInsufficientBuffer is returned by Encode when the destination is
	// smaller than the source block. Raw storage must always fit.
	ErrInsufficientBuffer = errors.New("marlin: destination smaller than block")

	// ErrFrame is returned by Decode when the lengths recorded in a frame
	// do not fit the input, or the rare table points outside the block.
	ErrFrame = errors.New("marlin: corrupt frame")

	// ErrUnsupported is returned when the configuration asks for a decoder
	// shape that is not compiled in.
	ErrUnsupported = errors.New("marlin: unsupported configuration")
)
