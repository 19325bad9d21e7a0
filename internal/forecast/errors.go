package forecast

import "errors"

var (
	// ErrUnparsableProbability means the model's probability reply was not a number.
	ErrUnparsableProbability = errors.New("unparsable probability")

	// ErrInvalidRequest means a forecast request failed validation.
	ErrInvalidRequest = errors.New("invalid forecast request")

	// ErrNotFound is returned by Store lookups for unknown forecast ids.
	ErrNotFound = errors.New("forecast not found")
)
