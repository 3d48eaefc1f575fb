package device

import "errors"

// Common errors.
var (
	ErrInvalidSize       = errors.New("invalid storage size")
	ErrInvalidStorage    = errors.New("storage not owned by allocator or already freed")
	ErrOutOfBounds       = errors.New("copy extends beyond storage")
	ErrDeviceUnavailable = errors.New("device unavailable")
)
