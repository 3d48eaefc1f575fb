package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrInvalidView reports sizes, strides or offsets that break the view invariants.
	ErrInvalidView = errors.New("invalid tensor view")
	// ErrDimensionMismatch reports a rank outside the range an operation accepts.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIllegalPadding reports a downcast whose merged dimensions are not contiguous.
	ErrIllegalPadding = errors.New("illegal padding")
)

// CastError describes a failed view cast.
// Kind is ErrDimensionMismatch or ErrIllegalPadding; errors.Is matches on it.
type CastError struct {
	Op      string // "downcast" or "upcast"
	Kind    error
	From    int // source rank
	To      int // requested rank
	Sizes   []int
	Strides []int
}

// Error implements the error interface.
func (e *CastError) Error() string {
	return fmt.Sprintf("%s from rank %d to rank %d: %v (sizes %v, strides %v)",
		e.Op, e.From, e.To, e.Kind, e.Sizes, e.Strides)
}

// Unwrap returns the error kind.
func (e *CastError) Unwrap() error {
	return e.Kind
}
