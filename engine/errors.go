package engine

import (
	"fmt"
)

// BatchError reports the item that stopped an AddBatch call.
//
// The failing item's underlying error can be accessed via errors.Unwrap.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ErrDimensionMismatch indicates a vector that does not match the
// collection's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrCapacityExceeded indicates an insert that would push the
// collection past its memory ceiling. The budget is left untouched.
type ErrCapacityExceeded struct {
	RequestedBytes int64
	UsedBytes      int64
	CeilingBytes   int64
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("capacity exceeded: need %d bytes, %d of %d in use", e.RequestedBytes, e.UsedBytes, e.CeilingBytes)
}
