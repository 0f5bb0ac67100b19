package vecsim

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecsim/engine"
)

var (
	// ErrClosed is returned when the directory has already been closed.
	ErrClosed = errors.New("directory is closed")

	// ErrNotFound is returned when a search matches nothing.
	ErrNotFound = errors.New("not found")
)

// ErrCollectionLimitExceeded indicates an attempt to create a
// collection beyond the directory's configured maximum.
type ErrCollectionLimitExceeded struct {
	Limit int
}

func (e *ErrCollectionLimitExceeded) Error() string {
	return fmt.Sprintf("collection limit exceeded: at most %d collections may be open", e.Limit)
}

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrCapacityExceeded indicates an insert that would push a collection
// past its memory ceiling.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCapacityExceeded struct {
	RequestedBytes int64
	UsedBytes      int64
	CeilingBytes   int64
	cause          error
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("capacity exceeded: need %d bytes, %d of %d in use", e.RequestedBytes, e.UsedBytes, e.CeilingBytes)
}

func (e *ErrCapacityExceeded) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *engine.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var ce *engine.ErrCapacityExceeded
	if errors.As(err, &ce) {
		return &ErrCapacityExceeded{
			RequestedBytes: ce.RequestedBytes,
			UsedBytes:      ce.UsedBytes,
			CeilingBytes:   ce.CeilingBytes,
			cause:          err,
		}
	}

	return err
}
