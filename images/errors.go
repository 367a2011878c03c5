package images

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument reports a parameter outside its contract (even kernel side, bad percentile...).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDimensionMismatch reports non-conformant shapes in matrix or plane operations.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyImage reports a nil or empty image.
	ErrEmptyImage = errors.New("empty image")
)

// CheckPlane verifies that a single plane holds exactly rows*cols values.
//
// Arguments:
// - plane: The plane to check.
// - rows: Expected number of rows.
// - cols: Expected number of columns.
//
// Returns:
// - error wrapping ErrInvalidArgument or ErrDimensionMismatch.
func CheckPlane(plane []float32, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "invalid plane dimensions: %dx%d", rows, cols)
	}
	if len(plane) != rows*cols {
		return errors.Wrapf(ErrDimensionMismatch, "plane holds %d values, want %dx%d", len(plane), rows, cols)
	}
	return nil
}
