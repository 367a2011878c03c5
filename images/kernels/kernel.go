// Package kernels provides the 2D correlation engine used by the blur and
// edge-detection stages, operating on single float32 planes.
package kernels

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// Kernel is an immutable square filter of odd side length, flattened row-major.
type Kernel struct {
	size   int
	values []float32
}

var (
	gaussianValues = []float32{
		0.0113, 0.0838, 0.0113,
		0.0838, 0.6193, 0.0838,
		0.0113, 0.0838, 0.0113,
	}
	laplacianValues = []float32{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}

	gaussian  = &Kernel{size: 3, values: gaussianValues}
	laplacian = &Kernel{size: 3, values: laplacianValues}
)

// NewKernel builds a kernel from row-major values. The number of values must
// be the square of an odd side length.
//
// Arguments:
// - values: Row-major kernel weights. They are copied.
//
// Returns:
// - The kernel.
// - error wrapping images.ErrInvalidArgument for a non-square or even-sided kernel.
//
// @example
// identity, err := NewKernel([]float32{0, 0, 0, 0, 1, 0, 0, 0, 0})
func NewKernel(values []float32) (*Kernel, error) {
	n := len(values)
	size := int(math32.Sqrt(float32(n)) + 0.5)
	if n == 0 || size*size != n {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "kernel with %d values is not square", n)
	}
	if size%2 == 0 {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "kernel side %d must be odd", size)
	}
	v := make([]float32, n)
	copy(v, values)
	return &Kernel{size: size, values: v}, nil
}

// Gaussian returns the 3×3 blur kernel. Its weights sum to one.
func Gaussian() *Kernel { return gaussian }

// Laplacian returns the 3×3 eight-neighbour Laplacian kernel.
func Laplacian() *Kernel { return laplacian }

// Size returns the side length of the kernel.
func (k *Kernel) Size() int { return k.size }

// Values returns a copy of the row-major weights.
func (k *Kernel) Values() []float32 {
	v := make([]float32, len(k.values))
	copy(v, k.values)
	return v
}
