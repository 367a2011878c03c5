package colorspace

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-uwfusion/images"
)

// Matrix3 is a 3×3 matrix flattened row-major.
type Matrix3 [9]float32

// Identity3 is the 3×3 identity.
var Identity3 = Matrix3{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Diag3 builds a diagonal matrix.
func Diag3(d [3]float32) Matrix3 {
	return Matrix3{d[0], 0, 0, 0, d[1], 0, 0, 0, d[2]}
}

// MatMul multiplies an (m×n) matrix by an (n×p) matrix, both flattened
// row-major, and returns the (m×p) product.
//
// Arguments:
// - left: Left operand, leftRows*leftCols values.
// - leftRows, leftCols: Shape of the left operand.
// - right: Right operand, rightRows*rightCols values.
// - rightRows, rightCols: Shape of the right operand.
//
// Returns:
// - The product, newly allocated.
// - error wrapping images.ErrDimensionMismatch when leftCols != rightRows or a
//   buffer does not hold its declared shape.
//
// @example
// cone, err := MatMul(bradford[:], 3, 3, white[:], 3, 1)
func MatMul(left []float32, leftRows, leftCols int, right []float32, rightRows, rightCols int) ([]float32, error) {
	if leftRows <= 0 || leftCols <= 0 || rightRows <= 0 || rightCols <= 0 {
		return nil, errors.Wrapf(images.ErrInvalidArgument,
			"invalid matrix shapes %dx%d and %dx%d", leftRows, leftCols, rightRows, rightCols)
	}
	if leftCols != rightRows {
		return nil, errors.Wrapf(images.ErrDimensionMismatch,
			"cannot multiply %dx%d by %dx%d", leftRows, leftCols, rightRows, rightCols)
	}
	if len(left) != leftRows*leftCols || len(right) != rightRows*rightCols {
		return nil, errors.Wrapf(images.ErrDimensionMismatch,
			"matrix buffers hold %d and %d values, want %d and %d",
			len(left), len(right), leftRows*leftCols, rightRows*rightCols)
	}

	// Copy the operands so the tensors never alias caller memory.
	a := tensor.New(tensor.WithShape(leftRows, leftCols), tensor.WithBacking(append([]float32(nil), left...)))
	b := tensor.New(tensor.WithShape(rightRows, rightCols), tensor.WithBacking(append([]float32(nil), right...)))

	product, err := tensor.MatMul(a, b)
	if err != nil {
		return nil, errors.Wrap(err, "matrix multiply failed")
	}
	data, ok := product.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("unexpected product backing %T", product.Data())
	}
	return append([]float32(nil), data...), nil
}

// Mul returns m·n.
func (m Matrix3) Mul(n Matrix3) (Matrix3, error) {
	var out Matrix3
	product, err := MatMul(m[:], 3, 3, n[:], 3, 3)
	if err != nil {
		return out, err
	}
	copy(out[:], product)
	return out, nil
}

// Apply returns m·v for a column vector v.
func (m Matrix3) Apply(v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transform3 applies m to every pixel of the image in place, treating the
// three planes as the components of a column vector.
func Transform3(m Matrix3, img *images.Image) {
	p := img.Planes()
	images.Parallel(img.Pixels(), func(start, end int) {
		for i := start; i < end; i++ {
			v := m.Apply([3]float32{p[0][i], p[1][i], p[2][i]})
			p[0][i], p[1][i], p[2][i] = v[0], v[1], v[2]
		}
	})
}
