package kernels

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// ParallelRows is the plane height from which NewOptions enables row-parallel
// correlation.
const ParallelRows = 512

// Options configures a correlation call.
type Options struct {
	Pool     *Pool // Optional buffer pool for the padded intermediate.
	Parallel bool  // Split output rows across goroutines (useful for large planes).
}

// NewOptions returns options sharing pool, with row parallelism enabled for
// planes of at least ParallelRows rows.
func NewOptions(rows int, pool *Pool) Options {
	return Options{Pool: pool, Parallel: rows >= ParallelRows}
}

// Pool lets callers reuse padded planes across calls to reduce GC pressure
// when the same image size is processed repeatedly.
type Pool struct {
	planes sync.Pool // *[]float32
}

// Get returns a zeroed plane of length n.
func (p *Pool) Get(n int) []float32 {
	if p == nil {
		return make([]float32, n)
	}
	if v := p.planes.Get(); v != nil {
		buf := *(v.(*[]float32))
		if cap(buf) >= n {
			buf = buf[:n]
			clear(buf)
			return buf
		}
	}
	return make([]float32, n)
}

// Put returns a plane to the pool.
func (p *Pool) Put(buf []float32) {
	if p == nil || buf == nil {
		return
	}
	p.planes.Put(&buf)
}

// Pad surrounds a rows×cols plane with (size-1)/2 zeros on every side.
//
// Arguments:
// - plane: The input plane, row-major.
// - rows: Number of rows in the plane.
// - cols: Number of columns in the plane.
// - size: The kernel side length; must be odd and positive.
//
// Returns:
// - A (rows+size-1)×(cols+size-1) plane with the input copied into the centre.
// - error for an even kernel side or a plane that does not hold rows*cols values.
//
// @example
// padded, err := Pad(plane, 4, 4, 3) // 6x6 result
func Pad(plane []float32, rows, cols, size int) ([]float32, error) {
	if err := checkArgs(plane, rows, cols, size); err != nil {
		return nil, err
	}
	padded := make([]float32, (rows+size-1)*(cols+size-1))
	padInto(padded, plane, rows, cols, size)
	return padded, nil
}

// padInto writes the zero padded copy of plane into dst. dst must be zeroed.
func padInto(dst, plane []float32, rows, cols, size int) {
	pad := (size - 1) / 2
	paddedCols := cols + size - 1
	for r := 0; r < rows; r++ {
		offset := (r+pad)*paddedCols + pad
		copy(dst[offset:offset+cols], plane[r*cols:(r+1)*cols])
	}
}

// Correlate slides the kernel over the zero padded plane and returns an output
// of the same size as the input. The kernel is not flipped.
//
// Arguments:
// - plane: The input plane, row-major.
// - rows: Number of rows.
// - cols: Number of columns.
// - k: The kernel.
// - opt: Buffer pool and parallelism options.
//
// Returns:
// - The correlated plane, rows*cols values.
// - error for a nil kernel or a plane that does not match its dimensions.
//
// @example
// blurred, err := Correlate(plane, h, w, Gaussian(), Options{})
func Correlate(plane []float32, rows, cols int, k *Kernel, opt Options) ([]float32, error) {
	out := make([]float32, rows*cols)
	if err := CorrelateInto(out, plane, rows, cols, k, opt); err != nil {
		return nil, err
	}
	return out, nil
}

// CorrelateInto is Correlate writing into a caller-owned output plane.
func CorrelateInto(dst, plane []float32, rows, cols int, k *Kernel, opt Options) error {
	if k == nil {
		return errors.Wrap(images.ErrInvalidArgument, "kernel is nil")
	}
	if err := checkArgs(plane, rows, cols, k.size); err != nil {
		return err
	}
	if len(dst) != rows*cols {
		return errors.Wrapf(images.ErrDimensionMismatch, "output holds %d values, want %d", len(dst), rows*cols)
	}

	size := k.size
	paddedCols := cols + size - 1
	padded := opt.Pool.Get((rows + size - 1) * paddedCols)
	padInto(padded, plane, rows, cols, size)

	footprint := size * size
	rowTask := func(row int) {
		for col := 0; col < cols; col++ {
			var sum float32
			for i := 0; i < footprint; i++ {
				sum += padded[(row+i/size)*paddedCols+col+i%size] * k.values[i]
			}
			dst[row*cols+col] = sum
		}
	}

	if !opt.Parallel || rows < 4 {
		for row := 0; row < rows; row++ {
			rowTask(row)
		}
	} else {
		// Split rows into chunks to keep goroutine count low and preserve locality.
		chunk := chooseChunk(rows)
		var wg sync.WaitGroup
		for start := 0; start < rows; start += chunk {
			end := min(start+chunk, rows)
			wg.Add(1)
			go func(s, e int) {
				defer wg.Done()
				for row := s; row < e; row++ {
					rowTask(row)
				}
			}(start, end)
		}
		wg.Wait()
	}

	opt.Pool.Put(padded)
	return nil
}

func checkArgs(plane []float32, rows, cols, size int) error {
	if size <= 0 || size%2 == 0 {
		return errors.Wrapf(images.ErrInvalidArgument, "kernel side %d must be odd and positive", size)
	}
	return images.CheckPlane(plane, rows, cols)
}

// chooseChunk picks a row chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
