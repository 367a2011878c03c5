// Package images - provides the planar float32 image type and the small
// pixel-wise operations shared by the enhancement stages.
package images

import (
	"runtime"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Clamp restricts a value to the specified range [min, max].
//
// Arguments:
// - value: The value to clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(1.3, 0, 1) // Returns 1
func Clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Mean returns the arithmetic mean of a plane. The sum is accumulated in
// float64 so that large planes do not lose precision. An empty plane has mean 0.
func Mean(plane []float32) float32 {
	if len(plane) == 0 {
		return 0
	}
	sum := lo.SumBy(plane, func(v float32) float64 { return float64(v) })
	return float32(sum / float64(len(plane)))
}

// Max returns the largest value of a plane, or 0 for an empty plane.
func Max(plane []float32) float32 {
	return lo.Max(plane)
}

// CorrectGamma applies a power-law correction to every value of the image and
// confines the result to [0,1].
//
// Arguments:
// - img: The source image. It is not modified.
// - gamma: The exponent; corrected = value^gamma.
//
// Returns:
// - A newly allocated gamma corrected image.
// - error if the image is invalid or gamma is not positive.
//
// @example
// corrected, err := CorrectGamma(white, 1.2)
func CorrectGamma(img *Image, gamma float32) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if gamma <= 0 || math32.IsNaN(gamma) {
		return nil, errors.Wrapf(ErrInvalidArgument, "gamma must be positive, got %v", gamma)
	}

	out := &Image{Width: img.Width, Height: img.Height, Data: make([]float32, len(img.Data))}
	for i, v := range img.Data {
		// pow is undefined for negative bases.
		if v <= 0 {
			out.Data[i] = 0
			continue
		}
		out.Data[i] = Clamp(math32.Pow(v, gamma), 0, 1)
	}
	return out, nil
}

// Parallel executes fn across partitions of [0, dataSize) on multiple goroutines.
// Small workloads run on the calling goroutine.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
