package kernels

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// GaussianBlur correlates a single plane with the 3×3 Gaussian kernel.
//
// Arguments:
// - plane: The plane to blur.
// - rows: Number of rows.
// - cols: Number of columns.
// - opt: Buffer pool and parallelism options.
//
// Returns:
// - A newly allocated blurred plane.
// - error if the plane does not match its dimensions.
func GaussianBlur(plane []float32, rows, cols int, opt Options) ([]float32, error) {
	return Correlate(plane, rows, cols, gaussian, opt)
}

// ApplyLaplacian correlates a single plane with the 3×3 Laplacian kernel.
func ApplyLaplacian(plane []float32, rows, cols int, opt Options) ([]float32, error) {
	return Correlate(plane, rows, cols, laplacian, opt)
}

// CorrelateChannels applies the kernel to each of the three planes of an image
// independently.
//
// Arguments:
// - img: The source image. It is not modified.
// - k: The kernel.
// - opt: Buffer pool and parallelism options, shared by the three passes.
//
// Returns:
// - A newly allocated image holding the per-channel results.
// - error if the image is invalid.
//
// @example
// blurred, err := CorrelateChannels(img, Gaussian(), Options{Pool: &Pool{}})
func CorrelateChannels(img *images.Image, k *Kernel, opt Options) (*images.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out := &images.Image{Width: img.Width, Height: img.Height, Data: make([]float32, len(img.Data))}
	for c := images.Red; c <= images.Blue; c++ {
		if err := CorrelateInto(out.Plane(c), img.Plane(c), img.Height, img.Width, k, opt); err != nil {
			return nil, errors.Wrapf(err, "channel %d", c)
		}
	}
	return out, nil
}

// BlurImage applies the Gaussian kernel to every channel of the image.
func BlurImage(img *images.Image, opt Options) (*images.Image, error) {
	return CorrelateChannels(img, gaussian, opt)
}
