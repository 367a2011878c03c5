// Package fusion combines the weight maps of the gamma corrected and sharpened
// branches into the final enhanced image, and hosts the end-to-end Pipeline
// that runs white balance, both weight branches and the fusion for an image.
package fusion

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// DefaultRegularization is the additive smoothing applied to both weights.
const DefaultRegularization = 0.1

// NormalizeWeights smooths and normalises the paired weight maps in place:
//
//	gamma' = (gamma + eps) / (gamma + sharp + 2*eps)
//	sharp' = (sharp + eps) / (gamma + sharp + 2*eps)
//
// Both updates use the values before either map is modified, so the pair
// sums to 1 at every pixel. A pixel whose denominator is zero gets 0.5 in
// each map.
//
// Arguments:
// - gamma: Combined weight of the gamma corrected branch.
// - sharp: Combined weight of the sharpened branch.
// - eps: Regularisation, must be non-negative.
//
// Returns:
// - error if the maps differ in length or eps is negative.
func NormalizeWeights(gamma, sharp []float32, eps float32) error {
	if len(gamma) != len(sharp) {
		return errors.Wrapf(images.ErrDimensionMismatch, "weight maps hold %d and %d values", len(gamma), len(sharp))
	}
	if eps < 0 || math32.IsNaN(eps) {
		return errors.Wrapf(images.ErrInvalidArgument, "regularization must be non-negative, got %v", eps)
	}

	for i := range gamma {
		g, s := gamma[i], sharp[i]
		denominator := g + s + 2*eps
		if denominator == 0 {
			gamma[i], sharp[i] = 0.5, 0.5
			continue
		}
		gamma[i] = (g + eps) / denominator
		sharp[i] = (s + eps) / denominator
	}
	return nil
}

// Reconstruct multiplies every channel of white by the per-pixel sum of the
// two weights.
//
// Arguments:
// - white: The white balanced image. It is not modified.
// - gamma, sharp: Normalised weight maps, one value per pixel.
//
// Returns:
// - A newly allocated image. Values are not clamped.
// - error if a map does not match the image.
func Reconstruct(white *images.Image, gamma, sharp []float32) (*images.Image, error) {
	if err := white.Validate(); err != nil {
		return nil, err
	}
	if err := images.CheckPlane(gamma, white.Height, white.Width); err != nil {
		return nil, errors.Wrap(err, "gamma weight")
	}
	if err := images.CheckPlane(sharp, white.Height, white.Width); err != nil {
		return nil, errors.Wrap(err, "sharp weight")
	}

	out := &images.Image{Width: white.Width, Height: white.Height, Data: make([]float32, len(white.Data))}
	src, dst := white.Planes(), out.Planes()
	images.Parallel(len(gamma), func(start, end int) {
		for i := start; i < end; i++ {
			w := gamma[i] + sharp[i]
			for c := range dst {
				dst[c][i] = src[c][i] * w
			}
		}
	})
	return out, nil
}

// Fuse normalises copies of the two weight maps with eps and reconstructs the
// output from white. The caller's maps are left untouched.
//
// @example
// fused, err := Fuse(white, gammaMaps.Combined, sharpMaps.Combined, DefaultRegularization)
func Fuse(white *images.Image, gamma, sharp []float32, eps float32) (*images.Image, error) {
	g := append([]float32(nil), gamma...)
	s := append([]float32(nil), sharp...)
	if err := NormalizeWeights(g, s, eps); err != nil {
		return nil, err
	}
	return Reconstruct(white, g, s)
}
