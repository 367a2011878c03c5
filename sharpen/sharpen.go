// Package sharpen builds the sharpened fusion branch with a normalised unsharp
// mask: S = (I + N(I - G*I)) / 2, where G*I is the Gaussian blurred image and
// N equalises the intensity of the detail layer in HSI space.
package sharpen

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/colorspace"
	"github.com/nvr-ai/go-uwfusion/images/kernels"
)

// Levels is the number of histogram bins used for equalisation.
const Levels = 256

// EqualizeHistogram remaps the plane in place so that its cumulative
// distribution over Levels bins becomes approximately linear. Values are
// quantised as int(v*255), clamped to [0,255].
//
// Arguments:
// - plane: Values nominally in [0,1].
//
// @example
// EqualizeHistogram(hsi.Plane(2))
func EqualizeHistogram(plane []float32) {
	if len(plane) == 0 {
		return
	}

	var histogram [Levels]int
	for _, v := range plane {
		histogram[level(v)]++
	}

	var remap [Levels]float32
	sum := 0
	for i, n := range histogram {
		sum += n
		grey := math32.Floor(float32(sum)*(Levels-1)/float32(len(plane)) + 0.5)
		remap[i] = grey / (Levels - 1)
	}

	for i, v := range plane {
		plane[i] = remap[level(v)]
	}
}

func level(v float32) int {
	if !(v > 0) {
		return 0
	}
	l := int(v * (Levels - 1))
	if l > Levels-1 {
		return Levels - 1
	}
	return l
}

// UnsharpMask returns the sharpened branch of img. The detail layer
// img - GaussianBlur(img) is converted to HSI, its intensity is histogram
// equalised, and the result is converted back to RGB and averaged with img.
//
// Arguments:
// - img: The white balanced image. It is not modified.
// - kopt: Buffer pool and parallelism of the blur.
//
// Returns:
// - A newly allocated sharpened image.
// - error if the image is invalid.
func UnsharpMask(img *images.Image, kopt kernels.Options) (*images.Image, error) {
	detail, err := kernels.BlurImage(img, kopt)
	if err != nil {
		return nil, err
	}
	for i, v := range img.Data {
		detail.Data[i] = v - detail.Data[i]
	}

	hsi := colorspace.RGBToHSI(detail)
	EqualizeHistogram(hsi.Plane(2))
	sharp := colorspace.HSIToRGB(hsi)

	for i, v := range img.Data {
		sharp.Data[i] = (v + sharp.Data[i]) / 2
	}
	return sharp, nil
}
