// Package weights computes the per-pixel weight maps that steer the fusion of
// the gamma corrected and sharpened branches: Laplacian contrast, LAB
// saliency and saturation. Each map is max-normalised to [0,1] and the three
// are summed into one combined map per branch.
package weights

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/colorspace"
	"github.com/nvr-ai/go-uwfusion/images/kernels"
)

// LuminanceOption selects the luminance formula.
type LuminanceOption int

const (
	// LuminanceStandard is 0.2126R + 0.7152G + 0.0722B.
	LuminanceStandard LuminanceOption = iota
	// LuminancePerceived is 0.299R + 0.587G + 0.114B.
	LuminancePerceived
	// LuminancePerceivedExact is sqrt(0.299R² + 0.587G² + 0.114B²).
	LuminancePerceivedExact
)

// DefaultLuminance is the formula used when none is configured.
const DefaultLuminance = LuminancePerceived

// String returns the option name.
func (o LuminanceOption) String() string {
	switch o {
	case LuminanceStandard:
		return "standard"
	case LuminancePerceived:
		return "perceived"
	case LuminancePerceivedExact:
		return "perceived-exact"
	default:
		return fmt.Sprintf("LuminanceOption(%d)", int(o))
	}
}

// Valid reports whether o names a known formula.
func (o LuminanceOption) Valid() bool {
	return o >= LuminanceStandard && o <= LuminancePerceivedExact
}

// Map names one of the weight maps.
type Map string

const (
	MapLaplacian  Map = "laplacian"
	MapSaliency   Map = "saliency"
	MapSaturation Map = "saturation"
)

// Maps holds the normalised weight maps of one image and their sum.
type Maps struct {
	Laplacian  []float32
	Saliency   []float32
	Saturation []float32
	// Combined is the elementwise sum of the three maps. It is not renormalised.
	Combined []float32
	// Degenerate lists the maps whose maximum was zero and were set to all zeros.
	Degenerate []Map
}

// Luminance computes the luminance plane of img.
//
// Arguments:
// - img: The RGB image.
// - opt: The luminance formula.
//
// Returns:
// - A newly allocated plane.
// - error if the image is invalid or the option unknown.
//
// @example
// lum, err := Luminance(img, LuminancePerceived)
func Luminance(img *images.Image, opt LuminanceOption) ([]float32, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if !opt.Valid() {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "unknown luminance option %d", int(opt))
	}

	red, green, blue := img.Red(), img.Green(), img.Blue()
	lum := make([]float32, img.Pixels())
	switch opt {
	case LuminanceStandard:
		for i := range lum {
			lum[i] = 0.2126*red[i] + 0.7152*green[i] + 0.0722*blue[i]
		}
	case LuminancePerceivedExact:
		for i := range lum {
			lum[i] = math32.Sqrt(0.299*red[i]*red[i] + 0.587*green[i]*green[i] + 0.114*blue[i]*blue[i])
		}
	default:
		for i := range lum {
			lum[i] = 0.299*red[i] + 0.587*green[i] + 0.114*blue[i]
		}
	}
	return lum, nil
}

// LaplacianWeight returns |Laplacian(lum)|, not normalised.
func LaplacianWeight(lum []float32, rows, cols int, kopt kernels.Options) ([]float32, error) {
	w, err := kernels.ApplyLaplacian(lum, rows, cols, kopt)
	if err != nil {
		return nil, err
	}
	for i, v := range w {
		w[i] = math32.Abs(v)
	}
	return w, nil
}

// SaliencyWeight returns, for each pixel, the Euclidean distance in L*a*b*
// between the Gaussian blurred pixel and the mean L*a*b* of the blurred
// image. The result is not normalised.
func SaliencyWeight(img *images.Image, kopt kernels.Options) ([]float32, error) {
	blurred, err := kernels.BlurImage(img, kopt)
	if err != nil {
		return nil, err
	}
	lab := colorspace.RGBToLAB(blurred)
	l, a, b := lab.Plane(0), lab.Plane(1), lab.Plane(2)
	meanL, meanA, meanB := images.Mean(l), images.Mean(a), images.Mean(b)

	w := make([]float32, len(l))
	for i := range w {
		dl, da, db := l[i]-meanL, a[i]-meanA, b[i]-meanB
		w[i] = math32.Sqrt(dl*dl + da*da + db*db)
	}
	return w, nil
}

// SaturationWeight returns the RMS deviation of the three channels from the
// luminance: sqrt(((R-L)² + (G-L)² + (B-L)²) / 3). The result is not normalised.
func SaturationWeight(img *images.Image, lum []float32) ([]float32, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := images.CheckPlane(lum, img.Height, img.Width); err != nil {
		return nil, errors.Wrap(err, "luminance plane")
	}

	red, green, blue := img.Red(), img.Green(), img.Blue()
	w := make([]float32, len(lum))
	for i, l := range lum {
		dr, dg, db := red[i]-l, green[i]-l, blue[i]-l
		w[i] = math32.Sqrt((dr*dr + dg*dg + db*db) / 3)
	}
	return w, nil
}

// Normalize divides w in place by its maximum. A map whose maximum is not
// positive is set to all zeros and false is returned.
func Normalize(w []float32) bool {
	peak := images.Max(w)
	if !(peak > 0) || math32.IsInf(peak, 1) {
		clear(w)
		return false
	}
	for i := range w {
		w[i] /= peak
	}
	return true
}

// Compute builds the three normalised weight maps of img and their sum.
//
// Arguments:
// - img: The processed RGB image.
// - opt: The luminance formula used by the Laplacian and saturation maps.
// - kopt: Buffer pool and parallelism of the Laplacian and blur passes.
//
// Returns:
// - The weight maps.
// - error if the image is invalid or the option unknown.
//
// @example
// maps, err := Compute(gammaCorrected, LuminancePerceived, kernels.Options{})
func Compute(img *images.Image, opt LuminanceOption, kopt kernels.Options) (*Maps, error) {
	lum, err := Luminance(img, opt)
	if err != nil {
		return nil, err
	}

	maps := &Maps{}

	if maps.Laplacian, err = LaplacianWeight(lum, img.Height, img.Width, kopt); err != nil {
		return nil, errors.Wrap(err, "laplacian weight")
	}
	if !Normalize(maps.Laplacian) {
		maps.Degenerate = append(maps.Degenerate, MapLaplacian)
	}

	if maps.Saturation, err = SaturationWeight(img, lum); err != nil {
		return nil, errors.Wrap(err, "saturation weight")
	}
	if !Normalize(maps.Saturation) {
		maps.Degenerate = append(maps.Degenerate, MapSaturation)
	}

	if maps.Saliency, err = SaliencyWeight(img, kopt); err != nil {
		return nil, errors.Wrap(err, "saliency weight")
	}
	if !Normalize(maps.Saliency) {
		maps.Degenerate = append(maps.Degenerate, MapSaliency)
	}

	maps.Combined = make([]float32, len(lum))
	for i := range maps.Combined {
		maps.Combined[i] = maps.Laplacian[i] + maps.Saliency[i] + maps.Saturation[i]
	}
	return maps, nil
}
