// Package whitebalance corrects the colour cast of underwater images. It first
// compensates the attenuated red and blue channels against green, then applies
// a Grey-World correction, either the robust variant (percentile-trimmed
// illuminant estimate and Bradford chromatic adaptation to D65) or the simple
// per-channel scaling towards mid-grey.
package whitebalance

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/colorspace"
)

// Method selects the Grey-World variant.
type Method string

const (
	// MethodRobust estimates the illuminant from trimmed histograms and adapts it to D65.
	MethodRobust Method = "robust"
	// MethodSimple scales every channel so that its mean becomes 0.5.
	MethodSimple Method = "simple"
)

// DefaultPercentile is the default trim applied to each end of the histogram.
const DefaultPercentile = 20

// Options configures Apply.
type Options struct {
	// Alpha is the gain of the red and blue compensation. Zero disables it.
	Alpha float32 `json:"alpha" yaml:"alpha"`
	// Percentile is trimmed from each end of the histogram by the robust method.
	Percentile float32 `json:"percentile" yaml:"percentile"`
	// Method selects the Grey-World variant. Empty means MethodRobust.
	Method Method `json:"method" yaml:"method"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Alpha: 1, Percentile: DefaultPercentile, Method: MethodRobust}
}

// Result describes a white balance run.
type Result struct {
	// Image is the white balanced image.
	Image *images.Image
	// Illuminant is the estimate used for adaptation (robust method) or the
	// channel means (simple method).
	Illuminant Illuminant
	// Degenerate lists the channels whose estimate could not be formed.
	Degenerate []images.Channel
}

// CompensateChannels boosts the red and blue channels in place using green as
// the reference:
//
//	red  += alpha * (meanG - meanR) * (1 - red)  * green
//	blue += alpha * (meanG - meanB) * (1 - blue) * green
//
// The means are taken from the image before any update.
func CompensateChannels(img *images.Image, alpha float32) error {
	if err := img.Validate(); err != nil {
		return err
	}
	red, green, blue := img.Red(), img.Green(), img.Blue()
	meanR, meanG, meanB := images.Mean(red), images.Mean(green), images.Mean(blue)

	for i := range red {
		red[i] += alpha * (meanG - meanR) * (1 - red[i]) * green[i]
	}
	for i := range blue {
		blue[i] += alpha * (meanG - meanB) * (1 - blue[i]) * green[i]
	}
	return nil
}

// GreyWorld returns a colour corrected copy of img. The image is linearised
// and converted to XYZ. Its illuminant is estimated on the XYZ planes, scaled
// to unit luminance and adapted to D65 with the Bradford transform, so only
// the colour cast is removed and brightness is kept. The result is converted
// back to linear RGB; negative values are replaced by their absolute value.
// A zero luminance estimate skips the adaptation and reports the green channel
// as degenerate.
//
// Arguments:
// - img: The source image. It is not modified.
// - percentile: Trim applied to each end of the histogram, in [0,50).
//
// Returns:
// - The result holding the new image and the estimated illuminant.
// - error if the image is invalid or percentile is out of range.
func GreyWorld(img *images.Image, percentile float32) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := checkPercentile(percentile); err != nil {
		return nil, err
	}

	linear := img.Clone()
	colorspace.LinearizeImage(linear)
	xyz := colorspace.RGBToXYZ(linear)

	illum, degenerate, err := EstimateIlluminants(xyz, percentile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to estimate illuminant")
	}

	transform := colorspace.Identity3
	if source, ok := illum.WhitePoint(); ok {
		if transform, err = BradfordTransform(source, colorspace.D65); err != nil {
			return nil, err
		}
	} else if !lo.Contains(degenerate, images.Green) {
		// Without luminance the chromaticity is undefined; adaptation is skipped.
		degenerate = append(degenerate, images.Green)
	}
	colorspace.Transform3(transform, xyz)

	return &Result{
		Image:      colorspace.XYZToRGB(xyz),
		Illuminant: illum,
		Degenerate: degenerate,
	}, nil
}

// SimpleGreyWorld scales each channel of img in place so that its mean
// becomes 0.5. Channels with a zero mean are left untouched and reported.
func SimpleGreyWorld(img *images.Image) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Image: img}
	for c := images.Red; c <= images.Blue; c++ {
		plane := img.Plane(c)
		mean := images.Mean(plane)
		res.Illuminant[c] = mean
		if mean == 0 || math32.IsNaN(mean) {
			res.Degenerate = append(res.Degenerate, c)
			continue
		}
		scale := 0.5 / mean
		for i := range plane {
			plane[i] *= scale
		}
	}
	return res, nil
}

// Apply white balances img in place: channel compensation followed by the
// selected Grey-World variant. The returned Result's Image is img.
//
// Arguments:
// - img: The image to correct.
// - opts: Compensation gain, percentile and method.
//
// Returns:
// - The result of the run.
// - error if the image or options are invalid.
//
// @example
// res, err := Apply(img, DefaultOptions())
func Apply(img *images.Image, opts Options) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if math32.IsNaN(opts.Alpha) || math32.IsInf(opts.Alpha, 0) {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "alpha must be finite, got %v", opts.Alpha)
	}

	switch opts.Method {
	case MethodSimple:
	case MethodRobust, "":
		if err := checkPercentile(opts.Percentile); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(images.ErrInvalidArgument, "unknown grey world method %q", opts.Method)
	}

	if err := CompensateChannels(img, opts.Alpha); err != nil {
		return nil, errors.Wrap(err, "channel compensation failed")
	}

	if opts.Method == MethodSimple {
		return SimpleGreyWorld(img)
	}
	res, err := GreyWorld(img, opts.Percentile)
	if err != nil {
		return nil, err
	}
	copy(img.Data, res.Image.Data)
	res.Image = img
	return res, nil
}
