package whitebalance

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/colorspace"
)

const (
	// NumBins is the number of histogram bins used to quantise a channel.
	NumBins = 1024

	// rangeEpsilon widens the trimmed range so values sitting on a bin edge are kept.
	rangeEpsilon = 1e-3
)

// Illuminant holds one estimate per channel of an image.
type Illuminant [images.NumChannels]float32

// WhitePoint scales the illuminant to unit luminance (Y = 1), the
// normalisation expected by chromatic adaptation. It returns false when the
// luminance estimate is not a positive finite number.
func (il Illuminant) WhitePoint() (colorspace.Tristimulus, bool) {
	y := il[images.Green]
	if !(y > 0) || math32.IsInf(y, 1) {
		return colorspace.Tristimulus{}, false
	}
	return colorspace.Tristimulus{il[0] / y, 1, il[2] / y}, true
}

// EstimateIlluminant estimates the illuminant of a single channel as the mean
// absolute value of the samples lying between the lower and upper percentile
// of a NumBins histogram over [0,1). Values outside [0,1) fall into the edge
// bins, and an edge bin's range extends to infinity on its open side.
//
// Arguments:
// - plane: The channel samples.
// - percentile: The fraction, in percent, trimmed from each end. Must be in [0,50).
//
// Returns:
// - The estimate.
// - false when no sample falls inside the trimmed range (estimate is 0).
//
// @example
// illum, ok := EstimateIlluminant(img.Green(), 20)
func EstimateIlluminant(plane []float32, percentile float32) (float32, bool) {
	if len(plane) == 0 {
		return 0, false
	}

	var histogram [NumBins]int
	for _, v := range plane {
		histogram[binOf(v)]++
	}

	threshold := float32(len(plane)) * percentile / 100

	low := NumBins - 1
	sum := 0
	for i := 0; i < NumBins; i++ {
		sum += histogram[i]
		if float32(sum) > threshold {
			low = i
			break
		}
	}

	high := 0
	sum = 0
	for i := NumBins - 1; i >= 0; i-- {
		sum += histogram[i]
		if float32(sum) > threshold {
			high = i
			break
		}
	}

	const step = float32(1) / NumBins
	lower := float32(low)*step - rangeEpsilon
	upper := float32(high+1)*step + rangeEpsilon
	if low == 0 {
		lower = math32.Inf(-1)
	}
	if high == NumBins-1 {
		upper = math32.Inf(1)
	}

	var total float64
	count := 0
	for _, v := range plane {
		if v >= lower && v <= upper {
			total += float64(math32.Abs(v))
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return float32(total / float64(count)), true
}

func binOf(v float32) int {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return NumBins - 1
	}
	bin := int(v * NumBins)
	if bin >= NumBins {
		bin = NumBins - 1
	}
	return bin
}

// EstimateIlluminants estimates the illuminant of each plane of img.
//
// Returns:
// - The per-channel estimates.
// - The channels whose trimmed range held no sample.
// - error if the image is invalid or percentile is outside [0,50).
func EstimateIlluminants(img *images.Image, percentile float32) (Illuminant, []images.Channel, error) {
	var illum Illuminant
	if err := img.Validate(); err != nil {
		return illum, nil, err
	}
	if err := checkPercentile(percentile); err != nil {
		return illum, nil, err
	}

	var degenerate []images.Channel
	for c := images.Red; c <= images.Blue; c++ {
		v, ok := EstimateIlluminant(img.Plane(c), percentile)
		if !ok {
			degenerate = append(degenerate, c)
		}
		illum[c] = v
	}
	return illum, degenerate, nil
}

func checkPercentile(percentile float32) error {
	if math32.IsNaN(percentile) || percentile < 0 || percentile >= 50 {
		return errors.Wrapf(images.ErrInvalidArgument, "percentile must be in [0,50), got %v", percentile)
	}
	return nil
}

// Bradford maps XYZ to the Bradford cone response domain.
var Bradford = colorspace.Matrix3{
	0.8951000, 0.2664000, -0.1614000,
	-0.7502000, 1.7135000, 0.0367000,
	0.0389000, -0.0685000, 1.0296000,
}

// BradfordInverse maps the cone response domain back to XYZ.
var BradfordInverse = colorspace.Matrix3{
	0.9869929, -0.1470543, 0.1599627,
	0.4323053, 0.5183603, 0.0492912,
	-0.0085287, 0.0400428, 0.9684867,
}

// BradfordTransform builds the chromatic adaptation matrix that maps colours
// seen under source to colours seen under target:
// BradfordInverse · diag(targetCone/sourceCone) · Bradford.
// A zero source cone response leaves that cone unscaled.
//
// Arguments:
// - source: The estimated scene illuminant, in XYZ.
// - target: The reference white, in XYZ.
//
// Returns:
// - The 3×3 adaptation matrix.
// - error if the matrix product fails.
//
// @example
// m, err := BradfordTransform(colorspace.Tristimulus(illum), colorspace.D65)
func BradfordTransform(source, target colorspace.Tristimulus) (colorspace.Matrix3, error) {
	sourceCone := Bradford.Apply(source)
	targetCone := Bradford.Apply(target)

	var scale [3]float32
	for i := range scale {
		scale[i] = 1
		if sourceCone[i] != 0 {
			scale[i] = targetCone[i] / sourceCone[i]
		}
	}

	intermediate, err := BradfordInverse.Mul(colorspace.Diag3(scale))
	if err != nil {
		return colorspace.Matrix3{}, errors.Wrap(err, "failed to scale cone response")
	}
	transform, err := intermediate.Mul(Bradford)
	if err != nil {
		return colorspace.Matrix3{}, errors.Wrap(err, "failed to compose adaptation")
	}
	return transform, nil
}
