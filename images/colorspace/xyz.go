package colorspace

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-uwfusion/images"
)

// Tristimulus is an XYZ triple.
type Tristimulus [3]float32

var (
	// RGBToXYZMatrix maps linear sRGB to CIE XYZ.
	RGBToXYZMatrix = Matrix3{
		0.412453, 0.357580, 0.180423,
		0.212671, 0.715160, 0.072169,
		0.019334, 0.119193, 0.950227,
	}

	// XYZToRGBMatrix maps CIE XYZ back to linear sRGB.
	XYZToRGBMatrix = Matrix3{
		3.2404542, -1.5371385, -0.4985314,
		-0.9692660, 1.8760108, 0.0415560,
		0.0556434, -0.2040259, 1.0572252,
	}

	// D65 is the reference white used as the chromatic adaptation target.
	D65 = Tristimulus{0.95047, 1.00000, 1.08883}

	// LabWhite is the reference white for L*a*b* conversion, on the scale
	// produced by RGBToLAB.
	LabWhite = Tristimulus{76.04, 80, 87.12}
)

// RGBToXYZ converts an RGB image to XYZ.
func RGBToXYZ(img *images.Image) *images.Image {
	out := img.Clone()
	Transform3(RGBToXYZMatrix, out)
	return out
}

// XYZToRGB converts an XYZ image back to RGB. Negative results are replaced
// by their absolute value rather than clamped to zero; this is lossy for
// out-of-gamut colours and is kept for parity with the reference pipeline.
func XYZToRGB(img *images.Image) *images.Image {
	out := img.Clone()
	Transform3(XYZToRGBMatrix, out)
	for i, v := range out.Data {
		out.Data[i] = math32.Abs(v)
	}
	return out
}

// Linearize removes sRGB gamma companding from a single value. Negative inputs
// are mirrored: f(u) = -f(-u).
//
// Arguments:
// - u: A companded channel value.
//
// Returns:
// - The linear value.
//
// @example
// lin := Linearize(0.5) // ~0.214
func Linearize(u float32) float32 {
	switch {
	case u < 0:
		return -Linearize(-u)
	case u < 0.04045:
		return u / 12.92
	default:
		return math32.Pow((u+0.055)/1.055, 2.4)
	}
}

// LinearizeImage linearises every value of the image in place.
func LinearizeImage(img *images.Image) {
	for i, v := range img.Data {
		img.Data[i] = Linearize(v)
	}
}
