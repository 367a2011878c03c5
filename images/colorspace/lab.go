package colorspace

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-uwfusion/images"
)

const (
	labEpsilon = 0.008856
	labKappa   = 903.3
)

// LabCompand is the piecewise CIE companding function:
// (t/ref)^(1/3) above 0.008856, 7.787*(t/ref) + 16/116 otherwise.
func LabCompand(t, ref float32) float32 {
	ratio := t / ref
	if ratio > labEpsilon {
		return math32.Cbrt(ratio)
	}
	return 7.787*ratio + 16.0/116.0
}

// LabFromXYZ converts one XYZ triple to L*a*b* against the given white.
func LabFromXYZ(x, y, z float32, white Tristimulus) (l, a, b float32) {
	yr := y / white[1]
	if yr > labEpsilon {
		l = 116*math32.Cbrt(yr) - 16
	} else {
		l = labKappa * yr
	}

	fx := LabCompand(x, white[0])
	fy := LabCompand(y, white[1])
	fz := LabCompand(z, white[2])
	return l, 500 * (fx - fy), 200 * (fy - fz)
}

// XYZToLAB converts an XYZ image to L*a*b* against the given white.
//
// Arguments:
// - img: XYZ image on the same scale as white.
// - white: Reference white tristimulus.
//
// Returns:
// - A newly allocated L*a*b* image.
func XYZToLAB(img *images.Image, white Tristimulus) *images.Image {
	out := newLike(img)
	x, y, z := img.Plane(0), img.Plane(1), img.Plane(2)
	l, a, b := out.Plane(0), out.Plane(1), out.Plane(2)
	for p := range x {
		l[p], a[p], b[p] = LabFromXYZ(x[p], y[p], z[p], white)
	}
	return out
}

// RGBToLAB converts an RGB image to L*a*b* through XYZ. XYZ is scaled by the
// luminance of LabWhite so that RGB (1,1,1) lands on the reference white.
func RGBToLAB(img *images.Image) *images.Image {
	xyz := RGBToXYZ(img)
	for i := range xyz.Data {
		xyz.Data[i] *= LabWhite[1]
	}
	return XYZToLAB(xyz, LabWhite)
}
