// Package colorspace converts planar images between RGB and the HSI, CIE XYZ
// and CIE L*a*b* representations, and carries the small matrix primitive used
// for chromatic adaptation.
//
// Every converter takes a validated planar image and returns a newly allocated
// image in the same plane-major layout: plane 0/1/2 hold H/S/I, X/Y/Z or L/a/b.
package colorspace

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-uwfusion/images"
)

// HSIFromRGB converts one pixel to hue (degrees in [0,360)), saturation and
// intensity. Intensity is the largest channel and saturation is (max-min)/max,
// so the pair with RGBFromHSI round-trips exactly.
//
// Arguments:
// - r, g, b: Channel values.
//
// Returns:
// - h, s, i: Hue in degrees, saturation and intensity.
//
// @example
// h, s, i := HSIFromRGB(1, 0, 0) // 0, 1, 1
func HSIFromRGB(r, g, b float32) (h, s, i float32) {
	minRGB := math32.Min(math32.Min(r, g), b)

	maxRGB, maxChannel := g, images.Green
	if r > g {
		maxRGB, maxChannel = r, images.Red
	}
	if maxRGB < b {
		maxRGB, maxChannel = b, images.Blue
	}

	delta := maxRGB - minRGB
	if delta != 0 {
		switch maxChannel {
		case images.Red:
			h = 60 * wrap((g-b)/delta, 6)
		case images.Green:
			h = 60 * ((b-r)/delta + 2)
		case images.Blue:
			h = 60 * ((r-g)/delta + 4)
		}
	}

	if maxRGB != 0 {
		s = delta / maxRGB
	}
	return h, s, maxRGB
}

// RGBFromHSI converts one HSI pixel back to RGB using the primary, secondary
// and tertiary decomposition and a six-way sector dispatch on hue.
func RGBFromHSI(h, s, i float32) (r, g, b float32) {
	primary := i * s
	secondary := primary * (1 - math32.Abs(wrap(h/60, 2)-1))
	tertiary := i - primary

	switch {
	case 0 <= h && h < 60:
		return primary + tertiary, secondary + tertiary, tertiary
	case 60 <= h && h < 120:
		return secondary + tertiary, primary + tertiary, tertiary
	case 120 <= h && h < 180:
		return tertiary, primary + tertiary, secondary + tertiary
	case 180 <= h && h < 240:
		return tertiary, secondary + tertiary, primary + tertiary
	case 240 <= h && h < 300:
		return secondary + tertiary, tertiary, primary + tertiary
	default:
		return primary + tertiary, tertiary, secondary + tertiary
	}
}

// RGBToHSI converts every pixel of an RGB image to HSI.
func RGBToHSI(img *images.Image) *images.Image {
	out := newLike(img)
	red, green, blue := img.Red(), img.Green(), img.Blue()
	hue, sat, intensity := out.Plane(0), out.Plane(1), out.Plane(2)
	for p := range red {
		hue[p], sat[p], intensity[p] = HSIFromRGB(red[p], green[p], blue[p])
	}
	return out
}

// HSIToRGB converts every pixel of an HSI image back to RGB.
func HSIToRGB(img *images.Image) *images.Image {
	out := newLike(img)
	hue, sat, intensity := img.Plane(0), img.Plane(1), img.Plane(2)
	red, green, blue := out.Red(), out.Green(), out.Blue()
	for p := range hue {
		red[p], green[p], blue[p] = RGBFromHSI(hue[p], sat[p], intensity[p])
	}
	return out
}

// wrap returns x modulo m in [0, m).
func wrap(x, m float32) float32 {
	r := math32.Mod(x, m)
	if r < 0 {
		r += m
	}
	// A tiny negative remainder can round up to m itself.
	if r >= m {
		r = 0
	}
	return r
}

func newLike(img *images.Image) *images.Image {
	return &images.Image{Width: img.Width, Height: img.Height, Data: make([]float32, len(img.Data))}
}
