// Package images - planar RGB raster definition shared by every enhancement stage.
package images

import (
	"github.com/pkg/errors"
)

// NumChannels is the number of colour planes held by an Image.
const NumChannels = 3

// Channel indexes a colour plane of an Image.
type Channel int

const (
	// Red is the first plane. For HSI images it holds hue, for XYZ images X, for LAB images L.
	Red Channel = iota
	// Green is the second plane.
	Green
	// Blue is the third plane.
	Blue
)

// Image is a normalised raster stored as three contiguous planes: every red
// value, then every green value, then every blue value. Values are nominally
// in [0,1] for RGB content. The same layout carries HSI, XYZ and LAB data.
type Image struct {
	// The width of the image (number of columns).
	Width int `json:"width" yaml:"width"`
	// The height of the image (number of rows).
	Height int `json:"height" yaml:"height"`
	// Data holds 3*Width*Height values in plane-major order.
	Data []float32 `json:"data" yaml:"data"`
}

// NewImage allocates a zeroed image of the given dimensions.
//
// Arguments:
// - width: Number of columns.
// - height: Number of rows.
//
// Returns:
// - The allocated image.
// - error if either dimension is not positive.
//
// @example
// img, err := NewImage(640, 480)
func NewImage(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid image dimensions: %dx%d", width, height)
	}
	return &Image{
		Width:  width,
		Height: height,
		Data:   make([]float32, NumChannels*width*height),
	}, nil
}

// FromData wraps an existing plane-major buffer without copying it.
//
// Arguments:
// - width: Number of columns.
// - height: Number of rows.
// - data: Plane-major values, length 3*width*height.
//
// Returns:
// - The image backed by data.
// - error if the buffer length does not match the dimensions.
func FromData(width, height int, data []float32) (*Image, error) {
	img := &Image{Width: width, Height: height, Data: data}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks the plane invariants of the image.
func (img *Image) Validate() error {
	if img == nil {
		return errors.Wrap(ErrEmptyImage, "image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "invalid image dimensions: %dx%d", img.Width, img.Height)
	}
	if want := NumChannels * img.Width * img.Height; len(img.Data) != want {
		return errors.Wrapf(ErrDimensionMismatch, "image data holds %d values, want %d", len(img.Data), want)
	}
	return nil
}

// Pixels returns the number of pixels in a single plane.
func (img *Image) Pixels() int {
	return img.Width * img.Height
}

// Plane returns the slice of the requested channel. The slice aliases Data.
func (img *Image) Plane(c Channel) []float32 {
	n := img.Pixels()
	return img.Data[int(c)*n : (int(c)+1)*n : (int(c)+1)*n]
}

// Red returns the first plane.
func (img *Image) Red() []float32 { return img.Plane(Red) }

// Green returns the second plane.
func (img *Image) Green() []float32 { return img.Plane(Green) }

// Blue returns the third plane.
func (img *Image) Blue() []float32 { return img.Plane(Blue) }

// Planes returns the three channel slices in order.
func (img *Image) Planes() [NumChannels][]float32 {
	return [NumChannels][]float32{img.Red(), img.Green(), img.Blue()}
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	data := make([]float32, len(img.Data))
	copy(data, img.Data)
	return &Image{Width: img.Width, Height: img.Height, Data: data}
}

// SameShape reports whether other has the same dimensions as img.
func (img *Image) SameShape(other *Image) bool {
	return other != nil && img.Width == other.Width && img.Height == other.Height
}

// Clamp confines every value of the image to [0,1] in place.
func (img *Image) Clamp() {
	for i, v := range img.Data {
		img.Data[i] = Clamp(v, 0, 1)
	}
}
