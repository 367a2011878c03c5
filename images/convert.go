package images

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// FromImage converts a decoded image into a planar image normalised to [0,1].
//
// Arguments:
// - src: The decoded image, any colour model.
//
// Returns:
// - The planar image.
// - error if the image has no pixels.
//
// @example
// img, err := FromImage(decoded)
func FromImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, errors.Wrap(ErrEmptyImage, "source image is nil")
	}
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	img, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}

	red, green, blue := img.Red(), img.Green(), img.Blue()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			// Convert from uint32 to uint8 before normalising, matching 8-bit sources.
			i := y*width + x
			red[i] = float32(uint8(r>>8)) / 255.0
			green[i] = float32(uint8(g>>8)) / 255.0
			blue[i] = float32(uint8(b>>8)) / 255.0
		}
	}

	return img, nil
}

// ToImage converts the planar image to an 8-bit NRGBA image. Values are clamped
// to [0,1] and rounded to the nearest level.
func (img *Image) ToImage() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	red, green, blue := img.Red(), img.Green(), img.Blue()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			dst.SetNRGBA(x, y, color.NRGBA{
				R: toByte(red[i]),
				G: toByte(green[i]),
				B: toByte(blue[i]),
				A: 255,
			})
		}
	}
	return dst
}

func toByte(v float32) uint8 {
	return uint8(math32.Floor(Clamp(v, 0, 1)*255 + 0.5))
}

// Resize rescales the image so that neither side exceeds maxDim, keeping the
// aspect ratio. Images already within the bound are returned unchanged.
//
// Arguments:
// - img: The image to resize.
// - maxDim: The largest allowed width or height.
//
// Returns:
// - The resized image (or img itself when no resize is needed).
// - error if maxDim is not positive.
//
// @example
// small, err := Resize(img, 1024)
func Resize(img *Image, maxDim int) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "max dimension must be positive, got %d", maxDim)
	}
	if img.Width <= maxDim && img.Height <= maxDim {
		return img, nil
	}

	// Thumbnail keeps the aspect ratio within the bounding box, using Lanczos3.
	scaled := resize.Thumbnail(uint(maxDim), uint(maxDim), img.ToImage(), resize.Lanczos3)
	return FromImage(scaled)
}
