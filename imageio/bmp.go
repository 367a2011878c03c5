package imageio

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/nvr-ai/go-uwfusion/images"
)

// DecodeBMP decodes a BMP stream into a planar image normalised to [0,1].
func DecodeBMP(r io.Reader) (*images.Image, error) {
	decoded, err := bmp.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode bmp")
	}
	return images.FromImage(decoded)
}

// EncodeBMP writes img as an 8-bit BMP. Values are clamped to [0,1] first.
func EncodeBMP(w io.Writer, img *images.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	return errors.Wrap(bmp.Encode(w, img.ToImage()), "failed to encode bmp")
}

// ReadBMP decodes the BMP file at path.
//
// @example
// img, err := ReadBMP("reef.bmp")
func ReadBMP(path string) (*images.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	img, err := DecodeBMP(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return img, nil
}

// WriteBMP encodes img to path, replacing any existing file.
func WriteBMP(path string, img *images.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := EncodeBMP(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
