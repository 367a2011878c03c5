// Package imageio reads and writes the planar images consumed by the
// enhancement pipeline: the plain text format (rows, cols, then every value in
// plane-major order) and 24-bit BMP files. LoadDirectory gathers every
// supported file of a directory for batch runs.
package imageio

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// MaxPixels bounds the dimensions accepted from a header.
const MaxPixels = 1 << 28

// DecodeText parses a text image. The first two tokens are the number of rows
// and columns, followed by 3*rows*cols values in plane-major order. Integer
// values are 8-bit levels and are divided by 255; when any value carries a
// decimal point or exponent every value is taken as already normalised.
//
// Arguments:
// - r: The text source. Tokens may be separated by any white space.
//
// Returns:
// - The decoded image.
// - error if the header is invalid, a value is malformed or values are missing.
func DecodeText(r io.Reader) (*images.Image, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	header := [2]int{}
	for i, name := range []string{"rows", "cols"} {
		if !scanner.Scan() {
			return nil, errors.Wrapf(scanError(scanner), "missing %s header", name)
		}
		n, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, errors.Wrapf(images.ErrInvalidArgument, "invalid %s header %q", name, scanner.Text())
		}
		header[i] = n
	}
	rows, cols := header[0], header[1]
	if rows <= 0 || cols <= 0 || rows > MaxPixels/cols {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "invalid image dimensions: %d rows, %d cols", rows, cols)
	}

	img, err := images.NewImage(cols, rows)
	if err != nil {
		return nil, err
	}

	normalised := false
	for i := range img.Data {
		if !scanner.Scan() {
			return nil, errors.Wrapf(scanError(scanner), "expected %d values, got %d", len(img.Data), i)
		}
		token := scanner.Text()
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, errors.Wrapf(images.ErrInvalidArgument, "invalid value %q at index %d", token, i)
		}
		if strings.ContainsAny(token, ".eE") {
			normalised = true
		}
		img.Data[i] = float32(v)
	}

	if !normalised {
		for i := range img.Data {
			img.Data[i] /= 255
		}
	}
	return img, nil
}

func scanError(scanner *bufio.Scanner) error {
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// EncodeText writes img in the text format: rows, cols, then one value per
// line with six decimals.
func EncodeText(w io.Writer, img *images.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)
	buf = strconv.AppendInt(buf, int64(img.Height), 10)
	buf = append(buf, '\n')
	buf = strconv.AppendInt(buf, int64(img.Width), 10)
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for _, v := range img.Data {
		buf = strconv.AppendFloat(buf[:0], float64(v), 'f', 6, 32)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "failed to write values")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush text image")
}

// ReadText decodes the text image stored at path.
func ReadText(path string) (*images.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	img, err := DecodeText(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return img, nil
}

// WriteText encodes img to path, replacing any existing file.
func WriteText(path string, img *images.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := EncodeText(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
