package imageio

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-uwfusion/images"
)

// Format identifies a supported file format.
type Format string

const (
	FormatText Format = "text"
	FormatBMP  Format = "bmp"
)

// File is an image loaded from a directory.
type File struct {
	// Path is the path to the image file.
	Path string
	// Format is the format the file was decoded with.
	Format Format
	// Frame is the trailing number of the file name, or -1 when there is none.
	Frame int
	// Image is the decoded image.
	Image *images.Image
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText, true
	case ".bmp":
		return FormatBMP, true
	default:
		return "", false
	}
}

// Read decodes the file at path using the format implied by its extension.
func Read(path string) (*images.Image, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, errors.Wrapf(images.ErrInvalidArgument, "unsupported image file %s", path)
	}
	if format == FormatBMP {
		return ReadBMP(path)
	}
	return ReadText(path)
}

// Write encodes img to path using the format implied by its extension.
func Write(path string, img *images.Image) error {
	format, ok := FormatOf(path)
	if !ok {
		return errors.Wrapf(images.ErrInvalidArgument, "unsupported image file %s", path)
	}
	if format == FormatBMP {
		return WriteBMP(path, img)
	}
	return WriteText(path, img)
}

// CorrectedPath derives the output path of an enhanced image, placed in dir
// (or next to the input when dir is empty): name_corrected.ext.
func CorrectedPath(path, dir string) string {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext) + "_corrected" + ext
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, name)
}

// LoadDirectory reads every text and BMP image of a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - The decoded files ordered by frame number, then by name.
// - error if the directory or any supported file cannot be read.
func LoadDirectory(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, ok := FormatOf(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		img, err := Read(path)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path:   path,
			Format: format,
			Frame:  frameNumber(entry.Name()),
			Image:  img,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// frameNumber extracts the trailing digits of a file name, e.g. 12 for
// "frame-12.bmp".
func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	frame, err := strconv.Atoi(stem[start:end])
	if err != nil {
		return -1
	}
	return frame
}
