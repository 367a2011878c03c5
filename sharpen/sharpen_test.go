package sharpen

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/kernels"
)

func TestEqualizeHistogramSpreadsLevels(t *testing.T) {
	// Four equally populated levels crowded into the low end.
	plane := []float32{0.1, 0.1, 0.12, 0.12, 0.14, 0.14, 0.16, 0.16}
	EqualizeHistogram(plane)

	assert.InDeltaSlice(t, []float32{
		0.25, 0.25, 0.5, 0.5, 0.75, 0.75, 1, 1,
	}, plane, 1.0/255)
}

func TestEqualizeHistogramUniformPlane(t *testing.T) {
	plane := []float32{0.3, 0.3, 0.3, 0.3}
	EqualizeHistogram(plane)
	for _, v := range plane {
		assert.InDelta(t, 1, v, 1e-6)
	}
}

func TestEqualizeHistogramClampsOutOfRange(t *testing.T) {
	plane := []float32{-0.5, 0, 1, 1.5}
	EqualizeHistogram(plane)
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 1, 1}, plane, 1.0/255)
	EqualizeHistogram(nil)
}

func TestEqualizeHistogramIsMonotonic(t *testing.T) {
	plane := make([]float32, 200)
	for i := range plane {
		plane[i] = float32(i*i) / float32(len(plane)*len(plane))
	}
	EqualizeHistogram(plane)
	for i := 1; i < len(plane); i++ {
		assert.GreaterOrEqual(t, plane[i], plane[i-1])
	}
	assert.InDelta(t, 1, plane[len(plane)-1], 1e-6)
}

func TestUnsharpMask(t *testing.T) {
	img, err := images.NewImage(8, 6)
	require.NoError(t, err)
	red, green, blue := img.Red(), img.Green(), img.Blue()
	for i := range red {
		red[i] = float32(i%8) / 8
		green[i] = float32(i/8) / 6
		blue[i] = 0.4
	}
	before := img.Clone()

	sharp, err := UnsharpMask(img, kernels.Options{})
	require.NoError(t, err)
	assert.True(t, img.SameShape(sharp))
	assert.Equal(t, before.Data, img.Data)

	// Each output is the mean of the input and a non-negative detail value.
	for i, v := range sharp.Data {
		assert.GreaterOrEqual(t, v, img.Data[i]/2-1e-6)
	}
}

func TestUnsharpMaskInvalidImage(t *testing.T) {
	_, err := UnsharpMask(nil, kernels.Options{})
	assert.True(t, errors.Is(err, images.ErrEmptyImage))
}
