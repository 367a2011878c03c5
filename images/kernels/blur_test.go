package kernels

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-uwfusion/images"
)

func rampPlane(rows, cols int) []float32 {
	plane := make([]float32, rows*cols)
	for i := range plane {
		plane[i] = float32(i + 1)
	}
	return plane
}

func TestPadSurroundsWithZeros(t *testing.T) {
	plane := []float32{1, 2, 3, 4}
	padded, err := Pad(plane, 2, 2, 3)
	require.NoError(t, err)

	expected := []float32{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 3, 4, 0,
		0, 0, 0, 0,
	}
	assert.Equal(t, expected, padded)
}

func TestPadRejectsEvenKernel(t *testing.T) {
	_, err := Pad([]float32{1, 2, 3, 4}, 2, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrInvalidArgument))
}

func TestCorrelateIdentityKernelReturnsInput(t *testing.T) {
	identity, err := NewKernel([]float32{0, 0, 0, 0, 1, 0, 0, 0, 0})
	require.NoError(t, err)

	plane := rampPlane(4, 5)
	out, err := Correlate(plane, 4, 5, identity, Options{})
	require.NoError(t, err)
	assert.Equal(t, plane, out)
}

func TestCorrelateDoesNotFlipKernel(t *testing.T) {
	// A kernel picking the right-hand neighbour shifts the row left.
	right, err := NewKernel([]float32{0, 0, 0, 0, 0, 1, 0, 0, 0})
	require.NoError(t, err)

	out, err := Correlate([]float32{1, 2, 3}, 1, 3, right, Options{})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 0}, out)
}

func TestGaussianBlurPreservesUniformInterior(t *testing.T) {
	rows, cols := 5, 5
	plane := make([]float32, rows*cols)
	for i := range plane {
		plane[i] = 0.4
	}

	out, err := GaussianBlur(plane, rows, cols, Options{})
	require.NoError(t, err)

	// Zero padding darkens the border; the interior sees the full footprint.
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			assert.InDelta(t, 0.4, out[r*cols+c], 1e-3)
		}
	}
	assert.Less(t, out[0], float32(0.4))
}

func TestGaussianKernelSumsToOne(t *testing.T) {
	var sum float32
	for _, v := range Gaussian().Values() {
		sum += v
	}
	// The published weights are rounded to four places.
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestLaplacianOfConstantInteriorIsZero(t *testing.T) {
	plane := make([]float32, 16)
	for i := range plane {
		plane[i] = 0.7
	}
	out, err := ApplyLaplacian(plane, 4, 4, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 0, out[1*4+1], 1e-5)
	assert.InDelta(t, 0, out[2*4+2], 1e-5)
	// Corner: 8*0.7 minus three in-bounds neighbours.
	assert.InDelta(t, 5*0.7, out[0], 1e-5)
}

func TestCorrelateParallelMatchesSerial(t *testing.T) {
	rows, cols := 70, 33
	plane := rampPlane(rows, cols)

	serial, err := Correlate(plane, rows, cols, Gaussian(), Options{})
	require.NoError(t, err)
	parallel, err := Correlate(plane, rows, cols, Gaussian(), Options{Parallel: true, Pool: &Pool{}})
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestCorrelatePoolReuseIsClean(t *testing.T) {
	pool := &Pool{}
	plane := rampPlane(6, 6)
	first, err := Correlate(plane, 6, 6, Laplacian(), Options{Pool: pool})
	require.NoError(t, err)
	second, err := Correlate(plane, 6, 6, Laplacian(), Options{Pool: pool})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCorrelateDimensionMismatch(t *testing.T) {
	_, err := Correlate([]float32{1, 2, 3}, 2, 2, Gaussian(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrDimensionMismatch))

	_, err = Correlate([]float32{1, 2, 3, 4}, 2, 2, nil, Options{})
	assert.True(t, errors.Is(err, images.ErrInvalidArgument))
}

func TestNewKernelValidation(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		ok     bool
	}{
		{name: "3x3", values: make([]float32, 9), ok: true},
		{name: "5x5", values: make([]float32, 25), ok: true},
		{name: "1x1", values: []float32{1}, ok: true},
		{name: "2x2 even", values: make([]float32, 4), ok: false},
		{name: "not square", values: make([]float32, 8), ok: false},
		{name: "empty", values: nil, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := NewKernel(tt.values)
			if !tt.ok {
				assert.True(t, errors.Is(err, images.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.values), k.Size()*k.Size())
		})
	}
}

func TestCorrelateChannelsKeepsPlanesSeparate(t *testing.T) {
	img, err := images.NewImage(3, 3)
	require.NoError(t, err)
	for i := range img.Green() {
		img.Green()[i] = 1
	}

	out, err := CorrelateChannels(img, Gaussian(), Options{})
	require.NoError(t, err)

	assert.InDelta(t, 0, images.Max(out.Red()), 1e-7)
	assert.InDelta(t, 0, images.Max(out.Blue()), 1e-7)
	assert.InDelta(t, 1, out.Green()[4], 1e-3)
}

func TestNewOptionsParallelThreshold(t *testing.T) {
	pool := &Pool{}

	small := NewOptions(ParallelRows-1, pool)
	assert.Same(t, pool, small.Pool)
	assert.False(t, small.Parallel)

	large := NewOptions(ParallelRows, pool)
	assert.True(t, large.Parallel)
}

func TestBlurImageWithPooledParallelOptions(t *testing.T) {
	img, err := images.NewImage(9, ParallelRows)
	require.NoError(t, err)
	for i := range img.Data {
		img.Data[i] = float32(i%23) / 23
	}

	serial, err := BlurImage(img, Options{})
	require.NoError(t, err)

	opt := NewOptions(img.Height, &Pool{})
	require.True(t, opt.Parallel)
	for i := 0; i < 2; i++ {
		pooled, err := BlurImage(img, opt)
		require.NoError(t, err)
		assert.Equal(t, serial.Data, pooled.Data)
	}
}
