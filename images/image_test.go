package images

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage(t *testing.T) {
	img, err := NewImage(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Pixels())
	assert.Len(t, img.Data, 36)

	_, err = NewImage(0, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = NewImage(4, -1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestFromDataRejectsShortBuffer(t *testing.T) {
	_, err := FromData(2, 2, make([]float32, 11))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestValidateNil(t *testing.T) {
	var img *Image
	assert.True(t, errors.Is(img.Validate(), ErrEmptyImage))
}

func TestPlanesAliasData(t *testing.T) {
	img, err := FromData(2, 1, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 2}, img.Red())
	assert.Equal(t, []float32{3, 4}, img.Green())
	assert.Equal(t, []float32{5, 6}, img.Blue())

	img.Green()[1] = 40
	assert.Equal(t, float32(40), img.Data[3])

	// Appending to a plane must not spill into the next one.
	red := append(img.Red(), 99)
	assert.Equal(t, float32(99), red[2])
	assert.Equal(t, float32(3), img.Data[2])
}

func TestCloneIsDeep(t *testing.T) {
	img, err := FromData(1, 1, []float32{0.1, 0.2, 0.3})
	require.NoError(t, err)

	clone := img.Clone()
	clone.Data[0] = 0.9
	assert.Equal(t, float32(0.1), img.Data[0])
	assert.True(t, img.SameShape(clone))
	assert.False(t, img.SameShape(nil))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(1.3, 0, 1))
	assert.Equal(t, float32(0), Clamp(-0.2, 0, 1))
	assert.Equal(t, float32(0.4), Clamp(0.4, 0, 1))

	img, err := FromData(1, 1, []float32{-1, 0.5, 2})
	require.NoError(t, err)
	img.Clamp()
	assert.Equal(t, []float32{0, 0.5, 1}, img.Data)
}

func TestMeanAndMax(t *testing.T) {
	assert.InDelta(t, 0.5, Mean([]float32{0, 0.5, 1}), 1e-7)
	assert.Equal(t, float32(0), Mean(nil))
	assert.Equal(t, float32(3), Max([]float32{1, 3, 2}))
	assert.Equal(t, float32(0), Max(nil))
}

func TestCorrectGamma(t *testing.T) {
	img, err := FromData(2, 1, []float32{0.5, 1, 0, -0.25, 0.25, 1.5})
	require.NoError(t, err)

	corrected, err := CorrectGamma(img, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.25, 1, 0, 0, 0.0625, 1}, corrected.Data, 1e-6)

	// The source is untouched.
	assert.Equal(t, float32(0.5), img.Data[0])

	_, err = CorrectGamma(img, 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = CorrectGamma(img, -1.2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCorrectGammaIdentity(t *testing.T) {
	img, err := FromData(1, 1, []float32{0.2, 0.4, 0.6})
	require.NoError(t, err)

	corrected, err := CorrectGamma(img, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, img.Data, corrected.Data, 1e-6)
}

func TestParallelCoversRange(t *testing.T) {
	seen := make([]int32, 1000)
	Parallel(len(seen), func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, n := range seen {
		require.Equal(t, int32(1), n, "index %d", i)
	}
}
