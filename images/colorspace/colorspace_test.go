package colorspace

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-uwfusion/images"
)

func TestHSIFromRGBPureRed(t *testing.T) {
	h, s, i := HSIFromRGB(1, 0, 0)
	assert.InDelta(t, 0, h, 1e-6)
	assert.InDelta(t, 1, s, 1e-6)
	assert.InDelta(t, 1, i, 1e-6)

	r, g, b := RGBFromHSI(h, s, i)
	assert.InDelta(t, 1, r, 1e-6)
	assert.InDelta(t, 0, g, 1e-6)
	assert.InDelta(t, 0, b, 1e-6)
}

func TestHSIRoundTrip(t *testing.T) {
	pixels := [][3]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 0},
		{0, 1, 1},
		{1, 0, 1},
		{0.5, 0.5, 0.5},
		{0, 0, 0},
		{0.8, 0.3, 0.1},
		{0.2, 0.7, 0.4},
		{0.15, 0.25, 0.9},
		{0.9, 0.1, 0.6},
		{0.6, 0.6, 0.2},
	}
	for _, p := range pixels {
		h, s, i := HSIFromRGB(p[0], p[1], p[2])
		assert.GreaterOrEqual(t, h, float32(0))
		assert.Less(t, h, float32(360))

		r, g, b := RGBFromHSI(h, s, i)
		assert.InDelta(t, p[0], r, 1e-5, "red of %v", p)
		assert.InDelta(t, p[1], g, 1e-5, "green of %v", p)
		assert.InDelta(t, p[2], b, 1e-5, "blue of %v", p)
	}
}

func TestHSIIntensityIsMaxChannel(t *testing.T) {
	_, s, i := HSIFromRGB(0.2, 0.6, 0.4)
	assert.InDelta(t, 0.6, i, 1e-6)
	assert.InDelta(t, (0.6-0.2)/0.6, s, 1e-6)
}

func TestHSIImageRoundTrip(t *testing.T) {
	img, err := images.FromData(2, 1, []float32{0.9, 0.1, 0.2, 0.8, 0.3, 0.4})
	require.NoError(t, err)

	back := HSIToRGB(RGBToHSI(img))
	for i := range img.Data {
		assert.InDelta(t, img.Data[i], back.Data[i], 1e-5)
	}
}

func TestLabOfWhite(t *testing.T) {
	img, err := images.FromData(1, 1, []float32{1, 1, 1})
	require.NoError(t, err)

	lab := RGBToLAB(img)
	assert.InDelta(t, 100, lab.Data[0], 0.1)
	assert.InDelta(t, 0, lab.Data[1], 0.1)
	assert.InDelta(t, 0, lab.Data[2], 0.1)
}

func TestLabOfBlack(t *testing.T) {
	l, a, b := LabFromXYZ(0, 0, 0, LabWhite)
	assert.InDelta(t, 0, l, 1e-6)
	assert.InDelta(t, 0, a, 1e-6)
	assert.InDelta(t, 0, b, 1e-6)
}

func TestLabCompandBranches(t *testing.T) {
	assert.InDelta(t, 0.5, LabCompand(0.125, 1), 1e-6)
	assert.InDelta(t, 7.787*0.001+16.0/116.0, LabCompand(0.001, 1), 1e-6)
}

func TestXYZRoundTripInGamut(t *testing.T) {
	img, err := images.FromData(1, 1, []float32{0.3, 0.5, 0.7})
	require.NoError(t, err)

	back := XYZToRGB(RGBToXYZ(img))
	for i := range img.Data {
		assert.InDelta(t, img.Data[i], back.Data[i], 1e-3)
	}
}

func TestXYZToRGBTakesAbsoluteValue(t *testing.T) {
	// Pure X has a negative green component in sRGB.
	img, err := images.FromData(1, 1, []float32{1, 0, 0})
	require.NoError(t, err)

	rgb := XYZToRGB(img)
	assert.InDelta(t, 0.9692660, rgb.Data[1], 1e-6)
}

func TestLinearize(t *testing.T) {
	assert.InDelta(t, 0.02/12.92, Linearize(0.02), 1e-7)
	assert.InDelta(t, 0.2140, Linearize(0.5), 1e-4)
	assert.InDelta(t, 1, Linearize(1), 1e-6)
	assert.InDelta(t, -Linearize(0.5), Linearize(-0.5), 1e-7)
}

func TestMatMul(t *testing.T) {
	left := []float32{1, 2, 3, 4, 5, 6}
	right := []float32{7, 8, 9, 10, 11, 12}

	product, err := MatMul(left, 2, 3, right, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{58, 64, 139, 154}, product)
}

func TestMatMulMatrixVector(t *testing.T) {
	white := D65
	cone, err := MatMul(Identity3[:], 3, 3, white[:], 3, 1)
	require.NoError(t, err)
	assert.Equal(t, white[:], cone)
}

func TestMatMulDimensionMismatch(t *testing.T) {
	_, err := MatMul(make([]float32, 6), 2, 3, make([]float32, 4), 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrDimensionMismatch))

	_, err = MatMul(make([]float32, 5), 2, 3, make([]float32, 6), 3, 2)
	assert.True(t, errors.Is(err, images.ErrDimensionMismatch))
}

func TestMatrix3MulIdentity(t *testing.T) {
	product, err := RGBToXYZMatrix.Mul(Identity3)
	require.NoError(t, err)
	for i := range product {
		assert.InDelta(t, RGBToXYZMatrix[i], product[i], 1e-6)
	}
}
