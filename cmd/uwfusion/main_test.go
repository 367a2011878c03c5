package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-uwfusion/imageio"
	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/weights"
	"github.com/nvr-ai/go-uwfusion/whitebalance"
)

func writeInput(t *testing.T, path string, width, height int) {
	t.Helper()
	img, err := images.NewImage(width, height)
	require.NoError(t, err)
	red, green, blue := img.Red(), img.Green(), img.Blue()
	for i := range red {
		red[i] = 0.1 + float32(i%5)/50
		green[i] = 0.5
		blue[i] = 0.4 + float32(i%3)/30
	}
	require.NoError(t, imageio.Write(path, img))
}

func TestParseFlagsPrecedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("gamma: 1.4\nalpha: 0.5\n"), 0o600))

	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-in", "x.txt", "-config", cfgPath, "-alpha", "0.8", "-lum", "0", "-grey-world", "simple"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, float32(0.8), opts.cfg.Alpha)
	assert.Equal(t, float32(1.4), opts.cfg.Gamma)
	assert.Equal(t, weights.LuminanceStandard, opts.cfg.Luminance)
	assert.Equal(t, whitebalance.MethodSimple, opts.cfg.GreyWorld)
	assert.Equal(t, float32(20), opts.cfg.Percentile)
}

func TestParseFlagsErrors(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags(nil, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-in", "a.txt", "-dir", "d"}, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-in", "a.txt", "-percentile", "70"}, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-in", "a.txt", "-lum", "5"}, &stderr)
	assert.Error(t, err)
}

func TestRunSingle(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reef.txt")
	writeInput(t, in, 6, 4)

	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-in", in}, &stderr))

	out, err := imageio.ReadText(filepath.Join(dir, "reef_corrected.txt"))
	require.NoError(t, err)
	assert.Equal(t, 6, out.Width)
	assert.Equal(t, 4, out.Height)
	assert.Contains(t, stderr.String(), "image written")
	assert.Contains(t, stderr.String(), "stage timing")
}

func TestRunSingleBMPWithResize(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reef.txt")
	writeInput(t, in, 20, 10)
	out := filepath.Join(dir, "small.txt")

	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-in", in, "-out", out, "-bmp", "-max-dim", "10"}, &stderr))

	img, err := imageio.ReadBMP(filepath.Join(dir, "small.bmp"))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Width)
	assert.Equal(t, 5, img.Height)
}

func TestRunBatch(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "enhanced")
	writeInput(t, filepath.Join(in, "frame-1.txt"), 5, 5)
	writeInput(t, filepath.Join(in, "frame-2.bmp"), 4, 6)

	var stderr bytes.Buffer
	args := []string{"-dir", in, "-out", out, "-concurrency", "2", "-log-level", "debug"}
	require.NoError(t, run(context.Background(), args, &stderr))

	_, err := os.Stat(filepath.Join(out, "frame-1_corrected.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "frame-2_corrected.bmp"))
	assert.NoError(t, err)
	assert.Contains(t, stderr.String(), "batch written")
}

func TestRunMissingInput(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-in", filepath.Join(t.TempDir(), "none.txt")}, &stderr)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "a.txt", outputPath("a.txt", false))
	assert.Equal(t, "a.bmp", outputPath("a.txt", true))
	assert.Equal(t, "a.BMP", outputPath("a.BMP", true))
}
