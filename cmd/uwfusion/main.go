// Command uwfusion enhances underwater images by white balancing them and
// fusing a gamma corrected and a sharpened branch.
//
//	uwfusion -in reef.txt
//	uwfusion -in reef.bmp -out reef_fused.bmp -gamma 1.3
//	uwfusion -dir frames/ -out enhanced/ -concurrency 4
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-uwfusion/fusion"
	"github.com/nvr-ai/go-uwfusion/imageio"
	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/logger"
	"github.com/nvr-ai/go-uwfusion/profiler"
	"github.com/nvr-ai/go-uwfusion/weights"
	"github.com/nvr-ai/go-uwfusion/whitebalance"
)

// options holds the parsed command line.
type options struct {
	in          string
	out         string
	dir         string
	configPath  string
	maxDim      int
	bmp         bool
	concurrency int
	logLevel    string
	console     bool
	cfg         fusion.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "uwfusion: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args into options. Values given on the command line
// override the configuration file, which overrides the defaults.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("uwfusion", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := fusion.DefaultConfig()
	opts := &options{}
	var (
		alpha      float64
		percentile float64
		gamma      float64
		lum        int
		greyWorld  string
	)
	fs.StringVar(&opts.in, "in", "", "Input image (.txt or .bmp)")
	fs.StringVar(&opts.out, "out", "", "Output image, or output directory with -dir (default: <name>_corrected next to the input)")
	fs.StringVar(&opts.dir, "dir", "", "Enhance every .txt and .bmp image of this directory")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.Float64Var(&alpha, "alpha", float64(defaults.Alpha), "Red and blue compensation gain")
	fs.Float64Var(&percentile, "percentile", float64(defaults.Percentile), "Illuminant histogram trim, in percent")
	fs.Float64Var(&gamma, "gamma", float64(defaults.Gamma), "Gamma of the gamma corrected branch")
	fs.IntVar(&lum, "lum", int(defaults.Luminance), "Luminance formula: 0 standard, 1 perceived, 2 perceived exact")
	fs.StringVar(&greyWorld, "grey-world", string(defaults.GreyWorld), "Grey-World variant: robust or simple")
	fs.IntVar(&opts.maxDim, "max-dim", 0, "Downscale inputs so that no side exceeds this size (0 keeps the size)")
	fs.BoolVar(&opts.bmp, "bmp", false, "Write BMP output regardless of the input format")
	fs.IntVar(&opts.concurrency, "concurrency", 1, "Images enhanced in parallel with -dir")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.console, "console", false, "Human readable logs instead of JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (opts.in == "") == (opts.dir == "") {
		return nil, errors.New("exactly one of -in or -dir is required")
	}

	cfg := defaults
	if opts.configPath != "" {
		loaded, err := fusion.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "alpha":
			cfg.Alpha = float32(alpha)
		case "percentile":
			cfg.Percentile = float32(percentile)
		case "gamma":
			cfg.Gamma = float32(gamma)
		case "lum":
			cfg.Luminance = weights.LuminanceOption(lum)
		case "grey-world":
			cfg.GreyWorld = whitebalance.Method(greyWorld)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.cfg = cfg
	return opts, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	log := logger.New(stderr, level)
	if opts.console {
		log = logger.NewConsole(level)
	}
	log = logger.Component(log, "cli")

	timer := profiler.NewStageTimer(0)
	pipeline, err := fusion.NewPipeline(opts.cfg, fusion.WithLogger(log), fusion.WithTimer(timer))
	if err != nil {
		return err
	}
	log.Info().Str("config", opts.cfg.String()).Msg("pipeline ready")

	if opts.dir != "" {
		err = runBatch(ctx, log, pipeline, opts)
	} else {
		err = runSingle(ctx, log, pipeline, opts)
	}
	if err != nil {
		return err
	}

	timer.Report(log)
	return nil
}

func runSingle(ctx context.Context, log zerolog.Logger, pipeline *fusion.Pipeline, opts *options) error {
	img, err := imageio.Read(opts.in)
	if err != nil {
		return err
	}
	if img, err = prepare(img, opts.maxDim); err != nil {
		return err
	}

	enhanced, err := pipeline.Enhance(ctx, img)
	if err != nil {
		return errors.Wrapf(err, "failed to enhance %s", opts.in)
	}

	out := opts.out
	if out == "" {
		out = imageio.CorrectedPath(opts.in, "")
	}
	out = outputPath(out, opts.bmp)
	if err := imageio.Write(out, enhanced); err != nil {
		return err
	}
	log.Info().Str("input", opts.in).Str("output", out).Msg("image written")
	return nil
}

func runBatch(ctx context.Context, log zerolog.Logger, pipeline *fusion.Pipeline, opts *options) error {
	files, err := imageio.LoadDirectory(opts.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn().Str("dir", opts.dir).Msg("no images found")
		return nil
	}

	inputs := make([]*images.Image, len(files))
	for i, f := range files {
		if inputs[i], err = prepare(f.Image, opts.maxDim); err != nil {
			return errors.Wrap(err, f.Path)
		}
	}

	enhanced, err := pipeline.EnhanceBatch(ctx, inputs, opts.concurrency)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := os.MkdirAll(opts.out, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", opts.out)
		}
	}
	for i, f := range files {
		out := outputPath(imageio.CorrectedPath(f.Path, opts.out), opts.bmp)
		if err := imageio.Write(out, enhanced[i]); err != nil {
			return err
		}
		log.Debug().Str("input", f.Path).Str("output", out).Msg("image written")
	}
	log.Info().Int("images", len(files)).Str("dir", opts.dir).Msg("batch written")
	return nil
}

func prepare(img *images.Image, maxDim int) (*images.Image, error) {
	if maxDim <= 0 {
		return img, nil
	}
	return images.Resize(img, maxDim)
}

func outputPath(path string, bmp bool) string {
	if !bmp || strings.EqualFold(filepath.Ext(path), ".bmp") {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".bmp"
}
