package fusion

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/images/kernels"
	"github.com/nvr-ai/go-uwfusion/logger"
	"github.com/nvr-ai/go-uwfusion/profiler"
	"github.com/nvr-ai/go-uwfusion/sharpen"
	"github.com/nvr-ai/go-uwfusion/weights"
	"github.com/nvr-ai/go-uwfusion/whitebalance"
)

// Stage names used for timing, logging and error wrapping.
const (
	StageWhiteBalance = "white balance"
	StageGammaWeights = "gamma weights"
	StageSharpWeights = "sharp weights"
	StageFusion       = "fusion"
)

// Pipeline enhances underwater images. It holds no per-image state, so one
// Pipeline may serve concurrent calls. The padded correlation buffers are
// pooled across calls.
type Pipeline struct {
	cfg   Config
	log   zerolog.Logger
	timer *profiler.StageTimer
	pool  *kernels.Pool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = logger.Component(log, "fusion")
	}
}

// WithTimer sets the stage timer. The default is a fresh StageTimer.
func WithTimer(timer *profiler.StageTimer) Option {
	return func(p *Pipeline) {
		if timer != nil {
			p.timer = timer
		}
	}
}

// NewPipeline validates cfg and creates a Pipeline.
//
// Arguments:
// - cfg: The pipeline configuration.
// - opts: Logger and timer overrides.
//
// Returns:
// - The pipeline.
// - error if the configuration is invalid.
//
// @example
// p, err := NewPipeline(DefaultConfig(), WithLogger(log))
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:   cfg,
		log:   logger.Nop(),
		timer: profiler.NewStageTimer(0),
		pool:  &kernels.Pool{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Timer returns the stage timer.
func (p *Pipeline) Timer() *profiler.StageTimer { return p.timer }

// stage times fn under name and logs its start and finish.
func (p *Pipeline) stage(name string, fn func() error) error {
	p.log.Debug().Str("stage", name).Msg("stage started")
	done := p.timer.Track(name)
	err := fn()
	elapsed := done()
	if err != nil {
		return errors.Wrap(err, name)
	}
	p.log.Info().Str("stage", name).Dur("elapsed", elapsed).Msg("stage finished")
	return nil
}

// branchFunc derives a fusion branch from the white balanced image.
type branchFunc func(white *images.Image, kopt kernels.Options) (*images.Image, error)

// branch builds one fusion branch from the white balanced image and returns
// its weight maps.
func (p *Pipeline) branch(ctx context.Context, name string, white *images.Image, build branchFunc) (*weights.Maps, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kopt := kernels.NewOptions(white.Height, p.pool)

	var maps *weights.Maps
	err := p.stage(name, func() error {
		processed, err := build(white, kopt)
		if err != nil {
			return err
		}
		maps, err = weights.Compute(processed, p.cfg.Luminance, kopt)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(maps.Degenerate) > 0 {
		p.log.Warn().Str("stage", name).Strs("maps", mapNames(maps.Degenerate)).Msg("weight map has zero maximum")
	}
	return maps, nil
}

// Enhance runs the full enhancement on a copy of img: white balance, the
// gamma and sharpened weight branches and the weighted fusion.
//
// Arguments:
// - ctx: Cancels the run between stages.
// - img: The input image with values in [0,1]. It is not modified.
//
// Returns:
// - The enhanced image, clamped to [0,1] when Config.Clamp is set.
// - error wrapping the failing stage name.
func (p *Pipeline) Enhance(ctx context.Context, img *images.Image) (*images.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	white := img.Clone()
	err := p.stage(StageWhiteBalance, func() error {
		res, err := whitebalance.Apply(white, p.cfg.WhiteBalance())
		if err != nil {
			return err
		}
		if len(res.Degenerate) > 0 {
			p.log.Warn().Ints("channels", channelIndexes(res.Degenerate)).Msg("illuminant estimate is empty")
		}
		p.log.Debug().Floats32("illuminant", res.Illuminant[:]).Msg("illuminant estimated")
		return nil
	})
	if err != nil {
		return nil, err
	}

	gammaBranch := func(w *images.Image, _ kernels.Options) (*images.Image, error) {
		return images.CorrectGamma(w, p.cfg.Gamma)
	}

	var gammaMaps, sharpMaps *weights.Maps
	if p.cfg.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			gammaMaps, err = p.branch(gctx, StageGammaWeights, white, gammaBranch)
			return err
		})
		g.Go(func() error {
			var err error
			sharpMaps, err = p.branch(gctx, StageSharpWeights, white, sharpen.UnsharpMask)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		if gammaMaps, err = p.branch(ctx, StageGammaWeights, white, gammaBranch); err != nil {
			return nil, err
		}
		if sharpMaps, err = p.branch(ctx, StageSharpWeights, white, sharpen.UnsharpMask); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fused *images.Image
	err = p.stage(StageFusion, func() error {
		var err error
		fused, err = Fuse(white, gammaMaps.Combined, sharpMaps.Combined, p.cfg.Regularization)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p.cfg.Clamp {
		fused.Clamp()
	}

	p.log.Info().Int("width", fused.Width).Int("height", fused.Height).Msg("image enhanced")
	return fused, nil
}

// EnhanceBatch enhances independent images with at most concurrency runs in
// flight. Results keep the order of imgs. The first failure cancels the
// remaining runs.
//
// Arguments:
// - ctx: Cancels the batch.
// - imgs: The input images.
// - concurrency: Maximum parallel runs; non-positive means one.
//
// Returns:
// - The enhanced images.
// - error naming the index of the first image that failed.
func (p *Pipeline) EnhanceBatch(ctx context.Context, imgs []*images.Image, concurrency int) ([]*images.Image, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	out := make([]*images.Image, len(imgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, img := range imgs {
		i, img := i, img
		g.Go(func() error {
			enhanced, err := p.Enhance(gctx, img)
			if err != nil {
				return errors.Wrapf(err, "image %d", i)
			}
			out[i] = enhanced
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.log.Info().Int("images", len(imgs)).Int("concurrency", concurrency).Msg("batch enhanced")
	return out, nil
}

func mapNames(maps []weights.Map) []string {
	names := make([]string, len(maps))
	for i, m := range maps {
		names[i] = string(m)
	}
	return names
}

func channelIndexes(channels []images.Channel) []int {
	idx := make([]int, len(channels))
	for i, c := range channels {
		idx[i] = int(c)
	}
	return idx
}
