package fusion

import (
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-uwfusion/images"
	"github.com/nvr-ai/go-uwfusion/weights"
	"github.com/nvr-ai/go-uwfusion/whitebalance"
)

// DefaultGamma is the exponent of the gamma corrected branch.
const DefaultGamma = 1.2

// Config holds the tunables of a Pipeline.
type Config struct {
	// Alpha is the gain of the red and blue channel compensation.
	Alpha float32 `json:"alpha" yaml:"alpha"`
	// Percentile is trimmed from each end of the illuminant histograms, in [0,50).
	Percentile float32 `json:"percentile" yaml:"percentile"`
	// Gamma is the exponent of the gamma corrected branch.
	Gamma float32 `json:"gamma" yaml:"gamma"`
	// Luminance selects the luminance formula of the weight maps (0, 1 or 2).
	Luminance weights.LuminanceOption `json:"luminance" yaml:"luminance"`
	// Regularization is the additive smoothing of the fusion weights.
	Regularization float32 `json:"regularization" yaml:"regularization"`
	// GreyWorld selects the Grey-World variant, "robust" or "simple".
	GreyWorld whitebalance.Method `json:"grey_world" yaml:"grey_world"`
	// Concurrent runs the gamma and sharp branches on separate goroutines.
	Concurrent bool `json:"concurrent" yaml:"concurrent"`
	// Clamp confines the fused output to [0,1].
	Clamp bool `json:"clamp" yaml:"clamp"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Alpha:          1,
		Percentile:     whitebalance.DefaultPercentile,
		Gamma:          DefaultGamma,
		Luminance:      weights.DefaultLuminance,
		Regularization: DefaultRegularization,
		GreyWorld:      whitebalance.MethodRobust,
		Concurrent:     true,
		Clamp:          true,
	}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	switch {
	case math32.IsNaN(c.Alpha) || math32.IsInf(c.Alpha, 0):
		return errors.Wrapf(images.ErrInvalidArgument, "alpha must be finite, got %v", c.Alpha)
	case math32.IsNaN(c.Percentile) || c.Percentile < 0 || c.Percentile >= 50:
		return errors.Wrapf(images.ErrInvalidArgument, "percentile must be in [0,50), got %v", c.Percentile)
	case math32.IsNaN(c.Gamma) || c.Gamma <= 0:
		return errors.Wrapf(images.ErrInvalidArgument, "gamma must be positive, got %v", c.Gamma)
	case !c.Luminance.Valid():
		return errors.Wrapf(images.ErrInvalidArgument, "unknown luminance option %d", int(c.Luminance))
	case math32.IsNaN(c.Regularization) || c.Regularization < 0:
		return errors.Wrapf(images.ErrInvalidArgument, "regularization must be non-negative, got %v", c.Regularization)
	}
	switch c.GreyWorld {
	case whitebalance.MethodRobust, whitebalance.MethodSimple, "":
	default:
		return errors.Wrapf(images.ErrInvalidArgument, "unknown grey world method %q", c.GreyWorld)
	}
	return nil
}

// WhiteBalance returns the white balance options derived from c.
func (c Config) WhiteBalance() whitebalance.Options {
	return whitebalance.Options{
		Alpha:      c.Alpha,
		Percentile: c.Percentile,
		Method:     c.GreyWorld,
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
// Fields absent from the file keep their default.
//
// Arguments:
// - path: The YAML file.
//
// Returns:
// - The configuration.
// - error if the file cannot be read or parsed, or a value is out of range.
//
// @example
// cfg, err := LoadConfig("uwfusion.yaml")
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// String describes the configuration for logs.
func (c Config) String() string {
	return fmt.Sprintf("alpha=%g percentile=%g gamma=%g luminance=%s regularization=%g grey_world=%s concurrent=%t clamp=%t",
		c.Alpha, c.Percentile, c.Gamma, c.Luminance, c.Regularization, c.GreyWorld, c.Concurrent, c.Clamp)
}
