package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/label"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

// EnvPrefix prefixes every environment override, e.g. LEAFLABEL_LOG_LEVEL.
const EnvPrefix = "LEAFLABEL"

// Config is the resolved tool configuration.
type Config struct {
	Filters  []string       `mapstructure:"filters"`
	Output   OutputConfig   `mapstructure:"output"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Label    LabelConfig    `mapstructure:"label"`
	Log      LogConfig      `mapstructure:"log"`
}

type OutputConfig struct {
	// Dir is where label files are written.
	Dir string `mapstructure:"dir"`

	// Format selects how commands print results: "text" or "json".
	Format string `mapstructure:"format"`
}

type PipelineConfig struct {
	BlurKernel     int         `mapstructure:"blur_kernel"`
	MorphKernel    int         `mapstructure:"morph_kernel"`
	HSV            HSVConfig   `mapstructure:"hsv"`
	Canny          CannyConfig `mapstructure:"canny"`
	EdgeDilate     int         `mapstructure:"edge_dilate"`
	EdgeErode      int         `mapstructure:"edge_erode"`
	EdgeThreshold  int         `mapstructure:"edge_threshold"`
	AlphaThreshold int         `mapstructure:"alpha_threshold"`
}

// HSVConfig holds the color stage bounds as [h, s, v] triples.
type HSVConfig struct {
	Lower []int `mapstructure:"lower"`
	Upper []int `mapstructure:"upper"`
}

type CannyConfig struct {
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
}

type ClusterConfig struct {
	K        int     `mapstructure:"k"`
	MaxIter  int     `mapstructure:"max_iter"`
	Epsilon  float64 `mapstructure:"epsilon"`
	Attempts int     `mapstructure:"attempts"`
	Seed     uint64  `mapstructure:"seed"`
}

type LabelConfig struct {
	// Approximation is the contour point reduction: "none" or "simple".
	Approximation string `mapstructure:"approximation"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with every key defaulted and environment
// overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultOutputDir is the desktop of the current user, or the working
// directory when no home directory is known.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Desktop")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("filters", []string{})

	v.SetDefault("output.dir", DefaultOutputDir())
	v.SetDefault("output.format", "text")

	p := segment.DefaultParams()
	v.SetDefault("pipeline.blur_kernel", p.BlurKernel)
	v.SetDefault("pipeline.morph_kernel", p.MorphKernel)
	v.SetDefault("pipeline.hsv.lower", hsvTriple(p.HSV.Lower))
	v.SetDefault("pipeline.hsv.upper", hsvTriple(p.HSV.Upper))
	v.SetDefault("pipeline.canny.low", p.CannyLow)
	v.SetDefault("pipeline.canny.high", p.CannyHigh)
	v.SetDefault("pipeline.edge_dilate", p.EdgeDilate)
	v.SetDefault("pipeline.edge_erode", p.EdgeErode)
	v.SetDefault("pipeline.edge_threshold", int(p.EdgeThreshold))
	v.SetDefault("pipeline.alpha_threshold", int(p.AlphaThreshold))

	v.SetDefault("cluster.k", p.Cluster.K)
	v.SetDefault("cluster.max_iter", p.Cluster.MaxIter)
	v.SetDefault("cluster.epsilon", p.Cluster.Epsilon)
	v.SetDefault("cluster.attempts", p.Cluster.Attempts)
	v.SetDefault("cluster.seed", p.Seed)

	v.SetDefault("label.approximation", string(label.ApproxNone))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"filters":       "filters",
	"output":        "output.dir",
	"format":        "output.format",
	"approximation": "label.approximation",
	"seed":          "cluster.seed",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// RegisterFlags adds the shared flags to fs and binds them into v. A flag
// only overrides the environment and config file when it is set explicitly.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("config", "", "path to a YAML or JSON config file")
	fs.StringSlice("filters", nil, "pipeline stages to enable: color,edge,cluster,statistical,alpha,crop")
	fs.StringP("output", "o", "", "directory for label files (default ~/Desktop)")
	fs.String("format", "", "result format: text or json")
	fs.String("approximation", "", "contour point reduction: none or simple")
	fs.Uint64("seed", 0, "random seed for the cluster stage")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: console or json")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the optional config file, applies environment and flag
// overrides and validates the result.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every value can be turned into pipeline settings.
func (c *Config) Validate() error {
	if _, err := c.Stages(); err != nil {
		return err
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := c.Approximation(); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (valid: text, json)", c.Output.Format)
	}
	return nil
}

// Stages returns the enabled pipeline stages.
func (c *Config) Stages() (segment.Config, error) {
	return segment.ParseConfig(c.Filters)
}

// Params returns the stage parameters.
func (c *Config) Params() (segment.Params, error) {
	lower, err := toHSV("pipeline.hsv.lower", c.Pipeline.HSV.Lower)
	if err != nil {
		return segment.Params{}, err
	}
	upper, err := toHSV("pipeline.hsv.upper", c.Pipeline.HSV.Upper)
	if err != nil {
		return segment.Params{}, err
	}
	edge, err := toByte("pipeline.edge_threshold", c.Pipeline.EdgeThreshold)
	if err != nil {
		return segment.Params{}, err
	}
	alpha, err := toByte("pipeline.alpha_threshold", c.Pipeline.AlphaThreshold)
	if err != nil {
		return segment.Params{}, err
	}

	p := segment.Params{
		BlurKernel:     c.Pipeline.BlurKernel,
		MorphKernel:    c.Pipeline.MorphKernel,
		HSV:            imaging.HSVRange{Lower: lower, Upper: upper},
		CannyLow:       c.Pipeline.Canny.Low,
		CannyHigh:      c.Pipeline.Canny.High,
		EdgeDilate:     c.Pipeline.EdgeDilate,
		EdgeErode:      c.Pipeline.EdgeErode,
		EdgeThreshold:  edge,
		AlphaThreshold: alpha,
		Cluster: imaging.KMeansOptions{
			K:        c.Cluster.K,
			MaxIter:  c.Cluster.MaxIter,
			Epsilon:  c.Cluster.Epsilon,
			Attempts: c.Cluster.Attempts,
		},
		Seed: c.Cluster.Seed,
	}
	if err := p.Validate(); err != nil {
		return segment.Params{}, err
	}
	return p, nil
}

// Approximation returns the contour point reduction mode.
func (c *Config) Approximation() (label.Approximation, error) {
	return label.ParseApproximation(c.Label.Approximation)
}

func hsvTriple(c imaging.HSV) []int {
	return []int{int(c.H), int(c.S), int(c.V)}
}

func toHSV(key string, v []int) (imaging.HSV, error) {
	if len(v) != 3 {
		return imaging.HSV{}, fmt.Errorf("%s must have 3 values (h, s, v), got %d", key, len(v))
	}
	if v[0] < 0 || v[0] > 179 {
		return imaging.HSV{}, fmt.Errorf("%s hue must be within 0-179, got %d", key, v[0])
	}
	s, err := toByte(key, v[1])
	if err != nil {
		return imaging.HSV{}, err
	}
	val, err := toByte(key, v[2])
	if err != nil {
		return imaging.HSV{}, err
	}
	return imaging.HSV{H: uint8(v[0]), S: s, V: val}, nil
}

func toByte(key string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%s must be within 0-255, got %d", key, v)
	}
	return uint8(v), nil
}
