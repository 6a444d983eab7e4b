package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/leaf-label-tools/internal/label"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, segment.DefaultParams(), params)

	stages, err := cfg.Stages()
	require.NoError(t, err)
	assert.True(t, stages.Empty())

	approx, err := cfg.Approximation()
	require.NoError(t, err)
	assert.Equal(t, label.ApproxNone, approx)

	assert.Equal(t, DefaultOutputDir(), cfg.Output.Dir)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaflabel.yaml")
	content := `
filters: [edge, cropToMask]
output:
  dir: /tmp/labels
pipeline:
  canny:
    low: 30
    high: 120
  hsv:
    lower: [25, 40, 40]
cluster:
  k: 3
label:
  approximation: simple
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	stages, err := cfg.Stages()
	require.NoError(t, err)
	assert.Equal(t, []segment.StageName{segment.StageEdge, segment.StageCrop}, stages.Stages())

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 30.0, params.CannyLow)
	assert.Equal(t, 120.0, params.CannyHigh)
	assert.Equal(t, uint8(25), params.HSV.Lower.H)
	assert.Equal(t, uint8(255), params.HSV.Upper.S)
	assert.Equal(t, 3, params.Cluster.K)
	assert.Equal(t, 5, params.BlurKernel)

	approx, err := cfg.Approximation()
	require.NoError(t, err)
	assert.Equal(t, label.ApproxSimple, approx)
	assert.Equal(t, "/tmp/labels", cfg.Output.Dir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEAFLABEL_FILTERS", "statistical,crop")
	t.Setenv("LEAFLABEL_CLUSTER_SEED", "42")
	t.Setenv("LEAFLABEL_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	stages, err := cfg.Stages()
	require.NoError(t, err)
	assert.True(t, stages.Enabled(segment.StageStatistical))
	assert.True(t, stages.Enabled(segment.StageCrop))
	assert.False(t, stages.Enabled(segment.StageColor))

	assert.Equal(t, uint64(42), cfg.Cluster.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaflabel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cluster": {"k": 3, "seed": 1}}`), 0o644))
	t.Setenv("LEAFLABEL_CLUSTER_K", "4")
	t.Setenv("LEAFLABEL_CLUSTER_SEED", "5")

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--seed", "9", "-o", "/data/out", "--filters", "color", "--filters", "alpha"}))

	cfg, err := Load(v, path)
	require.NoError(t, err)

	// Environment beats the file, flags beat the environment.
	assert.Equal(t, 4, cfg.Cluster.K)
	assert.Equal(t, uint64(9), cfg.Cluster.Seed)
	assert.Equal(t, "/data/out", cfg.Output.Dir)
	assert.Equal(t, []string{"color", "alpha"}, cfg.Filters)
}

func TestLoad_UnsetFlagsKeepDefaults(t *testing.T) {
	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(v, fs))
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, DefaultOutputDir(), cfg.Output.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"unknown stage", "filters", []string{"sepia"}},
		{"unknown approximation", "label.approximation", "douglas-peucker"},
		{"short hsv bound", "pipeline.hsv.lower", []int{1, 2}},
		{"hue out of range", "pipeline.hsv.upper", []int{200, 255, 255}},
		{"edge threshold out of range", "pipeline.edge_threshold", 300},
		{"even blur kernel", "pipeline.blur_kernel", 4},
		{"single cluster", "cluster.k", 1},
		{"unknown output format", "output.format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)

			cfg, err := Load(v, "")
			assert.Nil(t, cfg)
			assert.Error(t, err)
		})
	}
}
