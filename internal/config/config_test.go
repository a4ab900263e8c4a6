package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
lr: 0.001
num_epochs: 20
train_batch_size: 16
target_col: 2
seed: 7

data:
  images_dir: /data/images
  labels_csv: /data/labels.csv
  channels: 3
  image_height: 64
  image_width: 64
  test_fraction: 0.25
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.LR)
	assert.Equal(t, 20, cfg.NumEpochs)
	assert.Equal(t, 2, cfg.TargetCol)
	assert.Equal(t, int64(7), cfg.Seed)

	// Defaults filled during validation.
	assert.Equal(t, 16, cfg.TestBatchSize)
	assert.Equal(t, 5, cfg.EvalEvery)
	assert.Equal(t, "auto", cfg.Device)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, ".", cfg.ReportDir)
	assert.Equal(t, 4, cfg.Data.NumWorkers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero epochs", func(c *Config) { c.NumEpochs = 0 }},
		{"negative lr", func(c *Config) { c.LR = -1 }},
		{"zero batch", func(c *Config) { c.TrainBatchSize = 0 }},
		{"negative target col", func(c *Config) { c.TargetCol = -1 }},
		{"bad device", func(c *Config) { c.Device = "tpu" }},
		{"no images dir", func(c *Config) { c.Data.ImagesDir = "" }},
		{"no labels csv", func(c *Config) { c.Data.LabelsCSV = "" }},
		{"bad channels", func(c *Config) { c.Data.Channels = 2 }},
		{"odd image size", func(c *Config) { c.Data.ImageHeight = 30 }},
		{"bad test fraction", func(c *Config) { c.Data.TestFraction = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.ApplyOverrides(Overrides{
		NumEpochs: 3,
		BatchSize: 8,
		TargetCol: 0,
		Device:    "cpu",
		ModelDir:  "out",
	})

	assert.Equal(t, 3, cfg.NumEpochs)
	assert.Equal(t, 8, cfg.TrainBatchSize)
	assert.Equal(t, 0, cfg.TargetCol)
	assert.Equal(t, "cpu", cfg.Device)
	assert.Equal(t, "out", cfg.ModelDir)

	// Zero values leave the config untouched; -1 means "target not set".
	cfg.ApplyOverrides(Overrides{TargetCol: -1})
	assert.Equal(t, 0, cfg.TargetCol)
	assert.Equal(t, 3, cfg.NumEpochs)
}
