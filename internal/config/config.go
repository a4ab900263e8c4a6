package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DataConfig describes where samples come from and how images are shaped.
type DataConfig struct {
	ImagesDir    string  `yaml:"images_dir"`
	LabelsCSV    string  `yaml:"labels_csv"`
	Channels     int     `yaml:"channels"`
	ImageHeight  int     `yaml:"image_height"`
	ImageWidth   int     `yaml:"image_width"`
	TestFraction float64 `yaml:"test_fraction"`
	NumWorkers   int     `yaml:"num_workers"`
}

// Config captures the runtime knobs for a training run.
type Config struct {
	LR             float64    `yaml:"lr"`
	NumEpochs      int        `yaml:"num_epochs"`
	TrainBatchSize int        `yaml:"train_batch_size"`
	TestBatchSize  int        `yaml:"test_batch_size"`
	TargetCol      int        `yaml:"target_col"`
	EvalEvery      int        `yaml:"eval_every"`
	Seed           int64      `yaml:"seed"`
	Device         string     `yaml:"device"`
	ModelDir       string     `yaml:"model_dir"`
	ReportDir      string     `yaml:"report_dir"`
	Data           DataConfig `yaml:"data"`
}

// Overrides captures CLI supplied values. TargetCol uses -1 for "not set"
// because column 0 is a valid selection.
type Overrides struct {
	ImagesDir string
	LabelsCSV string
	NumEpochs int
	BatchSize int
	TargetCol int
	Seed      int64
	Device    string
	ModelDir  string
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.ImagesDir != "" {
		c.Data.ImagesDir = o.ImagesDir
	}
	if o.LabelsCSV != "" {
		c.Data.LabelsCSV = o.LabelsCSV
	}
	if o.NumEpochs > 0 {
		c.NumEpochs = o.NumEpochs
	}
	if o.BatchSize > 0 {
		c.TrainBatchSize = o.BatchSize
	}
	if o.TargetCol >= 0 {
		c.TargetCol = o.TargetCol
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.ModelDir != "" {
		c.ModelDir = o.ModelDir
	}
}

// Validate verifies the config is runnable, filling defaults where a zero
// value has an obvious meaning.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be > 0 (got %g)", c.LR)
	}
	if c.NumEpochs <= 0 {
		return fmt.Errorf("num_epochs must be > 0 (got %d)", c.NumEpochs)
	}
	if c.TrainBatchSize <= 0 {
		return fmt.Errorf("train_batch_size must be > 0 (got %d)", c.TrainBatchSize)
	}
	if c.TestBatchSize <= 0 {
		c.TestBatchSize = c.TrainBatchSize
	}
	if c.TargetCol < 0 {
		return fmt.Errorf("target_col must be >= 0 (got %d)", c.TargetCol)
	}
	if c.EvalEvery <= 0 {
		c.EvalEvery = 5
	}
	if c.Device == "" {
		c.Device = "auto"
	}
	switch c.Device {
	case "auto", "cpu", "gpu":
	default:
		return fmt.Errorf("device must be auto, cpu or gpu (got %q)", c.Device)
	}
	if c.ModelDir == "" {
		c.ModelDir = "models"
	}
	if c.ReportDir == "" {
		c.ReportDir = "."
	}
	if c.Data.ImagesDir == "" {
		return errors.New("data.images_dir must be set")
	}
	if c.Data.LabelsCSV == "" {
		return errors.New("data.labels_csv must be set")
	}
	if c.Data.Channels != 1 && c.Data.Channels != 3 {
		return fmt.Errorf("data.channels must be 1 or 3 (got %d)", c.Data.Channels)
	}
	if c.Data.ImageHeight <= 0 || c.Data.ImageWidth <= 0 {
		return fmt.Errorf("image dimensions must be > 0 (got %dx%d)", c.Data.ImageHeight, c.Data.ImageWidth)
	}
	// The network downsamples twice by a factor of two.
	if c.Data.ImageHeight%4 != 0 || c.Data.ImageWidth%4 != 0 {
		return fmt.Errorf("image dimensions must be divisible by 4 (got %dx%d)", c.Data.ImageHeight, c.Data.ImageWidth)
	}
	if c.Data.TestFraction <= 0 || c.Data.TestFraction >= 1 {
		return fmt.Errorf("data.test_fraction must be in (0, 1) (got %g)", c.Data.TestFraction)
	}
	if c.Data.NumWorkers <= 0 {
		c.Data.NumWorkers = 4
	}
	return nil
}
