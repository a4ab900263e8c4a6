package main

import (
	"flag"
	"log"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"

	"regressnet/internal/config"
	"regressnet/internal/dataset"
	"regressnet/internal/device"
	"regressnet/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/default.yaml", "Path to YAML config")
	imagesDir := flag.String("images-dir", "", "Override images directory")
	labelsCSV := flag.String("labels-csv", "", "Override labels CSV path")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	batchSize := flag.Int("batch-size", 0, "Training batch size")
	targetCol := flag.Int("target-col", -1, "Target column index")
	seed := flag.Int64("seed", 0, "PRNG seed")
	dev := flag.String("device", "", "Compute device: auto, cpu or gpu")
	modelDir := flag.String("model-dir", "", "Checkpoint output directory")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		ImagesDir: *imagesDir,
		LabelsCSV: *labelsCSV,
		NumEpochs: *epochs,
		BatchSize: *batchSize,
		TargetCol: *targetCol,
		Seed:      *seed,
		Device:    *dev,
		ModelDir:  *modelDir,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	resolved, err := device.Resolve(cfg.Device)
	if err != nil {
		log.Fatalf("resolve device: %v", err)
	}
	log.Printf("using device %s", resolved)

	data, err := dataset.Load(dataset.LoadOptions{
		ImagesDir: cfg.Data.ImagesDir,
		LabelsCSV: cfg.Data.LabelsCSV,
		TargetCol: cfg.TargetCol,
		Dims: dataset.Dims{
			Channels: cfg.Data.Channels,
			Height:   cfg.Data.ImageHeight,
			Width:    cfg.Data.ImageWidth,
		},
		TestFraction: cfg.Data.TestFraction,
		Seed:         cfg.Seed,
		NumWorkers:   cfg.Data.NumWorkers,
	})
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	log.Printf("dataset loaded train=%d test=%d mean=%.4f std=%.4f",
		data.Train.N, data.Test.N, data.Stats.Mean, data.Stats.Std)

	runCfg := trainer.RunConfig{
		LR:             cfg.LR,
		Epochs:         cfg.NumEpochs,
		TrainBatchSize: cfg.TrainBatchSize,
		TestBatchSize:  cfg.TestBatchSize,
		EvalEvery:      cfg.EvalEvery,
		Seed:           cfg.Seed,
		TargetCol:      cfg.TargetCol,
		ModelDir:       cfg.ModelDir,
		ReportDir:      cfg.ReportDir,
	}

	var runErr error
	switch resolved {
	case device.GPU:
		runErr = runGPU(runCfg, data)
	default:
		runErr = trainer.Run(autodiff.New(cpu.New()), runCfg, data)
	}
	if runErr != nil {
		log.Fatalf("training failed: %v", runErr)
	}
}
