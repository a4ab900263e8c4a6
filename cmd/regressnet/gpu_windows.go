//go:build windows

package main

import (
	"fmt"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/webgpu"

	"regressnet/internal/dataset"
	"regressnet/internal/trainer"
)

func runGPU(cfg trainer.RunConfig, data *dataset.Splits) error {
	gpu, err := webgpu.New()
	if err != nil {
		return fmt.Errorf("init WebGPU backend: %w", err)
	}
	defer gpu.Release()
	return trainer.Run(autodiff.New(gpu), cfg, data)
}
