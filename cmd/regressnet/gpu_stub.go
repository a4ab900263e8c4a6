//go:build !windows

package main

import (
	"errors"

	"regressnet/internal/dataset"
	"regressnet/internal/trainer"
)

// device.Resolve never picks the GPU on platforms without the WebGPU
// backend, so this is only reachable through a bug.
func runGPU(trainer.RunConfig, *dataset.Splits) error {
	return errors.New("gpu backend not available on this platform")
}
