// Package device resolves the compute device for a run. Resolution happens
// once at process start; the result is passed explicitly to everything that
// allocates tensors.
package device

import (
	"errors"
	"fmt"
)

// Device names a compute backend choice.
type Device string

const (
	// CPU is the pure-Go CPU backend.
	CPU Device = "cpu"
	// GPU is the WebGPU backend, available on platforms where the
	// framework ships it.
	GPU Device = "gpu"
)

// Resolve picks the device for pref ("auto", "cpu" or "gpu"). "auto" takes
// the GPU when one is usable and falls back to the CPU otherwise; "gpu"
// fails instead of falling back.
func Resolve(pref string) (Device, error) {
	switch pref {
	case "cpu":
		return CPU, nil
	case "gpu":
		if !gpuAvailable() {
			return "", errors.New("device: gpu requested but no usable WebGPU backend")
		}
		return GPU, nil
	case "auto", "":
		if gpuAvailable() {
			return GPU, nil
		}
		return CPU, nil
	default:
		return "", fmt.Errorf("device: unknown preference %q", pref)
	}
}
