//go:build !windows

package device

// The framework only ships its WebGPU backend on Windows.
func gpuAvailable() bool {
	return false
}
