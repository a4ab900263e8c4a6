// Package checkpoint persists model parameters together with the
// normalization statistics needed to use them later.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"

	"regressnet/internal/dataset"
)

const modelType = "ResNetRegressor"

// Path returns the checkpoint location for a target column.
func Path(modelDir string, targetCol int) string {
	return filepath.Join(modelDir, fmt.Sprintf("model%d.born", targetCol))
}

// Save writes the module's parameters and the normalization stats to
// {modelDir}/model{targetCol}.born, creating modelDir if absent. An
// existing file at that path is overwritten.
func Save[B tensor.Backend](m nn.Module[B], modelDir string, targetCol int, stats dataset.Stats) (string, error) {
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("checkpoint: create %s: %w", modelDir, err)
	}
	path := Path(modelDir, targetCol)
	meta := map[string]string{
		"mean":       strconv.FormatFloat(stats.Mean, 'g', -1, 64),
		"std":        strconv.FormatFloat(stats.Std, 'g', -1, 64),
		"target_col": strconv.Itoa(targetCol),
	}
	if err := nn.Save(m, path, modelType, meta); err != nil {
		return "", fmt.Errorf("checkpoint: save %s: %w", path, err)
	}
	return path, nil
}

// Load restores parameters from path into m and returns the normalization
// stats stored alongside them.
func Load[B tensor.Backend](path string, backend B, m nn.Module[B]) (dataset.Stats, error) {
	header, err := nn.Load(path, backend, m)
	if err != nil {
		return dataset.Stats{}, fmt.Errorf("checkpoint: load %s: %w", path, err)
	}
	mean, err := strconv.ParseFloat(header.Metadata["mean"], 64)
	if err != nil {
		return dataset.Stats{}, fmt.Errorf("checkpoint: %s has no usable mean: %w", path, err)
	}
	std, err := strconv.ParseFloat(header.Metadata["std"], 64)
	if err != nil {
		return dataset.Stats{}, fmt.Errorf("checkpoint: %s has no usable std: %w", path, err)
	}
	return dataset.Stats{Mean: mean, Std: std}, nil
}
