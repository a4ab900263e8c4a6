// Package predict runs a model over arbitrarily large inputs in fixed-size
// chunks to bound peak memory.
package predict

import (
	"fmt"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/tensor"

	"regressnet/internal/dataset"
	"regressnet/internal/model"
)

// InBatches runs m over the flat [n, dims] image buffer in chunks of at
// most batchSize and returns one prediction per image.
//
// The model is switched into evaluation mode and left there; gradient
// recording is suspended for the duration and restored afterwards, since
// the tape belongs to the surrounding training loop. n == 0 yields an
// empty result.
func InBatches[B tensor.Backend](
	m *model.ResNet[*autodiff.Backend[B]],
	backend *autodiff.Backend[B],
	images []float32,
	n int,
	dims dataset.Dims,
	batchSize int,
) ([]float32, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("predict: batch size must be > 0 (got %d)", batchSize)
	}
	features := dims.Features()
	if len(images) != n*features {
		return nil, fmt.Errorf("predict: expected %d values for %d images, got %d", n*features, n, len(images))
	}
	if n == 0 {
		return []float32{}, nil
	}

	m.Eval()

	wasRecording := backend.Tape().IsRecording()
	backend.Tape().StopRecording()
	defer func() {
		if wasRecording {
			backend.Tape().StartRecording()
		}
	}()

	out := make([]float32, 0, n)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		count := end - start

		batch, err := tensor.FromSlice(
			images[start*features:end*features],
			tensor.Shape{count, dims.Channels, dims.Height, dims.Width},
			backend,
		)
		if err != nil {
			return nil, fmt.Errorf("predict: batch [%d, %d): %w", start, end, err)
		}

		preds := m.Forward(batch)
		out = append(out, preds.Data()...)
	}

	if len(out) != n {
		return nil, fmt.Errorf("predict: expected %d predictions, got %d", n, len(out))
	}
	return out, nil
}
