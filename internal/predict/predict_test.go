package predict

import (
	"math/rand"
	"testing"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regressnet/internal/dataset"
	"regressnet/internal/model"
)

var testDims = dataset.Dims{Channels: 1, Height: 8, Width: 8}

func setup(t *testing.T, n int) (*model.ResNet[*autodiff.Backend[*cpu.Backend]], *autodiff.Backend[*cpu.Backend], []float32) {
	t.Helper()
	backend := autodiff.New(cpu.New())
	m, err := model.New(testDims.Channels, testDims.Height, testDims.Width, 42, backend)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	images := make([]float32, n*testDims.Features())
	for i := range images {
		images[i] = rng.Float32()
	}
	return m, backend, images
}

func TestInBatchesMatchesWholeRun(t *testing.T) {
	const n = 10
	m, backend, images := setup(t, n)

	whole, err := InBatches(m, backend, images, n, testDims, n)
	require.NoError(t, err)
	require.Len(t, whole, n)

	for _, batchSize := range []int{1, 3, 4, 16} {
		chunked, err := InBatches(m, backend, images, n, testDims, batchSize)
		require.NoError(t, err)
		assert.InDeltaSlice(t, whole, chunked, 1e-5, "batch size %d", batchSize)
	}
}

func TestInBatchesEmpty(t *testing.T) {
	m, backend, _ := setup(t, 0)
	out, err := InBatches(m, backend, nil, 0, testDims, 4)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInBatchesRejectsBadInput(t *testing.T) {
	m, backend, images := setup(t, 2)

	_, err := InBatches(m, backend, images, 2, testDims, 0)
	assert.Error(t, err)

	_, err = InBatches(m, backend, images[:10], 2, testDims, 4)
	assert.Error(t, err)
}

func TestInBatchesLeavesModelInEval(t *testing.T) {
	m, backend, images := setup(t, 2)
	m.Train()

	_, err := InBatches(m, backend, images, 2, testDims, 2)
	require.NoError(t, err)
	assert.False(t, m.Training())
}

func TestInBatchesRestoresRecording(t *testing.T) {
	m, backend, images := setup(t, 2)

	backend.Tape().StartRecording()
	_, err := InBatches(m, backend, images, 2, testDims, 2)
	require.NoError(t, err)
	assert.True(t, backend.Tape().IsRecording())
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	_, err = InBatches(m, backend, images, 2, testDims, 2)
	require.NoError(t, err)
	assert.False(t, backend.Tape().IsRecording())
}
