package trainer

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"regressnet/internal/checkpoint"
	"regressnet/internal/dataset"
	"regressnet/internal/metrics"
	"regressnet/internal/model"
	"regressnet/internal/predict"
	"regressnet/internal/report"
)

// ErrNeverEvaluated reports that training finished without a single
// evaluation pass, leaving nothing to denormalize or report.
var ErrNeverEvaluated = errors.New("trainer: no evaluation ran, no predictions to report")

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	LR             float64
	Epochs         int
	TrainBatchSize int
	TestBatchSize  int
	EvalEvery      int
	Seed           int64
	TargetCol      int
	ModelDir       string
	ReportDir      string
}

// EvalSnapshot holds the whole-split predictions from the most recent
// evaluation pass, in normalized space.
type EvalSnapshot struct {
	Epoch      int
	TrainPreds []float32
	TestPreds  []float32
}

// Run executes the training workload: epochs of mini-batch MSE updates,
// scheduled whole-split evaluations, then the report and checkpoint.
func Run[B tensor.Backend](backend *autodiff.Backend[B], cfg RunConfig, data *dataset.Splits) error {
	if cfg.Epochs <= 0 {
		return fmt.Errorf("trainer: epochs must be > 0 (got %d)", cfg.Epochs)
	}
	if cfg.TrainBatchSize <= 0 {
		return fmt.Errorf("trainer: train batch size must be > 0 (got %d)", cfg.TrainBatchSize)
	}
	if cfg.TestBatchSize <= 0 {
		cfg.TestBatchSize = cfg.TrainBatchSize
	}
	if cfg.EvalEvery <= 0 {
		cfg.EvalEvery = 5
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "."
	}
	if data == nil || data.Train.N == 0 {
		return errors.New("trainer: no training samples")
	}

	mdl, err := model.New(data.Dims.Channels, data.Dims.Height, data.Dims.Width, cfg.Seed, backend)
	if err != nil {
		return err
	}
	criterion := nn.NewMSELoss(backend)
	opt := optim.NewAdam(mdl.Parameters(), optim.AdamConfig{LR: float32(cfg.LR)}, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	rng := rand.New(rand.NewSource(cfg.Seed))
	var window metrics.Window
	var snap *EvalSnapshot

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		mdl.Train()
		for _, indices := range dataset.Batches(data.Train.N, cfg.TrainBatchSize, rng) {
			startData := time.Now()
			images, targets := data.Train.Gather(indices, data.Dims)
			xb, err := tensor.FromSlice(images,
				tensor.Shape{len(indices), data.Dims.Channels, data.Dims.Height, data.Dims.Width}, backend)
			if err != nil {
				return fmt.Errorf("trainer: batch images: %w", err)
			}
			yb, err := tensor.FromSlice(targets, tensor.Shape{len(indices), 1}, backend)
			if err != nil {
				return fmt.Errorf("trainer: batch targets: %w", err)
			}
			dataTime := time.Since(startData)

			startCompute := time.Now()
			loss := trainStep(mdl, criterion, opt, backend, xb, yb)
			computeTime := time.Since(startCompute)

			window.Record(len(indices), dataTime, computeTime, loss)
		}

		epochStats := window.Snapshot()
		log.Printf("epoch=%d avg_loss=%.4f images_per_sec=%.1f data_ms=%.2f compute_ms=%.2f",
			epoch,
			epochStats.AvgLoss,
			epochStats.ImagesPerSec,
			epochStats.AvgDataMS,
			epochStats.AvgComputeMS,
		)

		if !ShouldEvaluate(epoch, cfg.Epochs, cfg.EvalEvery) {
			continue
		}
		s, err := evaluate(mdl, backend, cfg, data, epoch)
		if err != nil {
			return err
		}
		snap = s
		log.Printf("epoch=%d train_rmse=%.2f test_rmse=%.2f train_r2=%.2f test_r2=%.2f",
			epoch,
			metrics.RMSE(data.Train.Targets, s.TrainPreds),
			metrics.RMSE(data.Test.Targets, s.TestPreds),
			metrics.R2(data.Train.Targets, s.TrainPreds),
			metrics.R2(data.Test.Targets, s.TestPreds),
		)
	}

	return writeArtifacts(mdl, cfg, data, snap)
}

// trainStep runs one forward/backward/update cycle and returns the batch
// loss. The MSE mean's gradient is a constant 1/N at every squared
// difference, so the tape is seeded there.
func trainStep[B tensor.Backend](
	mdl *model.ResNet[*autodiff.Backend[B]],
	criterion *nn.MSELoss[*autodiff.Backend[B]],
	opt *optim.Adam[*autodiff.Backend[B]],
	backend *autodiff.Backend[B],
	xb, yb *tensor.Tensor[float32, *autodiff.Backend[B]],
) float64 {
	opt.ZeroGrad()

	preds := mdl.Forward(xb)
	loss := criterion.Forward(preds, yb)
	lossVal := float64(loss.Data()[0])

	seed, err := tensor.NewRaw(preds.Shape(), tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	seedData := seed.AsFloat32()
	inv := 1 / float32(preds.NumElements())
	for i := range seedData {
		seedData[i] = inv
	}

	grads := backend.Tape().Backward(seed, backend)
	opt.Step(grads)
	backend.Tape().Clear()

	return lossVal
}

// evaluate runs the batched predictor over the entire raw train and test
// splits.
func evaluate[B tensor.Backend](
	mdl *model.ResNet[*autodiff.Backend[B]],
	backend *autodiff.Backend[B],
	cfg RunConfig,
	data *dataset.Splits,
	epoch int,
) (*EvalSnapshot, error) {
	trainPreds, err := predict.InBatches(mdl, backend, data.Train.Images, data.Train.N, data.Dims, cfg.TrainBatchSize)
	if err != nil {
		return nil, fmt.Errorf("trainer: evaluate train split: %w", err)
	}
	testPreds, err := predict.InBatches(mdl, backend, data.Test.Images, data.Test.N, data.Dims, cfg.TestBatchSize)
	if err != nil {
		return nil, fmt.Errorf("trainer: evaluate test split: %w", err)
	}
	return &EvalSnapshot{Epoch: epoch, TrainPreds: trainPreds, TestPreds: testPreds}, nil
}

// writeArtifacts denormalizes the last evaluation's predictions, writes the
// workbook and saves the checkpoint. A nil snapshot is a hard error rather
// than a fallthrough.
func writeArtifacts[B tensor.Backend](
	mdl *model.ResNet[*autodiff.Backend[B]],
	cfg RunConfig,
	data *dataset.Splits,
	snap *EvalSnapshot,
) error {
	if snap == nil {
		return ErrNeverEvaluated
	}

	trainTable, err := report.FromNormalized(data.Train.Targets, snap.TrainPreds, data.Stats)
	if err != nil {
		return err
	}
	testTable, err := report.FromNormalized(data.Test.Targets, snap.TestPreds, data.Stats)
	if err != nil {
		return err
	}

	reportPath := report.Path(cfg.ReportDir, cfg.TargetCol)
	if err := report.Write(reportPath, trainTable, testTable); err != nil {
		return err
	}

	path, err := checkpoint.Save(mdl, cfg.ModelDir, cfg.TargetCol, data.Stats)
	if err != nil {
		return err
	}
	log.Printf("model and normalization stats saved to %s", path)
	return nil
}
