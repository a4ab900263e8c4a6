package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Stats holds the normalization statistics computed over the training
// targets. The same pair must denormalize every prediction and label made
// with the model they were computed for.
type Stats struct {
	Mean float64
	Std  float64
}

// Normalize maps a raw target into normalized space.
func (s Stats) Normalize(v float64) float32 {
	return float32((v - s.Mean) / s.Std)
}

// Denormalize maps a normalized value back to the original scale.
func (s Stats) Denormalize(v float32) float64 {
	return float64(v)*s.Std + s.Mean
}

// Split holds one full data split: a flat [N, C, H, W] image buffer and the
// normalized targets, one per sample.
type Split struct {
	Images  []float32
	Targets []float32
	N       int
}

// Gather copies the samples at indices into fresh contiguous buffers,
// ready to back a batch tensor.
func (s *Split) Gather(indices []int, dims Dims) ([]float32, []float32) {
	features := dims.Features()
	images := make([]float32, 0, len(indices)*features)
	targets := make([]float32, 0, len(indices))
	for _, idx := range indices {
		images = append(images, s.Images[idx*features:(idx+1)*features]...)
		targets = append(targets, s.Targets[idx])
	}
	return images, targets
}

// Splits bundles the train/test splits with their shared shape and
// normalization statistics.
type Splits struct {
	Train Split
	Test  Split
	Stats Stats
	Dims  Dims
}

func makeSplits(samples []Sample, dims Dims, testFraction float64, seed int64) (*Splits, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0, 1) (got %g)", testFraction)
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})

	numTest := int(float64(len(samples)) * testFraction)
	if numTest == 0 {
		numTest = 1
	}
	numTrain := len(samples) - numTest
	if numTrain == 0 {
		return nil, fmt.Errorf("split leaves no training samples (%d total, test fraction %g)", len(samples), testFraction)
	}

	stats := computeStats(samples[:numTrain])
	return &Splits{
		Train: buildSplit(samples[:numTrain], dims, stats),
		Test:  buildSplit(samples[numTrain:], dims, stats),
		Stats: stats,
		Dims:  dims,
	}, nil
}

func computeStats(train []Sample) Stats {
	mean := 0.0
	for _, s := range train {
		mean += s.Target
	}
	mean /= float64(len(train))

	variance := 0.0
	for _, s := range train {
		d := s.Target - mean
		variance += d * d
	}
	variance /= float64(len(train))

	std := math.Sqrt(variance)
	if std == 0 {
		// Constant targets; keep the transform invertible.
		std = 1
	}
	return Stats{Mean: mean, Std: std}
}

func buildSplit(samples []Sample, dims Dims, stats Stats) Split {
	features := dims.Features()
	split := Split{
		Images:  make([]float32, 0, len(samples)*features),
		Targets: make([]float32, 0, len(samples)),
		N:       len(samples),
	}
	for _, s := range samples {
		split.Images = append(split.Images, s.Image...)
		split.Targets = append(split.Targets, stats.Normalize(s.Target))
	}
	return split
}

// Batches partitions [0, n) into index batches of at most batchSize. A nil
// rng yields sequential order; otherwise the order is shuffled. The last
// batch may be short.
func Batches(n, batchSize int, rng *rand.Rand) [][]int {
	if n <= 0 || batchSize <= 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	batches := make([][]int, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		batches = append(batches, order[start:end])
	}
	return batches
}
