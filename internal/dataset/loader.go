package dataset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"
	"sync/atomic"
)

// Dims describes the fixed shape every decoded image is resampled to.
type Dims struct {
	Channels int
	Height   int
	Width    int
}

// Features returns the number of float values per image.
func (d Dims) Features() int {
	return d.Channels * d.Height * d.Width
}

// Sample is one decoded image paired with its raw (unnormalized) target.
type Sample struct {
	Image  []float32
	Target float64
}

// LoadOptions configures Load.
type LoadOptions struct {
	ImagesDir    string
	LabelsCSV    string
	TargetCol    int
	Dims         Dims
	TestFraction float64
	Seed         int64
	NumWorkers   int
}

// Load builds the train/test splits: reads the label CSV, pairs every row
// with a discovered image file, decodes images on a bounded worker pool,
// then shuffles, splits and normalizes targets.
func Load(opts LoadOptions) (*Splits, error) {
	labels, err := LoadLabels(opts.LabelsCSV, opts.TargetCol)
	if err != nil {
		return nil, err
	}
	images, err := DiscoverImages(opts.ImagesDir)
	if err != nil {
		return nil, err
	}

	samples, err := decodeAll(labels, images, opts.Dims, opts.NumWorkers)
	if err != nil {
		return nil, err
	}

	return makeSplits(samples, opts.Dims, opts.TestFraction, opts.Seed)
}

type decodeJob struct {
	index int
	path  string
}

func decodeAll(labels []Label, images map[string]string, dims Dims, numWorkers int) ([]Sample, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labeled samples")
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	jobs := make([]decodeJob, len(labels))
	for i, label := range labels {
		path, ok := images[label.File]
		if !ok {
			return nil, fmt.Errorf("no image file for labeled sample %s", label.File)
		}
		jobs[i] = decodeJob{index: i, path: path}
	}

	samples := make([]Sample, len(labels))
	jobCh := make(chan decodeJob)
	errCh := make(chan error, numWorkers)

	var failed atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Keep draining after a failure so the producer never blocks.
			for job := range jobCh {
				if failed.Load() {
					continue
				}
				features, err := decodeImage(job.path, dims)
				if err != nil {
					failed.Store(true)
					select {
					case errCh <- fmt.Errorf("decode %s: %w", job.path, err):
					default:
					}
					continue
				}
				// Each worker writes a distinct index; no locking needed.
				samples[job.index] = Sample{Image: features, Target: labels[job.index].Target}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return samples, nil
}

// decodeImage decodes the file at path and resamples it on a fixed grid to
// Dims, channel-major ([C, H, W]), with intensities scaled to [0, 1].
// Channels == 1 collapses to average intensity.
func decodeImage(path string, dims Dims) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("empty image")
	}

	features := make([]float32, dims.Features())
	plane := dims.Height * dims.Width
	stepX := float64(width) / float64(dims.Width)
	stepY := float64(height) / float64(dims.Height)
	for gy := 0; gy < dims.Height; gy++ {
		for gx := 0; gx < dims.Width; gx++ {
			px := bounds.Min.X + int(math.Min(float64(width-1), float64(gx)*stepX))
			py := bounds.Min.Y + int(math.Min(float64(height-1), float64(gy)*stepY))
			r, g, b, _ := img.At(px, py).RGBA()
			if dims.Channels == 1 {
				features[gy*dims.Width+gx] = float32((float64(r) + float64(g) + float64(b)) / (3 * 65535.0))
				continue
			}
			features[0*plane+gy*dims.Width+gx] = float32(float64(r) / 65535.0)
			features[1*plane+gy*dims.Width+gx] = float32(float64(g) / 65535.0)
			features[2*plane+gy*dims.Width+gx] = float32(float64(b) / 65535.0)
		}
	}
	return features, nil
}
