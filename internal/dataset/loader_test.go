package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, side int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 17 % 256), G: uint8(y * 31 % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func fixtureDataset(t *testing.T, n int) (string, string) {
	t.Helper()
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(imagesDir, 0o755))

	csv := "file,value\n"
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("img%03d.png", i)
		writePNG(t, imagesDir, name, 16)
		csv += fmt.Sprintf("%s,%d\n", name, i*10)
	}
	labelsCSV := filepath.Join(dir, "labels.csv")
	require.NoError(t, os.WriteFile(labelsCSV, []byte(csv), 0o644))
	return imagesDir, labelsCSV
}

func TestLoadBuildsSplits(t *testing.T) {
	imagesDir, labelsCSV := fixtureDataset(t, 10)
	dims := Dims{Channels: 3, Height: 8, Width: 8}

	splits, err := Load(LoadOptions{
		ImagesDir:    imagesDir,
		LabelsCSV:    labelsCSV,
		TargetCol:    0,
		Dims:         dims,
		TestFraction: 0.2,
		Seed:         1,
		NumWorkers:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, splits.Train.N)
	assert.Equal(t, 2, splits.Test.N)
	assert.Len(t, splits.Train.Images, 8*dims.Features())
	assert.Len(t, splits.Train.Targets, 8)
	assert.Len(t, splits.Test.Images, 2*dims.Features())

	for _, v := range splits.Train.Images {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	// Targets are normalized with the training stats; denormalizing must
	// land back on multiples of ten.
	for _, v := range splits.Train.Targets {
		raw := splits.Stats.Denormalize(v)
		assert.InDelta(t, raw, 10*float64(int(raw/10+0.5)), 1e-3)
	}
}

func TestLoadDeterministicSplit(t *testing.T) {
	imagesDir, labelsCSV := fixtureDataset(t, 10)
	opts := LoadOptions{
		ImagesDir:    imagesDir,
		LabelsCSV:    labelsCSV,
		TargetCol:    0,
		Dims:         Dims{Channels: 1, Height: 8, Width: 8},
		TestFraction: 0.3,
		Seed:         99,
		NumWorkers:   2,
	}

	a, err := Load(opts)
	require.NoError(t, err)
	b, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, a.Train.Targets, b.Train.Targets)
	assert.Equal(t, a.Test.Targets, b.Test.Targets)
	assert.Equal(t, a.Stats, b.Stats)
}

func TestLoadMissingImage(t *testing.T) {
	imagesDir, labelsCSV := fixtureDataset(t, 3)
	data, err := os.ReadFile(labelsCSV)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(labelsCSV, append(data, []byte("ghost.png,5\n")...), 0o644))

	_, err = Load(LoadOptions{
		ImagesDir:    imagesDir,
		LabelsCSV:    labelsCSV,
		TargetCol:    0,
		Dims:         Dims{Channels: 1, Height: 8, Width: 8},
		TestFraction: 0.3,
		Seed:         1,
		NumWorkers:   2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.png")
}

func TestDecodeImageGrayscale(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "img.png", 16)

	dims := Dims{Channels: 1, Height: 4, Width: 4}
	features, err := decodeImage(filepath.Join(dir, "img.png"), dims)
	require.NoError(t, err)
	require.Len(t, features, 16)
	for _, v := range features {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestDiscoverImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 4)
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(nested, 0o755))
	writePNG(t, nested, "b.png", 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	found, err := DiscoverImages(dir)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, "a.png")
	assert.Contains(t, found, "b.png")

	// Same basename under two directories is ambiguous.
	writePNG(t, nested, "a.png", 4)
	_, err = DiscoverImages(dir)
	assert.Error(t, err)
}
