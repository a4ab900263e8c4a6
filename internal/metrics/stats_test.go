package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(32, 100*time.Millisecond, 400*time.Millisecond, 0.8)
	w.Record(32, 100*time.Millisecond, 400*time.Millisecond, 0.4)

	snap := w.Snapshot()
	assert.InDelta(t, 64.0, snap.ImagesPerSec, 1e-6)
	assert.InDelta(t, 100.0, snap.AvgDataMS, 1e-6)
	assert.InDelta(t, 400.0, snap.AvgComputeMS, 1e-6)
	assert.InDelta(t, 0.6, snap.AvgLoss, 1e-9)
}

func TestWindowSnapshotResets(t *testing.T) {
	var w Window
	w.Record(16, 50*time.Millisecond, 50*time.Millisecond, 1.0)
	_ = w.Snapshot()

	snap := w.Snapshot()
	assert.Equal(t, Snapshot{}, snap)
}

func TestWindowEmpty(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	assert.Equal(t, 0.0, snap.ImagesPerSec)
	assert.Equal(t, 0.0, snap.AvgLoss)
}
