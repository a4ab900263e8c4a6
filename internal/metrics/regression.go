package metrics

import "math"

// RMSE returns the root-mean-squared error between truth and predictions.
// Panics on length mismatch, which indicates a programming error upstream.
func RMSE(truth, preds []float32) float64 {
	if len(truth) != len(preds) {
		panic("metrics: truth and prediction lengths differ")
	}
	if len(truth) == 0 {
		return 0
	}
	sum := 0.0
	for i := range truth {
		d := float64(preds[i]) - float64(truth[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truth)))
}

// R2 returns the coefficient of determination: the fraction of target
// variance explained by the predictions. 1 is perfect; 0 matches always
// predicting the mean. Zero-variance targets yield 0 unless the fit is
// exact.
func R2(truth, preds []float32) float64 {
	if len(truth) != len(preds) {
		panic("metrics: truth and prediction lengths differ")
	}
	if len(truth) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range truth {
		mean += float64(v)
	}
	mean /= float64(len(truth))

	ssRes := 0.0
	ssTot := 0.0
	for i := range truth {
		r := float64(truth[i]) - float64(preds[i])
		ssRes += r * r
		d := float64(truth[i]) - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
