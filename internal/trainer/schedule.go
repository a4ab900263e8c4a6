package trainer

// ShouldEvaluate reports whether metrics are computed after the given
// 0-indexed epoch: every `every` epochs, and unconditionally on the final
// one, so a finished run always reports against the fully trained model.
func ShouldEvaluate(epoch, totalEpochs, every int) bool {
	if epoch < 0 || epoch >= totalEpochs {
		return false
	}
	if every <= 0 {
		every = 1
	}
	return epoch%every == 0 || epoch == totalEpochs-1
}
