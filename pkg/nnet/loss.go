package nnet

import "math"

// Sigmoid is the logistic function.
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// BCEWithLogits returns the mean binary cross-entropy between logits
// and targets in {0, 1}, along with the gradient of the mean loss with
// respect to each logit. It uses the log-sum-exp form so large logits
// do not overflow.
func BCEWithLogits(logits, targets []float64) (float64, []float64) {
	if len(logits) != len(targets) {
		panic("nnet: logits and targets must have equal length")
	}
	if len(logits) == 0 {
		return 0, nil
	}
	n := float64(len(logits))
	grad := make([]float64, len(logits))
	var total float64
	for i, z := range logits {
		t := targets[i]
		total += math.Max(z, 0) - z*t + math.Log1p(math.Exp(-math.Abs(z)))
		grad[i] = (Sigmoid(z) - t) / n
	}
	return total / n, grad
}
