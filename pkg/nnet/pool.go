package nnet

import "math"

// StatsPool collapses a variable-length feature sequence [frames][dims]
// into a fixed vector of per-dimension mean followed by per-dimension
// standard deviation, so the classifier input size is 2*dims regardless
// of utterance length.
//
// relLen is the fraction of frames that carry signal; frames beyond
// relLen*len(feats) are ignored. Pass 1 to pool the whole sequence.
func StatsPool(feats [][]float32, relLen float64) []float64 {
	if len(feats) == 0 {
		return nil
	}
	dims := len(feats[0])
	frames := int(math.Round(relLen * float64(len(feats))))
	if frames < 1 {
		frames = 1
	}
	if frames > len(feats) {
		frames = len(feats)
	}

	out := make([]float64, 2*dims)
	mean := out[:dims]
	std := out[dims:]
	for t := 0; t < frames; t++ {
		for d, v := range feats[t] {
			mean[d] += float64(v)
		}
	}
	for d := range mean {
		mean[d] /= float64(frames)
	}
	for t := 0; t < frames; t++ {
		for d, v := range feats[t] {
			diff := float64(v) - mean[d]
			std[d] += diff * diff
		}
	}
	for d := range std {
		// Small floor keeps the gradient finite on constant inputs.
		std[d] = math.Sqrt(std[d]/float64(frames) + 1e-10)
	}
	return out
}
