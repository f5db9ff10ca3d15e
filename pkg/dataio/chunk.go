package dataio

import "math/rand/v2"

// TargetSamples converts a sentence length in seconds to a sample count.
func TargetSamples(sentenceLen float64, sampleRate int) int {
	return int(sentenceLen * float64(sampleRate))
}

// Chunk selects a training window from a waveform.
//
// Signals shorter than target are doubled by self-concatenation until
// they are long enough; this may overshoot the target. When random is
// true a window of exactly target samples is cut at a uniformly random
// offset, which is the training-time behavior. Otherwise the whole
// (possibly repeated) signal is returned, as used during validation and
// test.
func Chunk(sig []float32, target int, random bool, rng *rand.Rand) []float32 {
	if len(sig) == 0 || target <= 0 {
		return sig
	}

	for len(sig) <= target {
		sig = append(append(make([]float32, 0, 2*len(sig)), sig...), sig...)
	}

	if !random {
		return sig
	}

	// len(sig) > target is guaranteed by the repeat loop, so the range
	// is at least 1 and IntN never panics; a range of exactly one
	// collapses to offset 0.
	start := rng.IntN(len(sig) - target)
	return sig[start : start+target]
}
