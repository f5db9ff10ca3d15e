// Package resample converts PCM sample rates using a pure Go resampler.
//
// The data pipeline normalizes every utterance to the training sample
// rate before feature extraction, and the speed-perturbation augmenter
// uses rate conversion to stretch or compress signals.
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono float32 PCM from srcRate to dstRate.
// The output length is approximately len(pcm) * dstRate / srcRate; the
// exact count depends on the filter design. Equal rates return the
// input unchanged.
func Resample(pcm []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resample: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate {
		return pcm, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resample: create resampler: %w", err)
	}

	input := make([]float64, len(pcm))
	for i, s := range pcm {
		input[i] = float64(s)
	}

	out, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample: process: %w", err)
	}

	// Push zeros through to drain the filter tail, then trim to the
	// expected length so callers get a deterministic size.
	want := len(pcm) * dstRate / srcRate
	for len(out) < want {
		tail, err := rs.Process(make([]float64, 256))
		if err != nil {
			return nil, fmt.Errorf("resample: drain: %w", err)
		}
		if len(tail) == 0 {
			break
		}
		out = append(out, tail...)
	}
	if len(out) > want {
		out = out[:want]
	}

	result := make([]float32, len(out))
	for i, s := range out {
		switch {
		case s > 1.0:
			result[i] = 1.0
		case s < -1.0:
			result[i] = -1.0
		default:
			result[i] = float32(s)
		}
	}
	return result, nil
}
