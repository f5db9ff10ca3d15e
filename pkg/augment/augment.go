// Package augment provides waveform corruptions applied to training
// batches. Corrupters preserve signal length so a corrupted copy can
// share its clean original's relative length and label.
package augment

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/haivivi/genderid/pkg/audio/resample"
)

// Corrupter produces a degraded copy of a waveform. Implementations
// must return a signal of the same length as the input and must not
// modify the input slice.
type Corrupter interface {
	Corrupt(sig []float32, rng *rand.Rand) []float32
}

// Noise adds white noise at a signal-to-noise ratio drawn uniformly
// from [SNRLow, SNRHigh] dB.
type Noise struct {
	SNRLow  float64
	SNRHigh float64
}

// Corrupt implements Corrupter.
func (n Noise) Corrupt(sig []float32, rng *rand.Rand) []float32 {
	if len(sig) == 0 {
		return nil
	}
	var power float64
	for _, s := range sig {
		power += float64(s) * float64(s)
	}
	power /= float64(len(sig))
	if power == 0 {
		return append([]float32(nil), sig...)
	}

	snr := n.SNRLow + rng.Float64()*(n.SNRHigh-n.SNRLow)
	scale := math.Sqrt(power / math.Pow(10, snr/10))

	out := make([]float32, len(sig))
	for i, s := range sig {
		v := float64(s) + rng.NormFloat64()*scale
		out[i] = float32(math.Max(-1, math.Min(1, v)))
	}
	return out
}

// Speed resamples the waveform by a factor drawn from Factors (e.g.
// 0.95, 1.0, 1.05), then trims or zero-pads back to the original
// length so batch bookkeeping stays valid.
type Speed struct {
	SampleRate int
	Factors    []float64
}

// Corrupt implements Corrupter.
func (s Speed) Corrupt(sig []float32, rng *rand.Rand) []float32 {
	if len(sig) == 0 || len(s.Factors) == 0 {
		return append([]float32(nil), sig...)
	}
	factor := s.Factors[rng.IntN(len(s.Factors))]
	if factor == 1.0 {
		return append([]float32(nil), sig...)
	}
	warped, err := resample.Resample(sig, s.SampleRate, int(math.Round(float64(s.SampleRate)*factor)))
	if err != nil {
		// Resampling only fails on degenerate rates; fall back to the
		// clean signal rather than poisoning the batch.
		return append([]float32(nil), sig...)
	}
	out := make([]float32, len(sig))
	copy(out, warped)
	return out
}

// Chain applies corrupters in order.
type Chain []Corrupter

// Corrupt implements Corrupter.
func (c Chain) Corrupt(sig []float32, rng *rand.Rand) []float32 {
	out := append([]float32(nil), sig...)
	for _, cr := range c {
		out = cr.Corrupt(out, rng)
	}
	return out
}

// FromConfig builds the corruption chain described by a hyperparameter
// block. Nil config or a disabled block yields a nil Corrupter.
type Config struct {
	Enabled      bool      `yaml:"enabled"`
	SNRLow       float64   `yaml:"snr_low"`
	SNRHigh      float64   `yaml:"snr_high"`
	SpeedFactors []float64 `yaml:"speed_factors"`
}

// FromConfig validates cfg and assembles the chain. Noise is included
// whenever the SNR range is non-empty, speed perturbation whenever
// factors are given.
func FromConfig(cfg Config, sampleRate int) (Corrupter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var chain Chain
	if cfg.SNRLow != 0 || cfg.SNRHigh != 0 {
		if cfg.SNRHigh < cfg.SNRLow {
			return nil, fmt.Errorf("augment: snr_high %v below snr_low %v", cfg.SNRHigh, cfg.SNRLow)
		}
		chain = append(chain, Noise{SNRLow: cfg.SNRLow, SNRHigh: cfg.SNRHigh})
	}
	if len(cfg.SpeedFactors) > 0 {
		for _, f := range cfg.SpeedFactors {
			if f <= 0 {
				return nil, fmt.Errorf("augment: speed factor %v must be positive", f)
			}
		}
		chain = append(chain, Speed{SampleRate: sampleRate, Factors: cfg.SpeedFactors})
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}
