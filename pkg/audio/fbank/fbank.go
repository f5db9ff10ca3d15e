// Package fbank computes log mel filterbank features from PCM audio.
//
// This is the front-end for the gender-ID classifier: raw waveforms are
// converted to a [T, numMels] float32 matrix, then normalized per
// utterance with MeanVarNorm before entering the embedding model.
//
// Default parameters follow the Kaldi convention for 16 kHz speech:
//
//	SampleRate:  16000
//	WindowSize:  400 (25 ms)
//	HopSize:     160 (10 ms)
//	FFTSize:     512
//	NumMels:     40
//	LowFreq:     20
//	HighFreq:  7600
//	PreEmphasis: 0.97
package fbank

import "math"

// Config controls mel filterbank extraction parameters.
type Config struct {
	SampleRate  int     `yaml:"sample_rate"`  // audio sample rate in Hz (default 16000)
	WindowSize  int     `yaml:"window_size"`  // window length in samples (default 400 = 25ms)
	HopSize     int     `yaml:"hop_size"`     // hop length in samples (default 160 = 10ms)
	FFTSize     int     `yaml:"fft_size"`     // FFT size (default 512)
	NumMels     int     `yaml:"num_mels"`     // number of mel bins (default 40)
	LowFreq     float64 `yaml:"low_freq"`     // lowest mel frequency (default 20)
	HighFreq    float64 `yaml:"high_freq"`    // highest mel frequency (default 7600)
	PreEmphasis float64 `yaml:"pre_emphasis"` // pre-emphasis coefficient (default 0.97)
}

// DefaultConfig returns the standard config for 16kHz speech input.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     40,
		LowFreq:     20,
		HighFreq:    7600,
		PreEmphasis: 0.97,
	}
}

// Extractor computes mel filterbank features from PCM samples.
// An Extractor is safe for concurrent use: Extract allocates its own
// working buffers per call.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
}

// New creates an Extractor with the given config.
func New(cfg Config) *Extractor {
	return &Extractor{
		cfg:     cfg,
		window:  hammingWindow(cfg.WindowSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
	}
}

// NumMels returns the feature dimensionality per frame.
func (e *Extractor) NumMels() int { return e.cfg.NumMels }

// NumFrames returns the number of frames Extract produces for n samples,
// or 0 if the signal is shorter than one window.
func (e *Extractor) NumFrames(n int) int {
	if n < e.cfg.WindowSize {
		return 0
	}
	return (n-e.cfg.WindowSize)/e.cfg.HopSize + 1
}

// Extract computes log mel filterbank features from normalized float32
// samples in [-1, 1]. The result is a [T][numMels] matrix where
// T = (len(pcm) - WindowSize) / HopSize + 1. Returns nil if the input is
// shorter than one window.
func (e *Extractor) Extract(pcm []float32) [][]float32 {
	cfg := e.cfg
	numFrames := e.NumFrames(len(pcm))
	if numFrames == 0 {
		return nil
	}

	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1

	features := make([][]float32, numFrames)
	re := make([]float64, nfft)
	im := make([]float64, nfft)
	power := make([]float64, halfFFT)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize

		// Pre-emphasis and windowing in one pass.
		for i := 0; i < cfg.WindowSize; i++ {
			s := float64(pcm[start+i])
			if i > 0 {
				s -= cfg.PreEmphasis * float64(pcm[start+i-1])
			}
			re[i] = s * e.window[i]
			im[i] = 0
		}
		for i := cfg.WindowSize; i < nfft; i++ {
			re[i] = 0
			im[i] = 0
		}

		fft(re, im)

		for i := 0; i < halfFFT; i++ {
			power[i] = re[i]*re[i] + im[i]*im[i]
		}

		mel := make([]float32, cfg.NumMels)
		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				sum += w * power[k]
			}
			if sum < 1e-10 {
				sum = 1e-10 // log floor
			}
			mel[m] = float32(math.Log(sum))
		}
		features[t] = mel
	}

	return features
}

// MeanVarNorm normalizes features in-place: for each mel dimension the
// mean is subtracted and the standard deviation divided out, computed
// over the valid portion of the utterance. relLen is the relative length
// of the signal in [0, 1]; frames beyond relLen*T are excluded from the
// statistics but still normalized with them. Pass 1 to use all frames.
func MeanVarNorm(features [][]float32, relLen float64) {
	if len(features) == 0 {
		return
	}
	valid := int(relLen * float64(len(features)))
	if valid <= 0 || valid > len(features) {
		valid = len(features)
	}
	numMels := len(features[0])
	n := float64(valid)

	for m := 0; m < numMels; m++ {
		sum := 0.0
		for _, f := range features[:valid] {
			sum += float64(f[m])
		}
		mean := sum / n

		varSum := 0.0
		for _, f := range features[:valid] {
			d := float64(f[m]) - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / n)
		if std < 1e-10 {
			std = 1e-10
		}

		for _, f := range features {
			f[m] = float32((float64(f[m]) - mean) / std)
		}
	}
}
