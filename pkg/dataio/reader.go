package dataio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/haivivi/genderid/pkg/audio/codec/flac"
	"github.com/haivivi/genderid/pkg/audio/codec/wav"
	"github.com/haivivi/genderid/pkg/audio/resample"
)

// ReadAudio decodes an audio file into mono float32 samples at
// targetRate. Multi-channel input is downmixed by averaging and input
// at a different sample rate is resampled. The format is chosen by
// file extension (.wav or .flac).
func ReadAudio(path string, targetRate int) ([]float32, error) {
	var (
		samples    []int16
		rate       int
		channels   int
		numSamples int
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, info, err := wav.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		samples, rate, channels, numSamples = s, info.SampleRate, info.Channels, info.Frames
	case ".flac":
		s, info, err := flac.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		samples, rate, channels, numSamples = s, info.SampleRate, info.Channels, info.Frames
	default:
		return nil, fmt.Errorf("dataio: unsupported audio extension %q", filepath.Ext(path))
	}

	pcm := make([]float32, numSamples)
	if channels == 1 {
		for i := 0; i < numSamples; i++ {
			pcm[i] = float32(samples[i]) / 32768.0
		}
	} else {
		for i := 0; i < numSamples; i++ {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += float64(samples[i*channels+ch])
			}
			pcm[i] = float32(sum / float64(channels) / 32768.0)
		}
	}

	if rate != targetRate {
		return resample.Resample(pcm, rate, targetRate)
	}
	return pcm, nil
}

// ProbeDuration returns the duration of an audio file in seconds. Only
// headers are read; the payload stays on disk.
func ProbeDuration(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		info, err := wav.Probe(path)
		if err != nil {
			return 0, err
		}
		return info.Duration(), nil
	case ".flac":
		info, err := flac.Probe(path)
		if err != nil {
			return 0, err
		}
		return info.Duration(), nil
	}
	return 0, fmt.Errorf("dataio: unsupported audio extension %q", filepath.Ext(path))
}
