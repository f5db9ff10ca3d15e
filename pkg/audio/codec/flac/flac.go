// Package flac decodes FLAC files into PCM16 samples.
//
// LibriSpeech-style corpora ship 16 kHz mono FLAC; this package wraps
// the mewkiz/flac decoder behind the same API shape as the wav codec.
package flac

import (
	"errors"
	"fmt"
	"io"

	mewkiz "github.com/mewkiz/flac"
)

// ErrFormat is returned for bit depths other than 16.
var ErrFormat = errors.New("flac: unsupported format")

// Info describes the audio stream of a FLAC file.
type Info struct {
	SampleRate int
	Channels   int
	Frames     int // samples per channel
}

// Duration returns the stream length in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Probe reads only the STREAMINFO block of the named file.
// The frame payload is not decoded, so probing is cheap even for long
// recordings.
func Probe(path string) (Info, error) {
	stream, err := mewkiz.ParseFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("flac: parse %s: %w", path, err)
	}
	defer stream.Close()
	return streamInfo(stream), nil
}

// DecodeFile decodes the named FLAC file to interleaved PCM16 samples.
func DecodeFile(path string) ([]int16, Info, error) {
	stream, err := mewkiz.ParseFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("flac: parse %s: %w", path, err)
	}
	defer stream.Close()

	info := streamInfo(stream)
	if stream.Info.BitsPerSample != 16 {
		return nil, Info{}, fmt.Errorf("%w: %d bits per sample", ErrFormat, stream.Info.BitsPerSample)
	}

	samples := make([]int16, 0, info.Frames*info.Channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Info{}, fmt.Errorf("flac: decode %s: %w", path, err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for _, sub := range frame.Subframes {
				samples = append(samples, int16(sub.Samples[i]))
			}
		}
	}

	// Trust the decoded length over the header count.
	info.Frames = len(samples) / info.Channels
	return samples, info, nil
}

func streamInfo(stream *mewkiz.Stream) Info {
	return Info{
		SampleRate: int(stream.Info.SampleRate),
		Channels:   int(stream.Info.NChannels),
		Frames:     int(stream.Info.NSamples),
	}
}
