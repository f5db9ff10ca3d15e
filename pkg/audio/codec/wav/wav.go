// Package wav reads and writes PCM16 WAV files.
//
// Decoding scans RIFF chunks rather than assuming a fixed 44-byte header,
// so files with extra chunks (LIST, fact, ...) are handled. Only
// uncompressed 16-bit PCM is supported.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFormat is returned when the input is not an uncompressed PCM16 WAV.
var ErrFormat = errors.New("wav: unsupported format")

// Info describes the audio stream of a WAV file.
type Info struct {
	SampleRate int // samples per second, per channel
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

// Decode parses WAV data and returns the interleaved PCM16 samples.
func Decode(data []byte) ([]int16, Info, error) {
	info, payload, err := scan(data)
	if err != nil {
		return nil, Info{}, err
	}
	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(payload[2*i]) | int16(payload[2*i+1])<<8
	}
	return samples, info, nil
}

// DecodeFile reads and decodes the named WAV file.
func DecodeFile(path string) ([]int16, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, err
	}
	return Decode(data)
}

// Probe parses only the headers of the named WAV file and returns the
// stream info. Chunks are walked by seeking, so the sample payload and
// any metadata chunks are never loaded.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return Info{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrFormat)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Info{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrFormat)
	}

	var info Info
	haveFmt := false
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			return Info{}, fmt.Errorf("%w: no data chunk", ErrFormat)
		}
		id := string(hdr[:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))
		skip := size

		switch id {
		case "fmt ":
			if size < 16 {
				return Info{}, fmt.Errorf("%w: truncated fmt chunk", ErrFormat)
			}
			var body [16]byte
			if _, err := io.ReadFull(f, body[:]); err != nil {
				return Info{}, fmt.Errorf("%w: truncated fmt chunk", ErrFormat)
			}
			info, err = parseFmt(body[:])
			if err != nil {
				return Info{}, err
			}
			haveFmt = true
			skip -= 16

		case "data":
			if !haveFmt {
				return Info{}, fmt.Errorf("%w: data chunk before fmt", ErrFormat)
			}
			info.Frames = int(size) / (info.Channels * 2)
			return info, nil
		}

		// Chunks are word-aligned.
		if size%2 == 1 {
			skip++
		}
		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			return Info{}, err
		}
	}
}

// Encode serializes mono PCM16 samples as a WAV file.
func Encode(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}
	dataSize := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.Grow(44 + len(samples)*2)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes(), nil
}

// EncodeFile writes mono PCM16 samples to the named WAV file.
func EncodeFile(path string, samples []int16, sampleRate int) error {
	data, err := Encode(samples, sampleRate)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// scan parses the RIFF structure and returns the stream info plus the
// raw data chunk payload.
func scan(data []byte) (Info, []byte, error) {
	info, off, err := scanHeader(data)
	if err != nil {
		return Info{}, nil, err
	}
	size := info.Frames * info.Channels * 2
	if off+size > len(data) {
		size = len(data) - off
		info.Frames = size / (info.Channels * 2)
	}
	return info, data[off : off+size], nil
}

// scanHeader walks RIFF chunks until the data chunk and returns the
// stream info and the byte offset of the data payload.
func scanHeader(data []byte) (Info, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Info{}, 0, fmt.Errorf("%w: missing RIFF/WAVE header", ErrFormat)
	}

	var info Info
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return Info{}, 0, fmt.Errorf("%w: truncated fmt chunk", ErrFormat)
			}
			var err error
			info, err = parseFmt(data[body : body+16])
			if err != nil {
				return Info{}, 0, err
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return Info{}, 0, fmt.Errorf("%w: data chunk before fmt", ErrFormat)
			}
			info.Frames = size / (info.Channels * 2)
			return info, body, nil
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}
	return Info{}, 0, fmt.Errorf("%w: no data chunk", ErrFormat)
}

// parseFmt decodes the first 16 bytes of a fmt chunk body.
func parseFmt(body []byte) (Info, error) {
	audioFormat := binary.LittleEndian.Uint16(body[0:2])
	channels := binary.LittleEndian.Uint16(body[2:4])
	sampleRate := binary.LittleEndian.Uint32(body[4:8])
	bits := binary.LittleEndian.Uint16(body[14:16])
	if audioFormat != 1 || bits != 16 {
		return Info{}, fmt.Errorf("%w: format=%d bits=%d", ErrFormat, audioFormat, bits)
	}
	if channels == 0 || sampleRate == 0 {
		return Info{}, fmt.Errorf("%w: zero channels or sample rate", ErrFormat)
	}
	return Info{Channels: int(channels), SampleRate: int(sampleRate)}, nil
}
