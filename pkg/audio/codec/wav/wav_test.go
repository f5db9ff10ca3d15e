package wav

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(n int, freq float64, rate int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(10000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sine(1600, 440, 16000)

	data, err := Encode(want, 16000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, info, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 {
		t.Fatalf("info = %+v, want 16000 Hz mono", info)
	}
	if info.Frames != len(want) {
		t.Fatalf("frames = %d, want %d", info.Frames, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDuration(t *testing.T) {
	info := Info{SampleRate: 16000, Channels: 1, Frames: 51200}
	if d := info.Duration(); math.Abs(d-3.2) > 1e-9 {
		t.Errorf("Duration = %f, want 3.2", d)
	}
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := EncodeFile(path, sine(32000, 200, 16000), 16000); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Frames != 32000 {
		t.Errorf("frames = %d, want 32000", info.Frames)
	}
	if math.Abs(info.Duration()-2.0) > 1e-9 {
		t.Errorf("duration = %f, want 2.0", info.Duration())
	}
}

// withListChunk inserts a LIST chunk of the given body size between the
// fmt and data chunks of an encoded mono PCM16 file.
func withListChunk(data []byte, bodySize int) []byte {
	list := make([]byte, 8+bodySize)
	copy(list, "LIST")
	list[4] = byte(bodySize)
	list[5] = byte(bodySize >> 8)
	list[6] = byte(bodySize >> 16)
	list[7] = byte(bodySize >> 24)
	copy(list[8:], "INFO")

	patched := append([]byte{}, data[:36]...)
	patched = append(patched, list...)
	return append(patched, data[36:]...)
}

func TestDecodeExtraChunk(t *testing.T) {
	data, err := Encode(sine(100, 440, 8000), 8000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	patched := withListChunk(data, 4)

	got, info, err := Decode(patched)
	if err != nil {
		t.Fatalf("Decode with LIST chunk: %v", err)
	}
	if info.SampleRate != 8000 || len(got) != 100 {
		t.Errorf("got rate=%d n=%d, want 8000/100", info.SampleRate, len(got))
	}
}

func TestProbeSkipsLargeMetadataChunk(t *testing.T) {
	// A metadata chunk bigger than any fixed header window must not stop
	// Probe from reaching the data chunk.
	data, err := Encode(sine(16000, 200, 16000), 16000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	patched := withListChunk(data, 8192)

	path := filepath.Join(t.TempDir(), "meta.wav")
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Frames != 16000 {
		t.Errorf("info = %+v, want 16000 Hz with 16000 frames", info)
	}
}

func TestProbeNotWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Probe(path); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("not a wav file at all............"),
		[]byte("RIFF\x00\x00\x00\x00WAVE"), // no chunks
	}
	for i, data := range cases {
		if _, _, err := Decode(data); !errors.Is(err, ErrFormat) {
			t.Errorf("case %d: err = %v, want ErrFormat", i, err)
		}
	}
}

func TestEncodeBadRate(t *testing.T) {
	if _, err := Encode([]int16{1, 2, 3}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
