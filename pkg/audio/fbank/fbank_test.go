package fbank

import (
	"math"
	"testing"
)

func TestHammingWindow(t *testing.T) {
	w := hammingWindow(400)
	if len(w) != 400 {
		t.Fatalf("expected 400, got %d", len(w))
	}
	// Hamming endpoints are ~0.08, center ~1.0.
	if math.Abs(w[0]-0.08) > 0.01 {
		t.Errorf("w[0] = %f, want ~0.08", w[0])
	}
	if math.Abs(w[199]-1.0) > 0.02 {
		t.Errorf("w[199] = %f, want ~1.0", w[199])
	}
}

func TestMelConversion(t *testing.T) {
	// HTK mel scale: 2595 * log10(1 + f/700)
	mel := hzToMel(1000)
	if math.Abs(mel-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", mel)
	}
	hz := melToHz(mel)
	if math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(40, 512, 16000, 20, 7600)
	if len(bank) != 40 {
		t.Fatalf("expected 40 filters, got %d", len(bank))
	}
	halfFFT := 512/2 + 1
	for i, f := range bank {
		if len(f) != halfFFT {
			t.Fatalf("filter %d: expected %d bins, got %d", i, halfFFT, len(f))
		}
		hasNonZero := false
		for _, v := range f {
			if v > 0 {
				hasNonZero = true
				break
			}
		}
		if !hasNonZero {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestFFTKnownSignal(t *testing.T) {
	// DC + one cycle of cosine in an 8-sample window.
	n := 8
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = 1.0 + math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	fft(re, im)

	// Bin 0 carries the DC sum (8), bins 1 and n-1 carry the cosine (4 each).
	if math.Abs(re[0]-8.0) > 1e-9 {
		t.Errorf("re[0] = %f, want 8", re[0])
	}
	if math.Abs(re[1]-4.0) > 1e-9 {
		t.Errorf("re[1] = %f, want 4", re[1])
	}
	if math.Abs(re[7]-4.0) > 1e-9 {
		t.Errorf("re[7] = %f, want 4", re[7])
	}
	for i := 2; i < 7; i++ {
		if math.Abs(re[i]) > 1e-9 || math.Abs(im[i]) > 1e-9 {
			t.Errorf("bin %d not empty: %f%+fi", i, re[i], im[i])
		}
	}
}

func TestExtractShape(t *testing.T) {
	ext := New(DefaultConfig())

	// One second of a 440 Hz tone at 16 kHz.
	pcm := make([]float32, 16000)
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	feats := ext.Extract(pcm)
	wantFrames := (16000-400)/160 + 1
	if len(feats) != wantFrames {
		t.Fatalf("frames = %d, want %d", len(feats), wantFrames)
	}
	if len(feats[0]) != 40 {
		t.Fatalf("mels = %d, want 40", len(feats[0]))
	}
	if got := ext.NumFrames(16000); got != wantFrames {
		t.Errorf("NumFrames(16000) = %d, want %d", got, wantFrames)
	}
}

func TestExtractTooShort(t *testing.T) {
	ext := New(DefaultConfig())
	if feats := ext.Extract(make([]float32, 399)); feats != nil {
		t.Errorf("expected nil for sub-window input, got %d frames", len(feats))
	}
}

func TestMeanVarNorm(t *testing.T) {
	feats := [][]float32{
		{1, 10},
		{2, 20},
		{3, 30},
		{4, 40},
	}
	MeanVarNorm(feats, 1.0)

	for m := 0; m < 2; m++ {
		sum := 0.0
		sumSq := 0.0
		for _, f := range feats {
			sum += float64(f[m])
			sumSq += float64(f[m]) * float64(f[m])
		}
		mean := sum / 4
		std := math.Sqrt(sumSq/4 - mean*mean)
		if math.Abs(mean) > 1e-5 {
			t.Errorf("dim %d: mean = %f, want 0", m, mean)
		}
		if math.Abs(std-1) > 1e-5 {
			t.Errorf("dim %d: std = %f, want 1", m, std)
		}
	}
}

func TestMeanVarNormPartial(t *testing.T) {
	// Stats come from the first half only; the tail is normalized with them.
	feats := [][]float32{{0}, {2}, {100}, {100}}
	MeanVarNorm(feats, 0.5)

	// Valid part: mean 1, std 1 → normalized to -1, 1.
	if math.Abs(float64(feats[0][0])+1) > 1e-5 || math.Abs(float64(feats[1][0])-1) > 1e-5 {
		t.Errorf("valid frames = %v, %v, want -1, 1", feats[0][0], feats[1][0])
	}
	// Tail frames shifted by the same stats: (100-1)/1 = 99.
	if math.Abs(float64(feats[2][0])-99) > 1e-4 {
		t.Errorf("tail frame = %v, want 99", feats[2][0])
	}
}
