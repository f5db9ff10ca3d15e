package hparams

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
data_folder: /data/LibriSpeech
output_folder: results/run1
`

func TestLoadDefaults(t *testing.T) {
	h, err := Load(writeYAML(t, minimal), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", h.SampleRate)
	}
	if h.SentenceLen != 3.0 {
		t.Errorf("SentenceLen = %v, want 3", h.SentenceLen)
	}
	if !h.RandomChunk {
		t.Error("RandomChunk should default to true")
	}
	if h.SaveFolder != filepath.Join("results/run1", "save") {
		t.Errorf("SaveFolder = %q", h.SaveFolder)
	}
	if h.Fbank.NumMels != 40 {
		t.Errorf("Fbank.NumMels = %d, want 40", h.Fbank.NumMels)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	h, err := Load(writeYAML(t, `
data_folder: /data/LibriSpeech
output_folder: out
sentence_len: 4.5
random_chunk: false
number_of_epochs: 20
fbank:
  num_mels: 80
augment:
  enabled: true
  snr_low: 0
  snr_high: 15
`), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.SentenceLen != 4.5 || h.RandomChunk || h.Epochs != 20 {
		t.Errorf("explicit values not applied: %+v", h)
	}
	if h.Fbank.NumMels != 80 {
		t.Errorf("Fbank.NumMels = %d, want 80", h.Fbank.NumMels)
	}
	if !h.Augment.Enabled || h.Augment.SNRHigh != 15 {
		t.Errorf("Augment = %+v", h.Augment)
	}
}

func TestOverrides(t *testing.T) {
	h, err := Load(writeYAML(t, minimal), []string{
		"number_of_epochs=2",
		"fbank.num_mels=24",
		"random_chunk=false",
		"output_folder=elsewhere",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Epochs != 2 {
		t.Errorf("Epochs = %d, want 2", h.Epochs)
	}
	if h.Fbank.NumMels != 24 {
		t.Errorf("Fbank.NumMels = %d, want 24", h.Fbank.NumMels)
	}
	if h.RandomChunk {
		t.Error("override random_chunk=false not applied")
	}
	if h.OutputFolder != "elsewhere" {
		t.Errorf("OutputFolder = %q", h.OutputFolder)
	}
}

func TestBadOverride(t *testing.T) {
	if _, err := Load(writeYAML(t, minimal), []string{"no-equals-sign"}); err == nil {
		t.Fatal("expected error for malformed override")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Hparams)
		wantSub string
	}{
		{"missing data folder", func(h *Hparams) { h.DataFolder = "" }, "data_folder"},
		{"bad epochs", func(h *Hparams) { h.Epochs = 0 }, "number_of_epochs"},
		{"bad batch size", func(h *Hparams) { h.BatchSize = -1 }, "batch_size"},
		{"rate mismatch", func(h *Hparams) { h.Fbank.SampleRate = 8000 }, "fbank.sample_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Default()
			h.DataFolder = "/data"
			tc.mutate(&h)
			err := h.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestManifestPaths(t *testing.T) {
	h := Default()
	h.OutputFolder = "out"
	train, valid, test := h.ManifestPaths()
	if train != filepath.Join("out", "train.json") ||
		valid != filepath.Join("out", "valid.json") ||
		test != filepath.Join("out", "test.json") {
		t.Fatalf("paths = %q %q %q", train, valid, test)
	}
}
