package dataio

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/genderid/pkg/audio/codec/wav"
)

// writeTone writes a mono WAV of the given duration to dir and returns
// the relative path used in manifests.
func writeTone(t *testing.T, dir, rel string, seconds float64, rate int) {
	t.Helper()
	n := int(seconds * float64(rate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*300*float64(i)/float64(rate)))
	}
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := wav.EncodeFile(full, samples, rate); err != nil {
		t.Fatal(err)
	}
}

func testDataset(t *testing.T, training bool) (*Dataset, string) {
	t.Helper()
	root := t.TempDir()
	writeTone(t, root, "train/19/19-198-0000.wav", 1.0, 16000)
	writeTone(t, root, "train/26/26-495-0001.wav", 2.5, 16000)

	m := Manifest{
		"19-198-0000": {Wav: "{data_root}/train/19/19-198-0000.wav", Duration: 1.0, SpkID: "19", GenderID: "F"},
		"26-495-0001": {Wav: "{data_root}/train/26/26-495-0001.wav", Duration: 2.5, SpkID: "26", GenderID: "M"},
	}

	enc := NewCategoricalEncoder()
	enc.Update([]string{"F", "M"})

	opts := Options{
		DataRoot:    root,
		SampleRate:  16000,
		SentenceLen: 2.0,
		RandomChunk: true,
		Encoder:     enc,
	}
	return NewDataset(m, opts, training), root
}

func TestDatasetTrainingExamples(t *testing.T) {
	ds, _ := testDataset(t, true)
	rng := rand.New(rand.NewPCG(7, 9))

	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	for i := 0; i < ds.Len(); i++ {
		ex, err := ds.Example(i, rng)
		if err != nil {
			t.Fatalf("Example(%d): %v", i, err)
		}
		if len(ex.Sig) != 32000 {
			t.Errorf("example %s: %d samples, want 32000", ex.ID, len(ex.Sig))
		}
	}
}

func TestDatasetEvalKeepsFullSignal(t *testing.T) {
	ds, _ := testDataset(t, false)
	// 2.5s utterance is longer than the 2s target: returned whole.
	ex, err := ds.Example(1, nil)
	if err != nil {
		t.Fatalf("Example: %v", err)
	}
	if ex.ID != "26-495-0001" || len(ex.Sig) != 40000 {
		t.Errorf("got %s with %d samples, want 26-495-0001 with 40000", ex.ID, len(ex.Sig))
	}
	if ex.Target != 1 {
		t.Errorf("Target = %v, want 1 (M)", ex.Target)
	}
}

func TestDatasetBatches(t *testing.T) {
	ds, _ := testDataset(t, true)
	rng := rand.New(rand.NewPCG(1, 1))

	count := 0
	for batch, err := range ds.Batches(2, true, rng) {
		if err != nil {
			t.Fatalf("Batches: %v", err)
		}
		count++
		if len(batch.IDs) != 2 || len(batch.Sigs) != 2 || len(batch.Targets) != 2 {
			t.Fatalf("batch sizes = %d/%d/%d, want 2", len(batch.IDs), len(batch.Sigs), len(batch.Targets))
		}
		for _, l := range batch.Lens {
			if l <= 0 || l > 1 {
				t.Errorf("relative length %f out of (0,1]", l)
			}
		}
	}
	if count != 1 {
		t.Errorf("batches = %d, want 1", count)
	}
}

func TestDatasetBatchesPadShortSignals(t *testing.T) {
	ds, _ := testDataset(t, false)

	// Eval mode: 19-198-0000 repeats to 32000 samples, 26-495-0001 is
	// 40000. Batched together the short one must be zero-padded to the
	// batch max with its real length recorded in Lens.
	for batch, err := range ds.Batches(2, false, nil) {
		if err != nil {
			t.Fatalf("Batches: %v", err)
		}
		if len(batch.Sigs[0]) != 40000 || len(batch.Sigs[1]) != 40000 {
			t.Fatalf("padded lengths = %d/%d, want 40000/40000", len(batch.Sigs[0]), len(batch.Sigs[1]))
		}
		if batch.Lens[0] != 0.8 || batch.Lens[1] != 1.0 {
			t.Fatalf("Lens = %v, want [0.8 1.0]", batch.Lens)
		}
		for i, s := range batch.Sigs[0][32000:] {
			if s != 0 {
				t.Fatalf("padding sample %d = %f, want 0", 32000+i, s)
			}
		}
	}
}

func TestDatasetMissingAudio(t *testing.T) {
	m := Manifest{"gone": {Wav: "{data_root}/missing.wav", Duration: 1, SpkID: "1", GenderID: "F"}}
	enc := NewCategoricalEncoder()
	enc.Update([]string{"F"})
	ds := NewDataset(m, Options{DataRoot: t.TempDir(), SampleRate: 16000, SentenceLen: 1, Encoder: enc}, false)

	if _, err := ds.Example(0, nil); err == nil {
		t.Error("expected error for missing audio file")
	}
}
