package dataprep

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/genderid/pkg/audio/codec/wav"
	"github.com/haivivi/genderid/pkg/dataio"
)

// fakeCorpus lays out a minimal LibriSpeech-shaped corpus with WAV
// audio and returns the data folder.
func fakeCorpus(t *testing.T) string {
	t.Helper()
	dataFolder := t.TempDir()
	corpus := filepath.Join(dataFolder, CorpusDirName)

	speakers := "19   | F | train | 25.03 | Kara\n26   | M | train | 30.36 | Sean\n"
	if err := os.MkdirAll(corpus, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpus, SpeakersFileName), []byte(speakers), 0o644); err != nil {
		t.Fatal(err)
	}

	writeUtt := func(split, spk, chapter, utt string, seconds float64) {
		dir := filepath.Join(corpus, split, spk, chapter)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		n := int(seconds * 16000)
		samples := make([]int16, n)
		for i := range samples {
			samples[i] = int16(5000 * math.Sin(2*math.Pi*200*float64(i)/16000))
		}
		if err := wav.EncodeFile(filepath.Join(dir, utt+".wav"), samples, 16000); err != nil {
			t.Fatal(err)
		}
	}
	writeUtt("train", "19", "198", "19-198-0000", 3.2)
	writeUtt("train", "26", "495", "26-495-0001", 1.5)
	writeUtt("val", "19", "198", "19-198-0010", 2.0)
	writeUtt("test", "26", "495", "26-495-0020", 2.0)

	return dataFolder
}

func optsFor(dataFolder, outDir string) Options {
	return Options{
		DataFolder:    dataFolder,
		SaveJSONTrain: filepath.Join(outDir, "train.json"),
		SaveJSONValid: filepath.Join(outDir, "valid.json"),
		SaveJSONTest:  filepath.Join(outDir, "test.json"),
		Extension:     ".wav",
	}
}

func TestPrepareBuildsManifests(t *testing.T) {
	dataFolder := fakeCorpus(t)
	opts := optsFor(dataFolder, t.TempDir())

	if err := Prepare(context.Background(), opts); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	train, err := dataio.LoadManifest(opts.SaveJSONTrain)
	if err != nil {
		t.Fatalf("load train manifest: %v", err)
	}
	if len(train) != 2 {
		t.Fatalf("train manifest has %d entries, want 2", len(train))
	}

	e, ok := train["19-198-0000"]
	if !ok {
		t.Fatal("missing entry 19-198-0000")
	}
	if e.SpkID != "19" || e.GenderID != "F" {
		t.Errorf("entry = %+v, want spk 19 gender F", e)
	}
	if math.Abs(e.Duration-3.2) > 1e-6 {
		t.Errorf("duration = %f, want 3.2", e.Duration)
	}
	want := "{data_root}/" + CorpusDirName + "/train/19/198/19-198-0000.wav"
	if e.Wav != want {
		t.Errorf("wav = %q, want %q", e.Wav, want)
	}

	// Every manifest entry's gender must come from the speakers table.
	genders, err := LoadSpeakers(filepath.Join(dataFolder, CorpusDirName, SpeakersFileName))
	if err != nil {
		t.Fatal(err)
	}
	for id, e := range train {
		if genders[e.SpkID] != e.GenderID {
			t.Errorf("%s: gender %q does not match table %q", id, e.GenderID, genders[e.SpkID])
		}
	}
}

func TestPrepareIdempotent(t *testing.T) {
	dataFolder := fakeCorpus(t)
	opts := optsFor(dataFolder, t.TempDir())

	if err := Prepare(context.Background(), opts); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}

	// Tamper with one output; the second run must not rewrite it.
	sentinel := []byte(`{"sentinel": {"wav": "x", "duration": 1, "spk_id": "1", "gender_id": "F"}}`)
	if err := os.WriteFile(opts.SaveJSONTrain, sentinel, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Prepare(context.Background(), opts); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	got, err := os.ReadFile(opts.SaveJSONTrain)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(sentinel) {
		t.Error("second Prepare rewrote an existing manifest")
	}
}

func TestPrepareUnknownSpeakerFails(t *testing.T) {
	dataFolder := fakeCorpus(t)
	// Utterance from speaker 99, absent from the table.
	dir := filepath.Join(dataFolder, CorpusDirName, "train", "99", "1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := wav.EncodeFile(filepath.Join(dir, "99-1-0000.wav"), make([]int16, 16000), 16000); err != nil {
		t.Fatal(err)
	}

	opts := optsFor(dataFolder, t.TempDir())
	err := Prepare(context.Background(), opts)
	if !errors.Is(err, ErrUnknownSpeaker) {
		t.Fatalf("err = %v, want ErrUnknownSpeaker", err)
	}

	// With SkipUnknown the run succeeds and the utterance is dropped.
	opts = optsFor(dataFolder, t.TempDir())
	opts.SkipUnknown = true
	if err := Prepare(context.Background(), opts); err != nil {
		t.Fatalf("Prepare with SkipUnknown: %v", err)
	}
	train, err := dataio.LoadManifest(opts.SaveJSONTrain)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := train["99-1-0000"]; ok {
		t.Error("unknown-speaker utterance was not skipped")
	}
	if len(train) != 2 {
		t.Errorf("train manifest has %d entries, want 2", len(train))
	}
}
