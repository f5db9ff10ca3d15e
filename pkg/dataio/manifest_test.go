package dataio

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestManifestSaveLoad(t *testing.T) {
	m := Manifest{
		"19-198-0000": {
			Wav:      "{data_root}/LibriSpeech/train/19/198/19-198-0000.flac",
			Duration: 3.2,
			SpkID:    "19",
			GenderID: "F",
		},
		"26-495-0001": {
			Wav:      "{data_root}/LibriSpeech/train/26/495/26-495-0001.flac",
			Duration: 1.05,
			SpkID:    "26",
			GenderID: "M",
		},
	}

	path := filepath.Join(t.TempDir(), "train.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	e := got["19-198-0000"]
	if e.Duration != 3.2 || e.SpkID != "19" || e.GenderID != "F" {
		t.Errorf("entry = %+v", e)
	}
}

func TestEntryResolve(t *testing.T) {
	e := Entry{Wav: "{data_root}/LibriSpeech/train/19/198/19-198-0000.flac"}
	got := e.Resolve("/corpora/mini")
	want := "/corpora/mini/LibriSpeech/train/19/198/19-198-0000.flac"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestManifestIDsSorted(t *testing.T) {
	m := Manifest{"b": {}, "a": {}, "c": {}}
	ids := m.IDs()
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("IDs = %v, want sorted", ids)
	}
}

func TestManifestValidate(t *testing.T) {
	good := Manifest{"u1": {Wav: "x.wav", Duration: 1, GenderID: "F"}}
	if err := good.Validate(); err != nil {
		t.Errorf("valid manifest rejected: %v", err)
	}
	bad := Manifest{"u1": {Wav: "", Duration: 0, GenderID: ""}}
	if err := bad.Validate(); err == nil {
		t.Error("invalid manifest accepted")
	}
}
