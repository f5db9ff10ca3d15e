package dataio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncoderUpdateAndEncode(t *testing.T) {
	enc := NewCategoricalEncoder()
	enc.Update([]string{"M", "F", "M", "F", "F"})

	if enc.Len() != 2 {
		t.Fatalf("Len = %d, want 2", enc.Len())
	}
	// Unseen labels enter in sorted order: F=0, M=1.
	f, err := enc.Encode("F")
	if err != nil || f != 0 {
		t.Errorf("Encode(F) = %d, %v, want 0", f, err)
	}
	m, err := enc.Encode("M")
	if err != nil || m != 1 {
		t.Errorf("Encode(M) = %d, %v, want 1", m, err)
	}
	if _, err := enc.Encode("X"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Encode(X) err = %v, want ErrUnknownLabel", err)
	}
	lab, err := enc.Decode(1)
	if err != nil || lab != "M" {
		t.Errorf("Decode(1) = %q, %v, want M", lab, err)
	}
}

func TestEncoderRoundTripStability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_encoder.txt")

	enc := NewCategoricalEncoder()
	if err := enc.LoadOrCreate(path, []string{"M", "F"}); err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	// Reload with a different label order: persisted table must win.
	reloaded := NewCategoricalEncoder()
	if err := reloaded.LoadOrCreate(path, []string{"Z", "A", "Q"}); err != nil {
		t.Fatalf("LoadOrCreate (reload): %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded Len = %d, want 2", reloaded.Len())
	}
	for _, lab := range []string{"F", "M"} {
		want, _ := enc.Encode(lab)
		got, err := reloaded.Encode(lab)
		if err != nil || got != want {
			t.Errorf("reloaded Encode(%s) = %d, %v, want %d", lab, got, err, want)
		}
	}
}

func TestEncoderLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_encoder.txt")
	if err := os.WriteFile(path, []byte("no-index-here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewCategoricalEncoder().Load(path); err == nil {
		t.Error("expected error for malformed table")
	}
}

func TestEncoderLoadSparseIndices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_encoder.txt")
	if err := os.WriteFile(path, []byte("\"F\" 0\n\"M\" 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewCategoricalEncoder().Load(path); err == nil {
		t.Error("expected error for sparse index range")
	}
}
