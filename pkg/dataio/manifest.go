// Package dataio loads dataset manifests and turns them into batches of
// training examples: JSON manifest parsing, categorical label encoding,
// waveform chunk selection and audio decoding.
package dataio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DataRootVar is the placeholder used in manifest wav paths. It is
// substituted with the corpus location at load time, so manifests stay
// portable across machines.
const DataRootVar = "{data_root}"

// Entry describes one utterance of a dataset split.
type Entry struct {
	Wav      string  `json:"wav"`       // audio path, usually templated with {data_root}
	Duration float64 `json:"duration"`  // length in seconds
	SpkID    string  `json:"spk_id"`    // speaker id
	GenderID string  `json:"gender_id"` // gender label ("F" or "M")
}

// Manifest maps utterance ids to their entries.
type Manifest map[string]Entry

// LoadManifest reads a manifest JSON file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataio: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("dataio: parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Save writes the manifest as indented JSON. Keys are sorted by
// encoding/json, so output is deterministic.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("dataio: encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dataio: write manifest: %w", err)
	}
	return nil
}

// IDs returns the utterance ids in sorted order.
func (m Manifest) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve returns the filesystem path for an entry, substituting the
// {data_root} placeholder.
func (e Entry) Resolve(dataRoot string) string {
	return strings.ReplaceAll(e.Wav, DataRootVar, dataRoot)
}

// Validate checks that every entry carries a wav path, a positive
// duration, and a non-empty gender label.
func (m Manifest) Validate() error {
	var errs []error
	for id, e := range m {
		if e.Wav == "" {
			errs = append(errs, fmt.Errorf("dataio: %s: empty wav path", id))
		}
		if e.Duration <= 0 {
			errs = append(errs, fmt.Errorf("dataio: %s: non-positive duration %v", id, e.Duration))
		}
		if e.GenderID == "" {
			errs = append(errs, fmt.Errorf("dataio: %s: empty gender_id", id))
		}
	}
	return errors.Join(errs...)
}
