// Package hparams loads experiment hyperparameters from a YAML file
// with optional key=value command-line overrides.
package hparams

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/genderid/pkg/audio/fbank"
	"github.com/haivivi/genderid/pkg/augment"
)

// Hparams is the full experiment configuration. Field names mirror the
// keys of the YAML recipe file.
type Hparams struct {
	Seed uint64 `yaml:"seed"`

	DataFolder   string `yaml:"data_folder"`
	OutputFolder string `yaml:"output_folder"`
	SaveFolder   string `yaml:"save_folder"`   // default <output_folder>/save
	RunLogFolder string `yaml:"runlog_folder"` // default <output_folder>/runlog

	TrainAnnotation string `yaml:"train_annotation"`
	ValidAnnotation string `yaml:"valid_annotation"`
	TestAnnotation  string `yaml:"test_annotation"`

	SkipPrep       bool   `yaml:"skip_prep"`
	SkipUnknown    bool   `yaml:"skip_unknown"`
	AudioExtension string `yaml:"audio_extension"`

	// CorpusArchive, when set, is a zip fetched through a FileStore
	// into data_folder if the corpus is missing. An s3_bucket turns
	// the source into S3; otherwise it is a local path.
	CorpusArchive string `yaml:"corpus_archive"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Prefix      string `yaml:"s3_prefix"`

	SampleRate  int     `yaml:"sample_rate"`
	SentenceLen float64 `yaml:"sentence_len"`
	RandomChunk bool    `yaml:"random_chunk"`

	Fbank fbank.Config `yaml:"fbank"`

	EmbeddingHidden int `yaml:"embedding_hidden"`
	EmbeddingDim    int `yaml:"embedding_dim"`

	Epochs               int     `yaml:"number_of_epochs"`
	BatchSize            int     `yaml:"batch_size"`
	LR                   float64 `yaml:"lr"`
	Momentum             float64 `yaml:"momentum"`
	AnnealFactor         float64 `yaml:"annealing_factor"`
	ImprovementThreshold float64 `yaml:"improvement_threshold"`
	Patience             int     `yaml:"patient"`
	KeepCheckpoints      int     `yaml:"keep_checkpoints"`

	Augment augment.Config `yaml:"augment"`
}

// Default returns the baseline recipe values.
func Default() Hparams {
	return Hparams{
		Seed:                 1986,
		OutputFolder:         "results/gender_id",
		TrainAnnotation:      "train.json",
		ValidAnnotation:      "valid.json",
		TestAnnotation:       "test.json",
		AudioExtension:       ".flac",
		SampleRate:           16000,
		SentenceLen:          3.0,
		RandomChunk:          true,
		Fbank:                fbank.DefaultConfig(),
		EmbeddingHidden:      192,
		EmbeddingDim:         64,
		Epochs:               5,
		BatchSize:            16,
		LR:                   0.01,
		AnnealFactor:         0.5,
		ImprovementThreshold: 0.0025,
		KeepCheckpoints:      1,
	}
}

// Load reads path, applies overrides of the form `key=value` (nested
// keys use dots, e.g. `fbank.num_mels=80`), fills derived defaults and
// validates.
func Load(path string, overrides []string) (*Hparams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hparams: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("hparams: parse %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	for _, ov := range overrides {
		if err := applyOverride(raw, ov); err != nil {
			return nil, err
		}
	}

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("hparams: merge overrides: %w", err)
	}
	h := Default()
	if err := yaml.Unmarshal(merged, &h); err != nil {
		return nil, fmt.Errorf("hparams: apply %s: %w", path, err)
	}

	h.fillDerived()
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// applyOverride sets one dotted-path key in the raw config tree. The
// value is parsed as YAML so numbers, booleans and lists work.
func applyOverride(raw map[string]any, ov string) error {
	key, val, ok := strings.Cut(ov, "=")
	if !ok || key == "" {
		return fmt.Errorf("hparams: override %q must be key=value", ov)
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(val), &parsed); err != nil {
		parsed = val
	}

	parts := strings.Split(key, ".")
	node := raw
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = parsed
	return nil
}

func (h *Hparams) fillDerived() {
	if h.SaveFolder == "" && h.OutputFolder != "" {
		h.SaveFolder = filepath.Join(h.OutputFolder, "save")
	}
	if h.RunLogFolder == "" && h.OutputFolder != "" {
		h.RunLogFolder = filepath.Join(h.OutputFolder, "runlog")
	}
	if h.Fbank.SampleRate == 0 {
		h.Fbank.SampleRate = h.SampleRate
	}
}

// Validate rejects configurations the pipeline cannot run.
func (h *Hparams) Validate() error {
	if h.DataFolder == "" {
		return fmt.Errorf("hparams: data_folder is required")
	}
	if h.SampleRate <= 0 {
		return fmt.Errorf("hparams: sample_rate must be positive, got %d", h.SampleRate)
	}
	if h.SentenceLen <= 0 {
		return fmt.Errorf("hparams: sentence_len must be positive, got %v", h.SentenceLen)
	}
	if h.Epochs <= 0 {
		return fmt.Errorf("hparams: number_of_epochs must be positive, got %d", h.Epochs)
	}
	if h.BatchSize <= 0 {
		return fmt.Errorf("hparams: batch_size must be positive, got %d", h.BatchSize)
	}
	if h.Fbank.SampleRate != h.SampleRate {
		return fmt.Errorf("hparams: fbank.sample_rate %d differs from sample_rate %d", h.Fbank.SampleRate, h.SampleRate)
	}
	return nil
}

// ManifestPaths returns the absolute train, valid and test manifest
// paths under the output folder.
func (h *Hparams) ManifestPaths() (train, valid, test string) {
	return filepath.Join(h.OutputFolder, h.TrainAnnotation),
		filepath.Join(h.OutputFolder, h.ValidAnnotation),
		filepath.Join(h.OutputFolder, h.TestAnnotation)
}
