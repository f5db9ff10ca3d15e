package dataio

import (
	"fmt"
	"iter"
	"math/rand/v2"
)

// Options configures the audio and label pipelines of a Dataset.
type Options struct {
	DataRoot    string  // substituted for {data_root} in wav paths
	SampleRate  int     // pipeline sample rate in Hz
	SentenceLen float64 // training chunk length in seconds
	RandomChunk bool    // cut a random fixed-length window in training mode
	Encoder     *CategoricalEncoder
}

// Dataset is one split of the corpus plus its processing pipeline.
// Training-mode datasets cut fixed-length chunks; validation and test
// datasets yield whole utterances.
type Dataset struct {
	ids      []string
	manifest Manifest
	opts     Options
	training bool
}

// NewDataset wraps a manifest. training selects the chunking behavior.
func NewDataset(m Manifest, opts Options, training bool) *Dataset {
	return &Dataset{ids: m.IDs(), manifest: m, opts: opts, training: training}
}

// LoadDataset reads a manifest file and wraps it.
func LoadDataset(path string, opts Options, training bool) (*Dataset, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return NewDataset(m, opts, training), nil
}

// Len returns the number of utterances.
func (d *Dataset) Len() int { return len(d.ids) }

// GenderLabels returns the gender label of every utterance in id order.
// Used to seed the label encoder from the training split.
func (d *Dataset) GenderLabels() []string {
	labels := make([]string, len(d.ids))
	for i, id := range d.ids {
		labels[i] = d.manifest[id].GenderID
	}
	return labels
}

// Example is one processed utterance.
type Example struct {
	ID     string
	Sig    []float32
	Target float64 // encoded gender label
}

// Example loads, chunks and labels the i-th utterance. rng drives the
// random window selection and may be nil when chunking is disabled.
func (d *Dataset) Example(i int, rng *rand.Rand) (Example, error) {
	if i < 0 || i >= len(d.ids) {
		return Example{}, fmt.Errorf("dataio: example index %d out of range [0,%d)", i, len(d.ids))
	}
	id := d.ids[i]
	entry := d.manifest[id]

	sig, err := ReadAudio(entry.Resolve(d.opts.DataRoot), d.opts.SampleRate)
	if err != nil {
		return Example{}, fmt.Errorf("dataio: %s: %w", id, err)
	}

	target := TargetSamples(d.opts.SentenceLen, d.opts.SampleRate)
	sig = Chunk(sig, target, d.training && d.opts.RandomChunk, rng)

	ind, err := d.opts.Encoder.Encode(entry.GenderID)
	if err != nil {
		return Example{}, fmt.Errorf("dataio: %s: %w", id, err)
	}

	return Example{ID: id, Sig: sig, Target: float64(ind)}, nil
}

// Batch is a group of examples presented to the trainer together.
// Signals are zero-padded to the longest one in the batch; Lens holds
// each signal's real length relative to the padded length, so the
// padding frames can be excluded from normalization and pooling.
type Batch struct {
	IDs     []string
	Sigs    [][]float32
	Lens    []float64
	Targets []float64
}

// Batches iterates the dataset in batches of up to batchSize examples.
// With shuffle, the visiting order is re-drawn from rng; otherwise ids
// are visited in sorted order. A decode failure stops the iteration
// with an error.
func (d *Dataset) Batches(batchSize int, shuffle bool, rng *rand.Rand) iter.Seq2[Batch, error] {
	if batchSize <= 0 {
		batchSize = 1
	}
	return func(yield func(Batch, error) bool) {
		order := make([]int, len(d.ids))
		for i := range order {
			order[i] = i
		}
		if shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		for at := 0; at < len(order); at += batchSize {
			end := min(at+batchSize, len(order))

			batch := Batch{
				IDs:     make([]string, 0, end-at),
				Sigs:    make([][]float32, 0, end-at),
				Lens:    make([]float64, 0, end-at),
				Targets: make([]float64, 0, end-at),
			}
			maxLen := 0
			for _, i := range order[at:end] {
				ex, err := d.Example(i, rng)
				if err != nil {
					yield(Batch{}, err)
					return
				}
				batch.IDs = append(batch.IDs, ex.ID)
				batch.Sigs = append(batch.Sigs, ex.Sig)
				batch.Targets = append(batch.Targets, ex.Target)
				maxLen = max(maxLen, len(ex.Sig))
			}
			for i, sig := range batch.Sigs {
				batch.Lens = append(batch.Lens, float64(len(sig))/float64(maxLen))
				if len(sig) < maxLen {
					padded := make([]float32, maxLen)
					copy(padded, sig)
					batch.Sigs[i] = padded
				}
			}

			if !yield(batch, nil) {
				return
			}
		}
	}
}
