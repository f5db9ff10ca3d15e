// Package runlog records training runs: run metadata with a
// hyperparameter snapshot, plus one stats record per epoch. Records
// live in a kv store (badger on disk, memory in tests) so past runs
// survive process restarts and can be listed from the CLI.
package runlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/genderid/pkg/kv"
	"github.com/haivivi/genderid/pkg/trainer"
)

// Key layout:
//
//	runs:<id>:meta           -> Meta (msgpack)
//	runs:<id>:epoch:<n>      -> EpochRecord (msgpack)
const runsPrefix = "runs"

// Meta describes one training run.
type Meta struct {
	ID        string    `msgpack:"id"`
	StartedAt time.Time `msgpack:"started_at"`
	Hparams   string    `msgpack:"hparams"` // YAML snapshot of the recipe
}

// EpochRecord is one epoch's outcome.
type EpochRecord struct {
	Epoch int             `msgpack:"epoch"`
	LR    float64         `msgpack:"lr"`
	Train trainer.Summary `msgpack:"train"`
	Valid trainer.Summary `msgpack:"valid"`
	At    time.Time       `msgpack:"at"`
}

// Log is a handle to the run database.
type Log struct {
	store kv.Store
}

// Open opens (creating if needed) a badger-backed log at dir.
func Open(dir string) (*Log, error) {
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", dir, err)
	}
	return &Log{store: store}, nil
}

// New wraps an existing store, typically kv.NewMemory in tests.
func New(store kv.Store) *Log {
	return &Log{store: store}
}

// Close releases the underlying store.
func (l *Log) Close() error { return l.store.Close() }

// Run is an open handle for appending to one training run.
type Run struct {
	meta  Meta
	store kv.Store
}

// Start registers a new run with a fresh id and the given
// hyperparameter snapshot.
func (l *Log) Start(ctx context.Context, hparamsYAML string) (*Run, error) {
	meta := Meta{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Hparams:   hparamsYAML,
	}
	data, err := msgpack.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("runlog: encode meta: %w", err)
	}
	if err := l.store.Set(ctx, kv.Key{runsPrefix, meta.ID, "meta"}, data); err != nil {
		return nil, fmt.Errorf("runlog: start run: %w", err)
	}
	return &Run{meta: meta, store: l.store}, nil
}

// ID returns the run's identifier.
func (r *Run) ID() string { return r.meta.ID }

// AppendEpoch records one completed epoch.
func (r *Run) AppendEpoch(ctx context.Context, rec EpochRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("runlog: encode epoch: %w", err)
	}
	key := kv.Key{runsPrefix, r.meta.ID, "epoch", fmt.Sprintf("%06d", rec.Epoch)}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("runlog: append epoch: %w", err)
	}
	return nil
}

// List returns metadata for every recorded run, newest first.
func (l *Log) List(ctx context.Context) ([]Meta, error) {
	var metas []Meta
	for entry, err := range l.store.List(ctx, kv.Key{runsPrefix}) {
		if err != nil {
			return nil, fmt.Errorf("runlog: list runs: %w", err)
		}
		if len(entry.Key) != 3 || entry.Key[2] != "meta" {
			continue
		}
		var m Meta
		if err := msgpack.Unmarshal(entry.Value, &m); err != nil {
			return nil, fmt.Errorf("runlog: decode run %s: %w", entry.Key, err)
		}
		metas = append(metas, m)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].StartedAt.After(metas[j].StartedAt) })
	return metas, nil
}

// Epochs returns the epoch records of one run in epoch order.
func (l *Log) Epochs(ctx context.Context, runID string) ([]EpochRecord, error) {
	var recs []EpochRecord
	for entry, err := range l.store.List(ctx, kv.Key{runsPrefix, runID, "epoch"}) {
		if err != nil {
			return nil, fmt.Errorf("runlog: list epochs: %w", err)
		}
		var rec EpochRecord
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			return nil, fmt.Errorf("runlog: decode epoch %s: %w", entry.Key, err)
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Epoch < recs[j].Epoch })
	return recs, nil
}
