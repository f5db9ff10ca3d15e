package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/genderid/pkg/nnet"
)

const (
	ckptPrefix    = "CKPT-"
	ckptStateFile = "state.msgpack"
)

// State is everything needed to resume or evaluate a training run.
type State struct {
	Name       string            `msgpack:"-"`
	Epoch      int               `msgpack:"epoch"`
	Metric     float64           `msgpack:"metric"`
	SavedAt    time.Time         `msgpack:"saved_at"`
	Embedding  []nnet.LayerState `msgpack:"embedding"`
	Classifier []nnet.LayerState `msgpack:"classifier"`
	Optimizer  nnet.SGDState     `msgpack:"optimizer"`
	Scheduler  nnet.NewBobState  `msgpack:"scheduler"`
}

// Checkpointer persists States under dir, one `CKPT-<name>` directory
// per checkpoint with a msgpack state file inside.
type Checkpointer struct {
	dir string
}

// NewCheckpointer creates the save directory if needed.
func NewCheckpointer(dir string) (*Checkpointer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trainer: create checkpoint dir: %w", err)
	}
	return &Checkpointer{dir: dir}, nil
}

func (c *Checkpointer) path(name string) string {
	return filepath.Join(c.dir, ckptPrefix+name)
}

// Save writes s as CKPT-epoch-<n>, overwriting any previous checkpoint
// of the same epoch.
func (c *Checkpointer) Save(s *State) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	s.Name = fmt.Sprintf("epoch-%04d", s.Epoch)

	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("trainer: encode checkpoint: %w", err)
	}
	dir := c.path(s.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("trainer: create checkpoint: %w", err)
	}
	tmp := filepath.Join(dir, ckptStateFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("trainer: write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, ckptStateFile)); err != nil {
		return fmt.Errorf("trainer: write checkpoint: %w", err)
	}
	return nil
}

// SaveAndKeepOnly saves s, then deletes all but the keep best
// checkpoints by lowest Metric. The one just saved may itself be
// deleted if it is not among the best.
func (c *Checkpointer) SaveAndKeepOnly(s *State, keep int) error {
	if err := c.Save(s); err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}
	states, err := c.List()
	if err != nil {
		return err
	}
	if len(states) <= keep {
		return nil
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Metric < states[j].Metric })
	for _, st := range states[keep:] {
		if err := os.RemoveAll(c.path(st.Name)); err != nil {
			return fmt.Errorf("trainer: prune checkpoint %s: %w", st.Name, err)
		}
	}
	return nil
}

// List loads every checkpoint state under the save directory.
func (c *Checkpointer) List() ([]*State, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("trainer: list checkpoints: %w", err)
	}
	var states []*State
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), ckptPrefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, e.Name(), ckptStateFile))
		if err != nil {
			return nil, fmt.Errorf("trainer: read checkpoint %s: %w", e.Name(), err)
		}
		var s State
		if err := msgpack.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("trainer: decode checkpoint %s: %w", e.Name(), err)
		}
		s.Name = strings.TrimPrefix(e.Name(), ckptPrefix)
		states = append(states, &s)
	}
	return states, nil
}

// RecoverIfPossible returns the most recently saved checkpoint, or nil
// when none exists.
func (c *Checkpointer) RecoverIfPossible() (*State, error) {
	states, err := c.List()
	if err != nil {
		return nil, err
	}
	var newest *State
	for _, s := range states {
		if newest == nil || s.SavedAt.After(newest.SavedAt) {
			newest = s
		}
	}
	return newest, nil
}

// FindBest returns the checkpoint with the lowest Metric, or nil when
// none exists.
func (c *Checkpointer) FindBest() (*State, error) {
	states, err := c.List()
	if err != nil {
		return nil, err
	}
	var best *State
	for _, s := range states {
		if best == nil || s.Metric < best.Metric {
			best = s
		}
	}
	return best, nil
}
