package dataio

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownLabel is returned when encoding a label the encoder has
// never seen.
var ErrUnknownLabel = errors.New("dataio: unknown label")

// CategoricalEncoder assigns a stable integer index to each distinct
// label. Once persisted, reloading reproduces the exact same mapping,
// so checkpoints trained against it stay valid across restarts.
type CategoricalEncoder struct {
	lab2ind map[string]int
	ind2lab []string
}

// NewCategoricalEncoder returns an empty encoder.
func NewCategoricalEncoder() *CategoricalEncoder {
	return &CategoricalEncoder{lab2ind: make(map[string]int)}
}

// Update inserts labels that are not yet known, in sorted order of the
// unseen labels, so the derived mapping does not depend on map
// iteration or corpus file order.
func (c *CategoricalEncoder) Update(labels []string) {
	var unseen []string
	seen := make(map[string]bool)
	for _, lab := range labels {
		if _, ok := c.lab2ind[lab]; !ok && !seen[lab] {
			unseen = append(unseen, lab)
			seen[lab] = true
		}
	}
	sort.Strings(unseen)
	for _, lab := range unseen {
		c.lab2ind[lab] = len(c.ind2lab)
		c.ind2lab = append(c.ind2lab, lab)
	}
}

// Encode returns the index for a label.
func (c *CategoricalEncoder) Encode(label string) (int, error) {
	ind, ok := c.lab2ind[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return ind, nil
}

// Decode returns the label for an index.
func (c *CategoricalEncoder) Decode(ind int) (string, error) {
	if ind < 0 || ind >= len(c.ind2lab) {
		return "", fmt.Errorf("dataio: index %d out of range [0,%d)", ind, len(c.ind2lab))
	}
	return c.ind2lab[ind], nil
}

// Len returns the number of known labels.
func (c *CategoricalEncoder) Len() int { return len(c.ind2lab) }

// Labels returns the known labels in index order.
func (c *CategoricalEncoder) Labels() []string {
	return append([]string(nil), c.ind2lab...)
}

// LoadOrCreate loads the persisted label table from path if it exists;
// otherwise it derives the mapping from labels and persists it. This is
// the only supported way to build the encoder for a training run: the
// on-disk table wins over re-derivation so index assignments survive
// restarts.
func (c *CategoricalEncoder) LoadOrCreate(path string, labels []string) error {
	err := c.Load(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	c.Update(labels)
	return c.Save(path)
}

// Load reads a persisted label table. Lines have the form
//
//	"F" 0
//
// with the label quoted and the index decimal.
func (c *CategoricalEncoder) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lab2ind := make(map[string]int)
	var pairs []struct {
		lab string
		ind int
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, " ")
		if sep < 0 {
			return fmt.Errorf("dataio: malformed encoder line %q in %s", line, path)
		}
		lab, err := strconv.Unquote(line[:sep])
		if err != nil {
			return fmt.Errorf("dataio: malformed label in %q: %w", line, err)
		}
		ind, err := strconv.Atoi(line[sep+1:])
		if err != nil {
			return fmt.Errorf("dataio: malformed index in %q: %w", line, err)
		}
		lab2ind[lab] = ind
		pairs = append(pairs, struct {
			lab string
			ind int
		}{lab, ind})
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("dataio: read encoder %s: %w", path, err)
	}

	ind2lab := make([]string, len(pairs))
	for _, p := range pairs {
		if p.ind < 0 || p.ind >= len(pairs) || ind2lab[p.ind] != "" {
			return fmt.Errorf("dataio: encoder %s: indices are not a dense 0..%d range", path, len(pairs)-1)
		}
		ind2lab[p.ind] = p.lab
	}
	c.lab2ind = lab2ind
	c.ind2lab = ind2lab
	return nil
}

// Save persists the label table to path.
func (c *CategoricalEncoder) Save(path string) error {
	var b strings.Builder
	for ind, lab := range c.ind2lab {
		fmt.Fprintf(&b, "%q %d\n", lab, ind)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("dataio: write encoder: %w", err)
	}
	return nil
}
