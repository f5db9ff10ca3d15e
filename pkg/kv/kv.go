// Package kv provides a small key-value store with hierarchical keys,
// used by the experiment run log. Keys are string slices (e.g.
// ["runs", runID, "epoch", "0003"]) joined with ':' for storage.
//
// The BadgerDB implementation persists run history on disk; the
// in-memory implementation backs tests.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form. Segments must not
// contain it.
const Separator = ":"

// Key is a hierarchical path represented as a slice of string segments.
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string { return strings.Join(k, Separator) }

// parseKey splits an encoded key back into segments.
func parseKey(s string) Key { return strings.Split(s, Separator) }

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the interface for a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries whose key starts with the given
	// prefix (segment-wise), in lexicographic order of the encoded key.
	// An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}

// prefixBytes returns the encoded prefix with a trailing separator, so
// that prefix ["a","b"] does not match key ["a","bc"]. An empty prefix
// yields nil, matching everything.
func prefixBytes(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return []byte(prefix.String() + Separator)
}
