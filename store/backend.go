// Package store provides the pluggable key-value backing collaborator that
// the index, skip, score, numeric and document-metadata layers are built on
// top of. It is the concrete stand-in for the "backing store" the engine
// treats as an external dependency: blob get/set/append/truncate/delete, a
// sorted set with score-range scan, a hash, and a prefix scan.
package store

import "errors"

// ErrNotFound names a missing key or field. Memory and Bolt do not return
// it: their Get/HGet report absence with ok=false.
var ErrNotFound = errors.New("store: key not found")

// ZEntry is one member of a sorted set, as returned by ZRangeByScore.
type ZEntry struct {
	Member []byte
	Score  float64
}

// Backend is the collaborator contract every storage implementation must
// satisfy. Every method must be safe to call from a single goroutine per
// key; cross-goroutine
// safety for a shared Backend value is the implementation's responsibility
// (Memory guards its state with a mutex; Bolt runs each call in its own
// bbolt transaction).
type Backend interface {
	// Get returns the full current value of key, or ok=false if absent.
	Get(key []byte) (value []byte, ok bool, err error)
	// Set replaces the value of key wholesale.
	Set(key, value []byte) error
	// Append adds value to the end of the existing blob at key, creating
	// it if absent.
	Append(key, value []byte) error
	// Truncate shortens the blob at key to newLen bytes. newLen must not
	// exceed the current length.
	Truncate(key []byte, newLen int) error
	// Delete removes key entirely.
	Delete(key []byte) error
	// PrefixScan returns every key in the blob key-space starting with
	// prefix, in no particular order.
	PrefixScan(prefix []byte) (keys [][]byte, err error)

	// ZAdd inserts or updates member's score in the sorted set named set.
	ZAdd(set []byte, score float64, member []byte) error
	// ZRangeByScore returns every member of set with min <= score <= max,
	// ordered by ascending score.
	ZRangeByScore(set []byte, min, max float64) ([]ZEntry, error)
	// ZRemoveAll deletes the sorted set named set entirely.
	ZRemoveAll(set []byte) error

	// HGet reads one field of the hash named hash.
	HGet(hash, field []byte) (value []byte, ok bool, err error)
	// HSet writes one field of the hash named hash.
	HSet(hash, field, value []byte) error
	// HDelete removes the hash named hash entirely.
	HDelete(hash []byte) error

	Close() error
}
