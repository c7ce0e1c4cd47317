package vindex

import (
	"bytes"

	"github.com/RoaringBitmap/roaring"
	"github.com/wizenheimer/vindex/store"
)

// tombstoneKey names the blob holding indexName's serialized tombstone
// bitmap — DropIndex/OptimizeIndex and live queries both need a
// cheap "is this docId still live" check without rewriting every posting
// list on every delete.
func tombstoneKey(indexName string) []byte {
	return []byte("ts:" + indexName)
}

// TombstoneSet tracks soft-deleted docIds for one index using a
// roaring.Bitmap, the same compressed-bitmap structure the reference
// pack's document-set implementations build on: deletes are common and
// sparse relative to the docId space, which is exactly roaring's target
// case.
type TombstoneSet struct {
	backend   store.Backend
	indexName string
	bitmap    *roaring.Bitmap
}

// LoadTombstones reads indexName's tombstone bitmap from backend, starting
// empty if none has been written yet.
func LoadTombstones(backend store.Backend, indexName string) (*TombstoneSet, error) {
	ts := &TombstoneSet{backend: backend, indexName: indexName, bitmap: roaring.New()}
	raw, ok, err := backend.Get(tombstoneKey(indexName))
	if err != nil {
		return nil, &StoreError{Op: "Get(tombstones)", Err: err}
	}
	if ok && len(raw) > 0 {
		if _, err := ts.bitmap.ReadFrom(bytes.NewReader(raw)); err != nil {
			return nil, &StoreError{Op: "decode(tombstones)", Err: err}
		}
	}
	return ts, nil
}

// Mark soft-deletes docID and persists the updated bitmap.
func (ts *TombstoneSet) Mark(docID uint32) error {
	ts.bitmap.Add(docID)
	return ts.save()
}

// Unmark clears a soft-delete and persists the updated bitmap. The engine
// itself never calls it: OptimizeIndex and DropIndex clear the whole set.
func (ts *TombstoneSet) Unmark(docID uint32) error {
	ts.bitmap.Remove(docID)
	return ts.save()
}

// IsDeleted reports whether docID has been soft-deleted.
func (ts *TombstoneSet) IsDeleted(docID uint32) bool {
	return ts.bitmap.Contains(docID)
}

func (ts *TombstoneSet) save() error {
	raw, err := ts.bitmap.ToBytes()
	if err != nil {
		return &StoreError{Op: "encode(tombstones)", Err: err}
	}
	if err := ts.backend.Set(tombstoneKey(ts.indexName), raw); err != nil {
		return &StoreError{Op: "Set(tombstones)", Err: err}
	}
	return nil
}

// Clear removes the tombstone bitmap entirely, for DropIndex.
func (ts *TombstoneSet) Clear() error {
	ts.bitmap = roaring.New()
	if err := ts.backend.Delete(tombstoneKey(ts.indexName)); err != nil {
		return &StoreError{Op: "Delete(tombstones)", Err: err}
	}
	return nil
}

// tombstoneFilterIterator wraps an Iterator, silently skipping any docId
// present in a TombstoneSet so a deleted document never surfaces in query
// results even though its postings remain in the list until the next
// OptimizeIndex's compaction pass.
type tombstoneFilterIterator struct {
	inner Iterator
	ts    *TombstoneSet
}

func newTombstoneFilterIterator(inner Iterator, ts *TombstoneSet) Iterator {
	if ts == nil {
		return inner
	}
	return &tombstoneFilterIterator{inner: inner, ts: ts}
}

func (f *tombstoneFilterIterator) Read(out *IndexHit) (ReadStatus, error) {
	for {
		status, err := f.inner.Read(out)
		if status != StatusOK || err != nil {
			return status, err
		}
		if !f.ts.IsDeleted(out.DocID) {
			return StatusOK, nil
		}
	}
}

func (f *tombstoneFilterIterator) SkipTo(target uint32, out *IndexHit) (ReadStatus, error) {
	status, err := f.inner.SkipTo(target, out)
	for status == StatusOK && err == nil && f.ts.IsDeleted(out.DocID) {
		status, err = f.inner.Read(out)
		if status == StatusOK {
			status = StatusNotFound
		}
	}
	return status, err
}

func (f *tombstoneFilterIterator) LastDocID() uint32 { return f.inner.LastDocID() }
func (f *tombstoneFilterIterator) HasNext() bool      { return f.inner.HasNext() }
func (f *tombstoneFilterIterator) Free()              { f.inner.Free() }
