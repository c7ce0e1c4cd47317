package vindex

import (
	"testing"

	"github.com/wizenheimer/vindex/store"
)

func TestTombstoneSet_MarkAndPersist(t *testing.T) {
	backend := store.NewMemory()

	ts, err := LoadTombstones(backend, "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.IsDeleted(7) {
		t.Error("fresh tombstone set should report nothing deleted")
	}

	if err := ts.Mark(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.IsDeleted(7) {
		t.Error("7 should be marked deleted after Mark(7)")
	}

	reloaded, err := LoadTombstones(backend, "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reloaded.IsDeleted(7) {
		t.Error("tombstone mark should survive a reload from the backend")
	}

	if err := ts.Unmark(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.IsDeleted(7) {
		t.Error("7 should no longer be deleted after Unmark(7)")
	}
}

func TestTombstoneFilterIterator_SkipsDeleted(t *testing.T) {
	backend := store.NewMemory()
	ts, _ := LoadTombstones(backend, "idx")
	if err := ts.Mark(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inner := &sliceIterator{hits: []IndexHit{
		{DocID: 1}, {DocID: 2}, {DocID: 3},
	}}
	it := newTombstoneFilterIterator(inner, ts)

	var hit IndexHit
	var got []uint32
	for {
		status, err := it.Read(&hit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status == StatusEOF {
			break
		}
		got = append(got, hit.DocID)
	}
	assertUint32Slice(t, got, []uint32{1, 3})
}

func TestTombstoneSet_Clear(t *testing.T) {
	backend := store.NewMemory()
	ts, _ := LoadTombstones(backend, "idx")
	_ = ts.Mark(1)
	_ = ts.Mark(2)

	if err := ts.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.IsDeleted(1) || ts.IsDeleted(2) {
		t.Error("Clear should remove every tombstoned docId")
	}

	reloaded, err := LoadTombstones(backend, "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.IsDeleted(1) {
		t.Error("Clear should persist: reload should find no tombstones")
	}
}
