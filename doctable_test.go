package vindex

import (
	"testing"

	"github.com/wizenheimer/vindex/store"
)

func TestDocTable_GetDocID_Idempotent(t *testing.T) {
	backend := store.NewMemory()
	dt := NewDocTable(backend, "idx")

	id1, created1, err := dt.GetDocID("doc/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created1 {
		t.Error("first GetDocID for a new key should report created=true")
	}

	id2, created2, err := dt.GetDocID("doc/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created2 {
		t.Error("second GetDocID for the same key should report created=false")
	}
	if id1 != id2 {
		t.Errorf("GetDocID(\"doc/a\") = %d then %d, want the same id both times", id1, id2)
	}

	id3, created3, err := dt.GetDocID("doc/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created3 || id3 == id1 {
		t.Errorf("GetDocID(\"doc/b\") = %d created=%v, want a fresh distinct id", id3, created3)
	}

	key, ok, err := dt.Key(id1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || key != "doc/a" {
		t.Errorf("Key(%d) = %q, %v, want \"doc/a\", true", id1, key, ok)
	}
}

func TestDocTable_Metadata_DefaultsToZero(t *testing.T) {
	backend := store.NewMemory()
	dt := NewDocTable(backend, "idx")

	meta, err := dt.Metadata(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != (DocumentMetadata{}) {
		t.Errorf("Metadata(unset) = %+v, want zero value", meta)
	}

	want := DocumentMetadata{Score: 1.5, Flags: 3}
	if err := dt.SetMetadata(42, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := dt.Metadata(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Metadata(42) = %+v, want %+v", got, want)
	}
}
