package vindex

import (
	"context"
	"testing"

	"github.com/wizenheimer/vindex/store"
)

func newTestEngine() *Engine {
	return NewEngine(store.NewMemory())
}

func TestEngine_IndexAndQuery(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	docs := map[string]string{
		"doc/1": "the quick brown fox",
		"doc/2": "quick brown dog",
		"doc/3": "lazy cat",
	}
	for key, body := range docs {
		if _, err := e.IndexDocument("articles", key, map[string]string{"body": body}, DocumentMetadata{}); err != nil {
			t.Fatalf("IndexDocument(%q) error: %v", key, err)
		}
	}

	ids, total, err := e.Query(ctx, "articles", "quick brown", 0, 10, 0xFF, nil)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2 (doc/1 and doc/2 both contain quick+brown)", total)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 results", ids)
	}

	ids, total, err = e.Query(ctx, "articles", "lazy cat", 0, 10, 0xFF, nil)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if total != 1 || len(ids) != 1 {
		t.Fatalf("Query(\"lazy cat\") = %v, total=%d, want exactly 1 hit", ids, total)
	}
}

func TestEngine_DeleteDocumentHidesFromQuery(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	doc1, err := e.IndexDocument("articles", "doc/1", map[string]string{"body": "quick fox"}, DocumentMetadata{})
	if err != nil {
		t.Fatalf("IndexDocument error: %v", err)
	}
	if _, err := e.IndexDocument("articles", "doc/2", map[string]string{"body": "quick hare"}, DocumentMetadata{}); err != nil {
		t.Fatalf("IndexDocument error: %v", err)
	}

	if err := e.DeleteDocument("articles", doc1); err != nil {
		t.Fatalf("DeleteDocument error: %v", err)
	}

	ids, total, err := e.Query(ctx, "articles", "quick", 0, 10, 0xFF, nil)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if total != 1 || len(ids) != 1 || ids[0] != doc1+1 {
		t.Fatalf("Query after delete = ids=%v total=%d, want only doc/2 (id %d)", ids, total, doc1+1)
	}
}

func TestEngine_NumericFilter(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	prices := map[string]float64{"shoe/a": 4.0, "shoe/b": 9.0, "shoe/c": 15.0}
	for key, price := range prices {
		docID, err := e.IndexDocument("shop", key, map[string]string{"name": "shoe"}, DocumentMetadata{})
		if err != nil {
			t.Fatalf("IndexDocument error: %v", err)
		}
		if err := e.AddNumericField("shop", "price", docID, price); err != nil {
			t.Fatalf("AddNumericField error: %v", err)
		}
	}

	filter := &NumericFilter{Field: "price", Min: 5, Max: 20, InclusiveMin: true, InclusiveMax: true}
	ids, total, err := e.Query(ctx, "shop", "shoe", 0, 10, 0xFF, []*NumericFilter{filter})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if total != 2 || len(ids) != 2 {
		t.Fatalf("Query with filter = ids=%v total=%d, want 2 (shoe/b and shoe/c)", ids, total)
	}
}

func TestEngine_DropIndex(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	if _, err := e.IndexDocument("temp", "doc/1", map[string]string{"body": "hello world"}, DocumentMetadata{}); err != nil {
		t.Fatalf("IndexDocument error: %v", err)
	}
	if err := e.DropIndex("temp", true); err != nil {
		t.Fatalf("DropIndex error: %v", err)
	}

	ids, total, err := e.Query(ctx, "temp", "hello", 0, 10, 0xFF, nil)
	if err != nil {
		t.Fatalf("Query after DropIndex error: %v", err)
	}
	if total != 0 || len(ids) != 0 {
		t.Fatalf("Query after DropIndex = %v total=%d, want empty", ids, total)
	}
}

func TestEngine_OptimizeIndexCompactsTombstones(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	doc1, err := e.IndexDocument("articles", "doc/1", map[string]string{"body": "quick fox"}, DocumentMetadata{})
	if err != nil {
		t.Fatalf("IndexDocument error: %v", err)
	}
	if _, err := e.IndexDocument("articles", "doc/2", map[string]string{"body": "quick hare"}, DocumentMetadata{}); err != nil {
		t.Fatalf("IndexDocument error: %v", err)
	}
	if err := e.DeleteDocument("articles", doc1); err != nil {
		t.Fatalf("DeleteDocument error: %v", err)
	}
	if err := e.OptimizeIndex("articles"); err != nil {
		t.Fatalf("OptimizeIndex error: %v", err)
	}

	ids, total, err := e.Query(ctx, "articles", "quick", 0, 10, 0xFF, nil)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if total != 1 || len(ids) != 1 {
		t.Fatalf("Query after OptimizeIndex = %v total=%d, want only doc/2", ids, total)
	}
}
