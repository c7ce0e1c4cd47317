package vindex

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wizenheimer/vindex/store"
)

// Engine is the public entry point wiring together the backing store,
// writers, the iterator algebra, the query planner, the top-k executor and
// the numeric index registry. One Engine instance is meant to be
// shared across queries against the same backend.
type Engine struct {
	backend  store.Backend
	numerics *NumericIndexRegistry
}

// NewEngine wraps backend. log/slog is used directly by the components
// Engine wires together (writer.go, read_iterator.go); Engine itself does
// not need its own logger field.
func NewEngine(backend store.Backend) *Engine {
	return &Engine{backend: backend, numerics: NewNumericIndexRegistry()}
}

// OpenWriter begins (or resumes) writing postings for term in indexName.
func (e *Engine) OpenWriter(indexName, term string) (*Writer, error) {
	return OpenWriter(e.backend, indexName, term)
}

// CloseWriter flushes w's postings, skip index and score index.
func (e *Engine) CloseWriter(w *Writer) error {
	return w.Close()
}

// IndexDocument tokenizes each named field of a document via Analyze
// and appends one posting per distinct term to that term's writer,
// with fieldMask set to the bit assigned to the field it occurred in
// (fields beyond the 8th share fieldMask bit 7, since fieldMask is a
// single byte). key is the caller's external document identifier; its
// docId is minted or resolved via DocTable.GetDocID.
func (e *Engine) IndexDocument(indexName, key string, fields map[string]string, meta DocumentMetadata) (docID uint32, err error) {
	dt := e.DocTable(indexName)
	docID, _, err = dt.GetDocID(key)
	if err != nil {
		return 0, err
	}
	if err := dt.SetMetadata(docID, meta); err != nil {
		return 0, err
	}

	fieldNames := make([]string, 0, len(fields))
	for name := range fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	termPositions := make(map[string][]uint32)
	termFieldMask := make(map[string]uint8)
	var position uint32
	for bitIdx, name := range fieldNames {
		bit := uint8(1) << uint(min(bitIdx, 7))
		for _, term := range Analyze(fields[name]) {
			termPositions[term] = append(termPositions[term], position)
			termFieldMask[term] |= bit
			position++
		}
	}

	for term, positions := range termPositions {
		w, err := e.OpenWriter(indexName, term)
		if err != nil {
			return 0, err
		}
		if err := w.Add(Posting{
			DocID:     docID,
			FieldMask: termFieldMask[term],
			TotalFreq: float32(len(positions)),
			Offsets:   EncodeOffsets(positions),
		}); err != nil {
			return 0, err
		}
		if err := e.CloseWriter(w); err != nil {
			return 0, err
		}
	}

	return docID, nil
}

// AddNumericField records docID's value for field in indexName, updating
// any already-cached NumericRangeTree in place.
func (e *Engine) AddNumericField(indexName, field string, docID uint32, score float64) error {
	if err := e.registerNumericField(indexName, field); err != nil {
		return err
	}
	return AddNumeric(e.backend, e.numerics, indexName, field, docID, score)
}

// registerNumericField records field in indexName's numeric-field list, so
// DropIndex can later find and clear its sorted set (zset key-spaces are
// not enumerable via PrefixScan the way blob keys are).
func (e *Engine) registerNumericField(indexName, field string) error {
	fields, err := e.listNumericFields(indexName)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f == field {
			return nil
		}
	}
	fields = append(fields, field)
	return e.backend.Set(numericFieldsKey(indexName), []byte(strings.Join(fields, "\n")))
}

func (e *Engine) listNumericFields(indexName string) ([]string, error) {
	raw, ok, err := e.backend.Get(numericFieldsKey(indexName))
	if err != nil {
		return nil, &StoreError{Op: "Get(numeric fields)", Err: err}
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	return strings.Split(string(raw), "\n"), nil
}

// DocTable returns the document-metadata/key-mapping collaborator for
// indexName.
func (e *Engine) DocTable(indexName string) *DocTable {
	return NewDocTable(e.backend, indexName)
}

// DeleteDocument soft-deletes docID within indexName: its postings remain
// in every term's list until the next OptimizeIndex, but queries stop
// returning it immediately.
func (e *Engine) DeleteDocument(indexName string, docID uint32) error {
	ts, err := LoadTombstones(e.backend, indexName)
	if err != nil {
		return err
	}
	return ts.Mark(docID)
}

// InvalidateNumericField forces the next numeric query against
// (indexName, field) to rebuild its NumericRangeTree from the backing
// store, for use after a bulk load bypassing AddNumericField.
func (e *Engine) InvalidateNumericField(indexName, field string) {
	e.numerics.Invalidate(indexName, field)
}

// OpenReader opens a ReadIterator for term in indexName, choosing
// single-word (score-ordered) mode when requested and available.
// fieldMask restricts which document fields count as a match;
// 0xFF means no restriction.
func (e *Engine) OpenReader(indexName, term string, fieldMask uint8, singleWord bool) (Iterator, error) {
	raw, ok, err := e.backend.Get(termKey(indexName, term))
	if err != nil {
		return nil, &StoreError{Op: "Get(posting list)", Err: err}
	}
	if !ok {
		return &ReadIterator{eof: true}, nil
	}
	postingsBuf := NewMemoryBuffer(raw, ModeRead)

	if singleWord {
		scoreRaw, ok, err := e.backend.Get(scoreIndexKey(indexName, term))
		if err != nil {
			return nil, &StoreError{Op: "Get(score index)", Err: err}
		}
		if ok {
			score, err := DecodeScoreIndex(scoreRaw)
			if err != nil {
				slog.Warn("score index decode error, falling back to sequential mode", "index", indexName, "term", term, "err", err)
			} else {
				return NewScoreOrderedReadIterator(term, postingsBuf, score, fieldMask), nil
			}
		}
	}

	var skip *SkipIndex
	if skipRaw, ok, err := e.backend.Get(skipIndexKey(indexName, term)); err != nil {
		return nil, &StoreError{Op: "Get(skip index)", Err: err}
	} else if ok {
		skip, err = DecodeSkipIndex(skipRaw)
		if err != nil {
			slog.Warn("skip index decode error, ignoring", "index", indexName, "term", term, "err", err)
			skip = nil
		}
	}

	return NewReadIterator(term, postingsBuf, skip, fieldMask), nil
}

// evalStage recursively evaluates a QueryStage into an Iterator.
// singleWord is true only for the whole-query single-word
// optimization, and only ever applies to the one Load leaf it qualifies.
func (e *Engine) evalStage(stage *QueryStage, indexName string, fieldMask uint8, singleWord bool) (Iterator, error) {
	switch stage.Op {
	case OpLoad:
		// Posting lists are keyed by stemmed terms (IndexDocument runs
		// Analyze), so the query word is stemmed the same way here.
		term := stemmerFilter([]string{stage.Value})[0]
		return e.OpenReader(indexName, term, fieldMask, singleWord)

	case OpNumeric:
		tree, err := e.numerics.Get(e.backend, indexName, stage.Field)
		if err != nil {
			return nil, err
		}
		return NewNumericIterator(tree, stage.Filter), nil

	case OpIntersect, OpExact:
		children, err := e.evalChildren(stage, indexName, fieldMask)
		if err != nil {
			return nil, err
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return NewIntersectIterator(children, stage.Op == OpExact, fieldMask), nil

	case OpUnion:
		children, err := e.evalChildren(stage, indexName, fieldMask)
		if err != nil {
			return nil, err
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return NewUnionIterator(children), nil

	default:
		return nil, fmt.Errorf("%w: unknown stage op %d", ErrInternal, stage.Op)
	}
}

func (e *Engine) evalChildren(stage *QueryStage, indexName string, fieldMask uint8) ([]Iterator, error) {
	children := make([]Iterator, 0, len(stage.Children))
	for _, c := range stage.Children {
		it, err := e.evalStage(c, indexName, fieldMask, false)
		if err != nil {
			for _, done := range children {
				done.Free()
			}
			return nil, err
		}
		children = append(children, it)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: stage has no children", ErrInternal)
	}
	return children, nil
}

// Query parses text into a stage tree, evaluates it to a single iterator
// tree rooted in indexName's backing store, and drains the top-k executor
// over it. total is the number of documents that matched
// before the offset/limit window was applied. ctx is not currently
// consulted mid-evaluation — there are no suspension points within iterator
// methods — but is accepted for parity with every other blocking entry
// point and to leave room for a future cancellation check between stages.
func (e *Engine) Query(ctx context.Context, indexName, text string, offset, limit int, fieldMask uint8, filters []*NumericFilter) (ids []uint32, total int, err error) {
	results, total, err := e.QueryScored(ctx, indexName, text, offset, limit, fieldMask, filters)
	if err != nil {
		return nil, total, err
	}
	ids = make([]uint32, len(results))
	for i, r := range results {
		ids[i] = r.DocID
	}
	return ids, total, nil
}

// QueryScored is Query's score-carrying variant, for callers (and tests)
// that want the finalScore behind each ranked docId rather than just the
// ordered id list.
func (e *Engine) QueryScored(ctx context.Context, indexName, text string, offset, limit int, fieldMask uint8, filters []*NumericFilter) ([]ScoredResult, int, error) {
	if fieldMask == 0 {
		fieldMask = 0xFF
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	root, numTokens, err := BuildQueryTree(text, fieldMask, filters)
	if err != nil {
		return nil, 0, err
	}
	singleWord := IsSingleWord(root, numTokens, fieldMask)

	var it Iterator
	if singleWord {
		it, err = e.evalStage(root.Children[0], indexName, fieldMask, true)
	} else {
		it, err = e.evalStage(root, indexName, fieldMask, false)
	}
	if err != nil {
		return nil, 0, err
	}
	defer it.Free()

	ts, err := LoadTombstones(e.backend, indexName)
	if err != nil {
		return nil, 0, err
	}
	it = newTombstoneFilterIterator(it, ts)

	dt := e.DocTable(indexName)
	docScore := func(docID uint32) (float32, error) {
		meta, err := dt.Metadata(docID)
		if err != nil {
			return 0, err
		}
		return 1 + meta.Score, nil
	}

	if limit <= 0 {
		limit = 10
	}
	return ExecuteTopK(it, offset, limit, docScore)
}

// DropIndex removes every term, skip index, score index and numeric index
// belonging to indexName, and invalidates any cached NumericRangeTrees for
// it. When deleteDocuments is true it also wipes the doc-key
// map, document metadata and docId counter; when false those survive so a
// re-created index with the same name continues minting fresh docIds and
// keeps existing key<->docId assignments and metadata.
func (e *Engine) DropIndex(indexName string, deleteDocuments bool) error {
	prefixes := [][]byte{[]byte(indexName + "/"), []byte("si:" + indexName + "/"), []byte("ss:" + indexName + "/")}
	for _, prefix := range prefixes {
		keys, err := e.backend.PrefixScan(prefix)
		if err != nil {
			return &StoreError{Op: "PrefixScan(drop index)", Err: err}
		}
		for _, k := range keys {
			if err := e.backend.Delete(k); err != nil {
				return &StoreError{Op: "Delete(drop index)", Err: err}
			}
		}
	}

	fields, err := e.listNumericFields(indexName)
	if err != nil {
		return err
	}
	for _, field := range fields {
		if err := e.backend.ZRemoveAll(numericIndexKey(indexName, field)); err != nil {
			return &StoreError{Op: "ZRemoveAll(drop numeric)", Err: err}
		}
		e.numerics.Invalidate(indexName, field)
	}
	if err := e.backend.Delete(numericFieldsKey(indexName)); err != nil {
		return &StoreError{Op: "Delete(drop numeric field list)", Err: err}
	}

	if deleteDocuments {
		for _, k := range [][]byte{docMetaKey(indexName), docKeyMapKey(indexName)} {
			if err := e.backend.HDelete(k); err != nil {
				return &StoreError{Op: "HDelete(drop index)", Err: err}
			}
		}
		if err := e.backend.Delete(docIDCounterKey(indexName)); err != nil {
			return &StoreError{Op: "Delete(drop index counter)", Err: err}
		}
	}

	ts, err := LoadTombstones(e.backend, indexName)
	if err != nil {
		return err
	}
	return ts.Clear()
}

// OptimizeIndex rewrites every term's posting list for indexName, dropping
// tombstoned documents entirely and recomputing the skip/score index per
// Writer.Close's threshold rule. Once a term is compacted its
// tombstoned docIds are no longer occupying space, so OptimizeIndex clears
// the tombstone bitmap afterward.
func (e *Engine) OptimizeIndex(indexName string) error {
	ts, err := LoadTombstones(e.backend, indexName)
	if err != nil {
		return err
	}

	keys, err := e.backend.PrefixScan([]byte(indexName + "/"))
	if err != nil {
		return &StoreError{Op: "PrefixScan(optimize index)", Err: err}
	}
	prefix := indexName + "/"
	for _, k := range keys {
		term := string(k)[len(prefix):]
		if err := e.compactTerm(indexName, term, ts); err != nil {
			return err
		}
	}

	return ts.Clear()
}

// compactTerm rewrites term's posting list from scratch, keeping only
// non-tombstoned postings, then flushes the rebuilt skip/score index.
func (e *Engine) compactTerm(indexName, term string, ts *TombstoneSet) error {
	raw, ok, err := e.backend.Get(termKey(indexName, term))
	if err != nil {
		return &StoreError{Op: "Get(posting list)", Err: err}
	}
	if !ok {
		return nil
	}

	buf := NewMemoryBuffer(raw, ModeRead)
	if err := e.backend.Delete(termKey(indexName, term)); err != nil {
		return &StoreError{Op: "Delete(posting list, pre-compact)", Err: err}
	}
	w, err := OpenWriter(e.backend, indexName, term)
	if err != nil {
		return err
	}

	var prev uint32
	for {
		atEnd, err := buf.AtEnd()
		if err != nil {
			return err
		}
		if atEnd {
			break
		}
		p, newPrev, err := DecodeOne(buf, prev)
		if err != nil {
			if IsEOF(err) {
				break
			}
			slog.Warn("compact: posting decode error, stopping early", "index", indexName, "term", term, "err", err)
			break
		}
		prev = newPrev
		if ts.IsDeleted(p.DocID) {
			continue
		}
		if err := w.Add(p); err != nil {
			return err
		}
	}

	return w.Close()
}
