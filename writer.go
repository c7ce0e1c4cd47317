package vindex

import (
	"log/slog"

	"github.com/wizenheimer/vindex/store"
)

// Writer accumulates postings for one term and flushes the posting list,
// skip index and score index to the backing store on Close. Ported from
// the source's IndexWriter / Redis_OpenWriter / Redis_CloseWriter
// (redis_index.c): the three artifacts are written together and closed
// together, but remain independently truncatable.
type Writer struct {
	indexName string
	term      string
	backend   store.Backend

	postings  []byte
	prevDocID uint32
	ndocs     int

	skip  SkipIndex
	score ScoreIndex
}

// OpenWriter opens (or resumes appending to) the posting list for term in
// indexName.
func OpenWriter(backend store.Backend, indexName, term string) (*Writer, error) {
	w := &Writer{indexName: indexName, term: term, backend: backend}

	if existing, ok, err := backend.Get(termKey(indexName, term)); err != nil {
		return nil, &StoreError{Op: "Get(posting list)", Err: err}
	} else if ok && len(existing) > 0 {
		buf := NewMemoryBuffer(existing, ModeRead)
		var prev uint32
		good := 0 // end of the last cleanly decoded record
		for {
			atEnd, _ := buf.AtEnd()
			if atEnd {
				break
			}
			p, newPrev, err := DecodeOne(buf, prev)
			if err != nil {
				if IsEOF(err) {
					break
				}
				slog.Warn("writer resume: posting decode error, truncating tail", "index", indexName, "term", term, "err", err)
				break
			}
			prev = newPrev
			good = buf.Offset()
			w.ndocs++
			w.score.Entries = append(w.score.Entries, ScoreIndexEntry{DocID: p.DocID, TotalFreq: p.TotalFreq})
		}
		w.postings = existing[:good]
		w.prevDocID = prev
	}

	return w, nil
}

// Add appends one posting to the term's list, recording a skip-index
// sample every SKIP_INTERVAL documents and a score-index candidate for
// every document.
func (w *Writer) Add(p Posting) error {
	if p.DocID <= w.prevDocID && w.ndocs > 0 {
		return errAscendingDocID
	}

	if w.ndocs%SKIP_INTERVAL == 0 {
		w.skip.Entries = append(w.skip.Entries, SkipEntry{DocID: p.DocID, ByteOffset: uint32(len(w.postings))})
	}

	w.postings = EncodeOne(w.postings, p, w.prevDocID)
	w.score.Entries = append(w.score.Entries, ScoreIndexEntry{DocID: p.DocID, TotalFreq: p.TotalFreq})

	w.prevDocID = p.DocID
	w.ndocs++
	return nil
}

// Close flushes the posting list, skip index and score index to the
// backend: the posting buffer is truncated to its exact written
// length (a no-op here since the Writer builds it in memory, but kept to
// mirror the source's independent-truncation contract); the score index
// is deleted entirely when ndocs is below SCOREINDEX_DELETE_THRESHOLD,
// otherwise written sorted by descending totalFreq; the skip index is
// always (re)written. All three steps are idempotent.
func (w *Writer) Close() error {
	if err := w.backend.Set(termKey(w.indexName, w.term), w.postings); err != nil {
		return &StoreError{Op: "Set(posting list)", Err: err}
	}

	if err := w.backend.Set(skipIndexKey(w.indexName, w.term), EncodeSkipIndex(&w.skip)); err != nil {
		return &StoreError{Op: "Set(skip index)", Err: err}
	}

	scoreKey := scoreIndexKey(w.indexName, w.term)
	if w.ndocs < SCOREINDEX_DELETE_THRESHOLD {
		if err := w.backend.Delete(scoreKey); err != nil {
			return &StoreError{Op: "Delete(score index)", Err: err}
		}
		return nil
	}

	// recompute byte offsets for the score index now that the full
	// posting list is laid out, then sort by descending totalFreq.
	entries := make([]ScoreIndexEntry, len(w.score.Entries))
	copy(entries, w.score.Entries)
	if err := fillScoreOffsets(w.postings, entries); err != nil {
		return err
	}
	sortScoreIndexDescending(entries)
	if err := w.backend.Set(scoreKey, EncodeScoreIndex(&ScoreIndex{Entries: entries})); err != nil {
		return &StoreError{Op: "Set(score index)", Err: err}
	}
	return nil
}

// fillScoreOffsets walks the encoded posting list once, stamping each
// entry's ByteOffset with the position of its posting's record start (a
// decoding-safe boundary, matching SkipEntry's contract).
func fillScoreOffsets(postings []byte, entries []ScoreIndexEntry) error {
	byDocID := make(map[uint32]int, len(entries))
	for i, e := range entries {
		byDocID[e.DocID] = i
	}

	buf := NewMemoryBuffer(postings, ModeRead)
	var prev uint32
	for {
		atEnd, _ := buf.AtEnd()
		if atEnd {
			break
		}
		recordStart := buf.Offset()
		p, newPrev, err := DecodeOne(buf, prev)
		if err != nil {
			if IsEOF(err) {
				break
			}
			return err
		}
		prev = newPrev
		if idx, ok := byDocID[p.DocID]; ok {
			entries[idx].ByteOffset = uint32(recordStart)
		}
	}
	return nil
}
