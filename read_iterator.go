package vindex

import "log/slog"

// ReadIterator is the leaf of the iterator algebra: it decodes a single
// term's posting list, optionally accelerated by a SkipIndex (normal
// mode) or reordered by a ScoreIndex (single-word mode).
type ReadIterator struct {
	term    string
	buf     *ByteBuffer
	skip    *SkipIndex
	score   *ScoreIndex
	fieldMask uint8

	prevDocID  uint32
	lastDocID  uint32
	eof        bool
	scoreIdx   int // cursor into score.Entries when in single-word mode
}

// NewReadIterator wraps buf (the term's posting-list blob) for normal
// (skip-index-accelerated) iteration. skip may be nil if no SkipIndex was
// written for this term (e.g. a short list).
func NewReadIterator(term string, buf *ByteBuffer, skip *SkipIndex, fieldMask uint8) *ReadIterator {
	return &ReadIterator{term: term, buf: buf, skip: skip, fieldMask: fieldMask}
}

// NewScoreOrderedReadIterator wraps buf for single-word mode: postings are
// visited in the order given by score's descending-totalFreq entries,
// each dereferenced via its ByteOffset. SkipTo is not defined in this
// mode.
func NewScoreOrderedReadIterator(term string, buf *ByteBuffer, score *ScoreIndex, fieldMask uint8) *ReadIterator {
	return &ReadIterator{term: term, buf: buf, score: score, fieldMask: fieldMask}
}

func (r *ReadIterator) singleWordMode() bool { return r.score != nil }

func (r *ReadIterator) Read(out *IndexHit) (ReadStatus, error) {
	if r.eof {
		return StatusEOF, nil
	}

	if r.singleWordMode() {
		return r.readScoreOrdered(out)
	}
	return r.readSequential(out)
}

func (r *ReadIterator) readSequential(out *IndexHit) (ReadStatus, error) {
	for {
		atEnd, err := r.buf.AtEnd()
		if err != nil {
			return StatusEOF, err
		}
		if atEnd {
			r.eof = true
			return StatusEOF, nil
		}

		p, newPrev, err := DecodeOne(r.buf, r.prevDocID)
		if err != nil {
			if IsEOF(err) {
				r.eof = true
				return StatusEOF, nil
			}
			slog.Warn("posting decode error, ending iterator", "term", r.term, "err", err)
			r.eof = true
			return StatusEOF, nil
		}
		r.prevDocID = newPrev

		if r.fieldMask != 0xFF && p.FieldMask&r.fieldMask == 0 {
			continue
		}

		r.populateHit(out, p)
		r.lastDocID = p.DocID
		return StatusOK, nil
	}
}

func (r *ReadIterator) readScoreOrdered(out *IndexHit) (ReadStatus, error) {
	for r.scoreIdx < len(r.score.Entries) {
		e := r.score.Entries[r.scoreIdx]
		r.scoreIdx++

		if err := r.buf.Seek(int(e.ByteOffset)); err != nil {
			return StatusEOF, err
		}
		p, _, err := DecodeOne(r.buf, 0)
		if err != nil {
			if IsEOF(err) {
				continue
			}
			slog.Warn("posting decode error in score-ordered read", "term", r.term, "err", err)
			continue
		}
		// the byte offset lands on a record start, but the record stores
		// a docId delta from its predecessor, so DecodeOne seeded with 0
		// yields that delta; the score entry carries the absolute docId.
		p.DocID = e.DocID

		if r.fieldMask != 0xFF && p.FieldMask&r.fieldMask == 0 {
			continue
		}

		r.populateHit(out, p)
		r.lastDocID = p.DocID
		return StatusOK, nil
	}
	r.eof = true
	return StatusEOF, nil
}

func (r *ReadIterator) populateHit(out *IndexHit, p Posting) {
	out.DocID = p.DocID
	out.Flags = p.Flags
	out.FieldMask = p.FieldMask
	out.TotalFreq = p.TotalFreq
	out.Type = HitRaw
	offsets, err := DecodeOffsets(p.Offsets)
	if err != nil {
		slog.Warn("offsets decode error", "term", r.term, "docId", p.DocID, "err", err)
		offsets = nil
	}
	out.OffsetVecs = append(out.OffsetVecs[:0], offsets)
}

// SkipTo implements two-phase skip: binary-search the SkipIndex (if
// present) to seek near target, then decode forward until landing. Not
// defined in single-word (score-ordered) mode.
func (r *ReadIterator) SkipTo(target uint32, out *IndexHit) (ReadStatus, error) {
	if r.eof {
		return StatusEOF, nil
	}
	if r.singleWordMode() {
		return StatusEOF, errSkipUnsupported
	}

	if r.skip != nil {
		if entry, ok := r.skip.Find(target); ok && entry.ByteOffset >= uint32(r.buf.Offset()) {
			if err := r.buf.Seek(int(entry.ByteOffset)); err != nil {
				return StatusEOF, err
			}
			r.prevDocID = entry.DocID
		}
	}

	for {
		status, err := r.readSequential(out)
		if err != nil || status == StatusEOF {
			return status, err
		}
		if out.DocID >= target {
			if out.DocID == target {
				return StatusOK, nil
			}
			return StatusNotFound, nil
		}
	}
}

func (r *ReadIterator) LastDocID() uint32 { return r.lastDocID }

func (r *ReadIterator) HasNext() bool { return !r.eof }

func (r *ReadIterator) Free() {
	if r.buf != nil {
		r.buf.Release()
	}
}
