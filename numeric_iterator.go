package vindex

import "sort"

// NumericIterator walks a NumericRangeTree's RangeScan result as an
// Iterator, so it composes with Intersect/Union the same way a term's
// ReadIterator does. It carries no offsets and reports a
// fixed fieldMask/flags of 0xFF, since a numeric match is not tied to any
// single field or per-term frequency.
type NumericIterator struct {
	docIDs []uint32
	pos    int

	lastDocID uint32
	eof       bool
}

// NewNumericIterator builds an iterator over every docId in tree
// satisfying filter, in ascending docId order (RangeScan already yields
// ascending score order with docId as a tiebreak within equal scores, but
// the iterator algebra requires strictly ascending docId, so the result
// is sorted once up front).
func NewNumericIterator(tree *NumericRangeTree, filter *NumericFilter) *NumericIterator {
	docIDs := tree.RangeScan(filter)
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })
	docIDs = dedupUint32s(docIDs)
	return &NumericIterator{docIDs: docIDs}
}

func (n *NumericIterator) Read(out *IndexHit) (ReadStatus, error) {
	if n.eof || n.pos >= len(n.docIDs) {
		n.eof = true
		return StatusEOF, nil
	}
	docID := n.docIDs[n.pos]
	n.pos++
	n.populateHit(out, docID)
	n.lastDocID = docID
	return StatusOK, nil
}

func (n *NumericIterator) SkipTo(target uint32, out *IndexHit) (ReadStatus, error) {
	if n.eof {
		return StatusEOF, nil
	}
	for n.pos < len(n.docIDs) && n.docIDs[n.pos] < target {
		n.pos++
	}
	if n.pos >= len(n.docIDs) {
		n.eof = true
		return StatusEOF, nil
	}
	docID := n.docIDs[n.pos]
	n.pos++
	n.populateHit(out, docID)
	n.lastDocID = docID
	if docID == target {
		return StatusOK, nil
	}
	return StatusNotFound, nil
}

func (n *NumericIterator) populateHit(out *IndexHit, docID uint32) {
	out.DocID = docID
	out.Flags = 0xFF
	out.FieldMask = 0xFF
	out.TotalFreq = 0
	out.Type = HitRaw
	out.OffsetVecs = out.OffsetVecs[:0]
}

func (n *NumericIterator) LastDocID() uint32 { return n.lastDocID }

// HasNext reports whether a further Read could produce a hit. Fixes the
// source's off-by-one: once eof is latched, or the cursor has
// already consumed the last entry, this returns false rather than true.
func (n *NumericIterator) HasNext() bool {
	return !n.eof && n.pos < len(n.docIDs)
}

func (n *NumericIterator) Free() {}

func dedupUint32s(s []uint32) []uint32 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
