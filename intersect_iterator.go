package vindex

import "sort"

// IntersectIterator combines an ordered list of child iterators, emitting
// a hit for every docId present in all of them. With exact=true it
// additionally requires the children's offset vectors to form a
// contiguous phrase.
type IntersectIterator struct {
	children  []Iterator
	childHits []IndexHit
	exact     bool
	fieldMask uint8

	candidate uint32
	lastDocID uint32
	eof       bool
}

// NewIntersectIterator builds an intersection over children. fieldMask is
// the query's field restriction (0xFF for none); exact enables phrase
// verification.
func NewIntersectIterator(children []Iterator, exact bool, fieldMask uint8) *IntersectIterator {
	return &IntersectIterator{
		children:  children,
		childHits: make([]IndexHit, len(children)),
		exact:     exact,
		fieldMask: fieldMask,
	}
}

func (it *IntersectIterator) argMinLastDocID() int {
	min := 0
	for i := 1; i < len(it.children); i++ {
		if it.children[i].LastDocID() < it.children[min].LastDocID() {
			min = i
		}
	}
	return min
}

// alignAll drives every child whose LastDocID lags it.candidate forward
// via SkipTo, lifting the candidate and retrying whenever a child lands
// past it ("lift candidate, restart") until either every child sits
// exactly on the candidate or one hits EOF.
func (it *IntersectIterator) alignAll() (ReadStatus, error) {
	for {
		allMatch := true
		for i, c := range it.children {
			if c.LastDocID() == it.candidate {
				continue
			}
			status, err := c.SkipTo(it.candidate, &it.childHits[i])
			if err != nil {
				return StatusEOF, err
			}
			switch status {
			case StatusEOF:
				it.eof = true
				return StatusEOF, nil
			case StatusNotFound:
				if nd := c.LastDocID(); nd > it.candidate {
					it.candidate = nd
				}
				allMatch = false
			}
		}
		if allMatch {
			return StatusOK, nil
		}
	}
}

func (it *IntersectIterator) Read(out *IndexHit) (ReadStatus, error) {
	if it.eof {
		return StatusEOF, nil
	}

	minIdx := it.argMinLastDocID()
	status, err := it.children[minIdx].Read(&it.childHits[minIdx])
	if err != nil {
		return StatusEOF, err
	}
	if status == StatusEOF {
		it.eof = true
		return StatusEOF, nil
	}
	if nd := it.children[minIdx].LastDocID(); nd > it.candidate {
		it.candidate = nd
	}

	for {
		status, err := it.alignAll()
		if err != nil || status == StatusEOF {
			return status, err
		}

		if it.buildHit(out) {
			it.lastDocID = it.candidate
			return StatusOK, nil
		}
		it.candidate++
	}
}

func (it *IntersectIterator) buildHit(out *IndexHit) bool {
	fieldMask := uint8(0xFF)
	var totalFreq float32
	out.OffsetVecs = out.OffsetVecs[:0]
	for _, h := range it.childHits {
		fieldMask &= h.FieldMask
		totalFreq += h.TotalFreq
		out.OffsetVecs = append(out.OffsetVecs, mergeOffsetVecs(h.OffsetVecs))
	}
	fieldMask &= it.fieldMask
	if fieldMask == 0 {
		return false
	}

	if it.exact && !isContiguousPhrase(out.OffsetVecs) {
		return false
	}

	out.DocID = it.candidate
	out.Flags = it.childHits[0].Flags
	out.FieldMask = fieldMask
	out.TotalFreq = totalFreq
	if it.exact {
		out.Type = HitExact
	} else {
		out.Type = HitRaw
	}
	return true
}

func (it *IntersectIterator) SkipTo(target uint32, out *IndexHit) (ReadStatus, error) {
	if it.eof {
		return StatusEOF, nil
	}

	// Force forward progress: a target at or behind the last emitted
	// docId must still advance to a new one, matching ReadIterator's
	// SkipTo (which only ever decodes forward).
	if it.lastDocID != 0 && target <= it.lastDocID {
		target = it.lastDocID + 1
	}
	if target > it.candidate {
		it.candidate = target
	}

	for {
		status, err := it.alignAll()
		if err != nil || status == StatusEOF {
			return status, err
		}
		if it.buildHit(out) {
			it.lastDocID = it.candidate
			if it.candidate == target {
				return StatusOK, nil
			}
			return StatusNotFound, nil
		}
		it.candidate++
	}
}

func (it *IntersectIterator) LastDocID() uint32 { return it.lastDocID }

func (it *IntersectIterator) HasNext() bool { return !it.eof }

func (it *IntersectIterator) Free() {
	for _, c := range it.children {
		c.Free()
	}
}

// mergeOffsetVecs concatenates a child's (possibly multiple, for a nested
// combinator) offset vectors into the single representative vector its
// parent intersection treats as "this child's positions".
func mergeOffsetVecs(vecs [][]uint32) []uint32 {
	if len(vecs) == 1 {
		return vecs[0]
	}
	var total int
	for _, v := range vecs {
		total += len(v)
	}
	out := make([]uint32, 0, total)
	for _, v := range vecs {
		out = append(out, v...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
