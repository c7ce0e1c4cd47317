package vindex

import "math"

const sentinelEOF = math.MaxUint32

// UnionIterator combines children, emitting one hit per distinct docId
// present in any of them. A given docId is emitted at most once,
// even if several children share it.
type UnionIterator struct {
	children  []Iterator
	childHits []IndexHit
	front     []uint32
	isEOF     []bool

	lastDocID uint32
	started   bool
}

// NewUnionIterator builds a union over children.
func NewUnionIterator(children []Iterator) *UnionIterator {
	return &UnionIterator{
		children:  children,
		childHits: make([]IndexHit, len(children)),
		front:     make([]uint32, len(children)),
		isEOF:     make([]bool, len(children)),
	}
}

func (u *UnionIterator) ensureStarted() error {
	if u.started {
		return nil
	}
	for i, c := range u.children {
		status, err := c.Read(&u.childHits[i])
		if err != nil {
			return err
		}
		if status == StatusEOF {
			u.front[i] = sentinelEOF
			u.isEOF[i] = true
		} else {
			u.front[i] = c.LastDocID()
		}
	}
	u.started = true
	return nil
}

func (u *UnionIterator) allEOF() bool {
	for _, done := range u.isEOF {
		if !done {
			return false
		}
	}
	return true
}

func (u *UnionIterator) Read(out *IndexHit) (ReadStatus, error) {
	if err := u.ensureStarted(); err != nil {
		return StatusEOF, err
	}
	if u.allEOF() {
		return StatusEOF, nil
	}

	min := uint32(sentinelEOF)
	for i := range u.children {
		if !u.isEOF[i] && u.front[i] < min {
			min = u.front[i]
		}
	}

	var fieldMask, flags uint8
	var totalFreq float32
	out.OffsetVecs = out.OffsetVecs[:0]
	for i, c := range u.children {
		if u.isEOF[i] || u.front[i] != min {
			continue
		}
		fieldMask |= u.childHits[i].FieldMask
		flags |= u.childHits[i].Flags
		totalFreq += u.childHits[i].TotalFreq
		out.OffsetVecs = append(out.OffsetVecs, u.childHits[i].OffsetVecs...)

		status, err := c.Read(&u.childHits[i])
		if err != nil {
			return StatusEOF, err
		}
		if status == StatusEOF {
			u.front[i] = sentinelEOF
			u.isEOF[i] = true
		} else {
			u.front[i] = c.LastDocID()
		}
	}

	out.DocID = min
	out.Flags = flags
	out.FieldMask = fieldMask
	out.TotalFreq = totalFreq
	out.Type = HitRaw
	u.lastDocID = min
	return StatusOK, nil
}

// SkipTo forwards target to every non-exhausted child, then performs one
// Read to produce the emitted hit. This is O(n) in the child count,
// acceptable since a union's arity is small relative to posting-list
// length.
func (u *UnionIterator) SkipTo(target uint32, out *IndexHit) (ReadStatus, error) {
	if err := u.ensureStarted(); err != nil {
		return StatusEOF, err
	}

	for i, c := range u.children {
		if u.isEOF[i] || u.front[i] >= target {
			continue
		}
		status, err := c.SkipTo(target, &u.childHits[i])
		if err != nil {
			return StatusEOF, err
		}
		if status == StatusEOF {
			u.front[i] = sentinelEOF
			u.isEOF[i] = true
		} else {
			u.front[i] = c.LastDocID()
		}
	}

	status, err := u.Read(out)
	if err != nil || status == StatusEOF {
		return status, err
	}
	if out.DocID == target {
		return StatusOK, nil
	}
	return StatusNotFound, nil
}

func (u *UnionIterator) LastDocID() uint32 { return u.lastDocID }

func (u *UnionIterator) HasNext() bool { return !u.allEOF() }

func (u *UnionIterator) Free() {
	for _, c := range u.children {
		c.Free()
	}
}
