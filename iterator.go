package vindex

// ReadStatus is the three-way result of Read/SkipTo.
type ReadStatus int

const (
	// StatusOK means out was populated with a matching hit.
	StatusOK ReadStatus = iota
	// StatusNotFound means SkipTo landed past target without hitting it
	// exactly; LastDocID reflects the landing point.
	StatusNotFound
	// StatusEOF means the iterator is exhausted.
	StatusEOF
)

// HitType distinguishes a phrase-verified hit from an ordinary one.
type HitType int

const (
	HitRaw HitType = iota
	HitExact
)

// IndexHit is the transient carrier iterators populate on Read/SkipTo.
// OffsetVecs holds one decoded offset vector per contributing leaf:
// a ReadIterator hit carries exactly one; a combinator's hit carries one
// per child that matched, in child order, which is what phrase matching
// and proximity scoring need.
type IndexHit struct {
	DocID      uint32
	Flags      uint8
	FieldMask  uint8
	TotalFreq  float32
	OffsetVecs [][]uint32
	Type       HitType
}

// Reset clears h in place for reuse by the executor's hit pool.
func (h *IndexHit) Reset() {
	h.DocID = 0
	h.Flags = 0
	h.FieldMask = 0
	h.TotalFreq = 0
	h.OffsetVecs = h.OffsetVecs[:0]
	h.Type = HitRaw
}

// Iterator is the uniform four-operation contract every leaf and
// combinator iterator implements — a Go interface stands in for
// the source's dynamic-dispatch struct-of-function-pointers.
type Iterator interface {
	// Read advances to the next matching docId and populates out.
	Read(out *IndexHit) (ReadStatus, error)
	// SkipTo advances to the first docId >= target.
	SkipTo(target uint32, out *IndexHit) (ReadStatus, error)
	// LastDocID is the docId the iterator last landed on via a call that
	// returned StatusOK or StatusNotFound, or 0 before the first.
	LastDocID() uint32
	// HasNext is false iff EOF has been observed.
	HasNext() bool
	// Free releases the iterator's owned resources, cascading to
	// children.
	Free()
}
