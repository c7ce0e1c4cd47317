package vindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// SCOREINDEX_DELETE_THRESHOLD is the minimum document count a posting list
// must reach before a ScoreIndex side-file is worth maintaining; below it,
// OpenWriter's Close deletes any existing score-index blob outright.
const SCOREINDEX_DELETE_THRESHOLD = 4

// SKIP_INTERVAL controls how densely the SkipIndex samples the posting
// list: one SkipEntry is recorded every SKIP_INTERVAL postings.
const SKIP_INTERVAL = 100

// SkipEntry is one (docId, byteOffset) sample into a posting list.
type SkipEntry struct {
	DocID      uint32
	ByteOffset uint32
}

// SkipIndex is a sparse docId->byteOffset directory for a term, sorted by
// ascending docId, enabling SkipTo to seek near its target before decoding
// forward.
type SkipIndex struct {
	Entries []SkipEntry
}

// EncodeSkipIndex serializes si as a length-prefixed (u32) array of
// {docId: u32, byteOffset: u32}.
func EncodeSkipIndex(si *SkipIndex) []byte {
	out := make([]byte, 4+8*len(si.Entries))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(si.Entries)))
	off := 4
	for _, e := range si.Entries {
		binary.LittleEndian.PutUint32(out[off:], e.DocID)
		binary.LittleEndian.PutUint32(out[off+4:], e.ByteOffset)
		off += 8
	}
	return out
}

// DecodeSkipIndex parses the layout written by EncodeSkipIndex.
func DecodeSkipIndex(raw []byte) (*SkipIndex, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: skip index header", ErrDecode)
	}
	n := binary.LittleEndian.Uint32(raw[:4])
	want := 4 + int(n)*8
	if len(raw) < want {
		return nil, fmt.Errorf("%w: skip index body", ErrDecode)
	}
	si := &SkipIndex{Entries: make([]SkipEntry, n)}
	off := 4
	for i := range si.Entries {
		si.Entries[i] = SkipEntry{
			DocID:      binary.LittleEndian.Uint32(raw[off:]),
			ByteOffset: binary.LittleEndian.Uint32(raw[off+4:]),
		}
		off += 8
	}
	return si, nil
}

// Find returns the entry with the largest DocID <= target, suitable for
// seeking a posting-list ByteBuffer before decoding forward. ok is false
// if target is smaller than every sampled docId (caller should start from
// the beginning of the list instead).
func (si *SkipIndex) Find(target uint32) (entry SkipEntry, ok bool) {
	// sort.Search finds the first index whose DocID > target; the
	// landing entry is one before that.
	i := sort.Search(len(si.Entries), func(i int) bool {
		return si.Entries[i].DocID > target
	})
	if i == 0 {
		return SkipEntry{}, false
	}
	return si.Entries[i-1], true
}

// ScoreIndexEntry is one (docId, totalFreq, byteOffset) sample for the
// single-term top-k shortcut.
type ScoreIndexEntry struct {
	DocID      uint32
	TotalFreq  float32
	ByteOffset uint32
}

// ScoreIndex holds ScoreIndexEntry values sorted by descending TotalFreq,
// present only when a term's document count is at least
// SCOREINDEX_DELETE_THRESHOLD.
type ScoreIndex struct {
	Entries []ScoreIndexEntry
}

// EncodeScoreIndex serializes si as a length-prefixed (u32) array of
// {docId: u32, totalFreq: f32, byteOffset: u32}.
func EncodeScoreIndex(si *ScoreIndex) []byte {
	out := make([]byte, 4+12*len(si.Entries))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(si.Entries)))
	off := 4
	for _, e := range si.Entries {
		binary.LittleEndian.PutUint32(out[off:], e.DocID)
		binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(e.TotalFreq))
		binary.LittleEndian.PutUint32(out[off+8:], e.ByteOffset)
		off += 12
	}
	return out
}

// DecodeScoreIndex parses the layout written by EncodeScoreIndex.
func DecodeScoreIndex(raw []byte) (*ScoreIndex, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: score index header", ErrDecode)
	}
	n := binary.LittleEndian.Uint32(raw[:4])
	want := 4 + int(n)*12
	if len(raw) < want {
		return nil, fmt.Errorf("%w: score index body", ErrDecode)
	}
	si := &ScoreIndex{Entries: make([]ScoreIndexEntry, n)}
	off := 4
	for i := range si.Entries {
		si.Entries[i] = ScoreIndexEntry{
			DocID:      binary.LittleEndian.Uint32(raw[off:]),
			TotalFreq:  math.Float32frombits(binary.LittleEndian.Uint32(raw[off+4:])),
			ByteOffset: binary.LittleEndian.Uint32(raw[off+8:]),
		}
		off += 12
	}
	return si, nil
}

func sortScoreIndexDescending(entries []ScoreIndexEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalFreq > entries[j].TotalFreq
	})
}
