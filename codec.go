package vindex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Posting is one occurrence record of a term in a document. Offsets are
// stored pre-encoded (varint-delta, see EncodeOffsets) so that a posting
// list can be built purely from append operations without re-encoding
// already-written entries.
type Posting struct {
	DocID      uint32
	Flags      uint8
	FieldMask  uint8
	TotalFreq  float32
	Offsets    []byte // opaque to the codec except via DecodeOffsets
}

// putUvarint appends the 7-bit continuation encoding of v to dst and
// returns the grown slice: low 7 bits per byte, MSB set on every byte
// but the last.
func putUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// readUvarint decodes one varint from buf starting at a ByteBuffer cursor,
// via the buffer's ReadByte, leaving the cursor just past it. Returns the
// decoded value.
func readUvarint(buf *ByteBuffer) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := buf.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("%w: varint too long", ErrDecode)
		}
	}
}

// EncodeOffsets packs a list of ascending term positions into the opaque
// offsets byte string, as a varint-delta stream (the same 7-bit
// continuation coding used for docId deltas).
func EncodeOffsets(positions []uint32) []byte {
	out := make([]byte, 0, len(positions)*2)
	var prev uint32
	for _, p := range positions {
		out = putUvarint(out, uint64(p-prev))
		prev = p
	}
	return out
}

// DecodeOffsets unpacks a varint-delta offsets byte string back into
// ascending term positions.
func DecodeOffsets(raw []byte) ([]uint32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	buf := NewMemoryBuffer(raw, ModeRead)
	var positions []uint32
	var prev uint32
	for {
		end, err := buf.AtEnd()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		delta, err := readUvarint(buf)
		if err != nil {
			return nil, err
		}
		prev += uint32(delta)
		positions = append(positions, prev)
	}
	return positions, nil
}

// EncodeOne appends the wire encoding of one posting to dst, given the
// docId of the previous posting written to the same list (0 for the
// first). Layout: docIdDelta varint, flags byte, fieldMask byte, 4-byte
// LE float32 totalFreq, offsetsLen varint, offsets verbatim.
func EncodeOne(dst []byte, p Posting, prevDocID uint32) []byte {
	dst = putUvarint(dst, uint64(p.DocID-prevDocID))
	dst = append(dst, p.Flags, p.FieldMask)
	var freqBuf [4]byte
	binary.LittleEndian.PutUint32(freqBuf[:], math.Float32bits(p.TotalFreq))
	dst = append(dst, freqBuf[:]...)
	dst = putUvarint(dst, uint64(len(p.Offsets)))
	dst = append(dst, p.Offsets...)
	return dst
}

// DecodeOne reads one posting from buf, given the running previous docId,
// and returns the posting plus the new running docId. Returns errEOF
// (detected via ByteBuffer.AtEnd, checked with IsEOF) when the tail is
// exhausted cleanly, and a wrapped ErrDecode on a truncated/malformed
// record — both are treated as end-of-stream by the leaf iterator.
func DecodeOne(buf *ByteBuffer, prevDocID uint32) (Posting, uint32, error) {
	atEnd, err := buf.AtEnd()
	if err != nil {
		return Posting{}, prevDocID, err
	}
	if atEnd {
		return Posting{}, prevDocID, errEOF
	}

	delta, err := readUvarint(buf)
	if err != nil {
		return Posting{}, prevDocID, fmt.Errorf("%w: docId delta: %v", ErrDecode, err)
	}
	docID := prevDocID + uint32(delta)

	hdr, err := buf.Read(2)
	if err != nil {
		return Posting{}, prevDocID, fmt.Errorf("%w: flags/fieldMask: %v", ErrDecode, err)
	}
	flags, fieldMask := hdr[0], hdr[1]

	freqBytes, err := buf.Read(4)
	if err != nil {
		return Posting{}, prevDocID, fmt.Errorf("%w: totalFreq: %v", ErrDecode, err)
	}
	totalFreq := math.Float32frombits(binary.LittleEndian.Uint32(freqBytes))

	offLen, err := readUvarint(buf)
	if err != nil {
		return Posting{}, prevDocID, fmt.Errorf("%w: offsetsLen: %v", ErrDecode, err)
	}
	var offsets []byte
	if offLen > 0 {
		raw, err := buf.Read(int(offLen))
		if err != nil {
			return Posting{}, prevDocID, fmt.Errorf("%w: offsets: %v", ErrDecode, err)
		}
		offsets = append([]byte(nil), raw...)
	}

	return Posting{
		DocID:     docID,
		Flags:     flags,
		FieldMask: fieldMask,
		TotalFreq: totalFreq,
		Offsets:   offsets,
	}, docID, nil
}
