package vindex

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeOne_ScenarioOneWireFormat(t *testing.T) {
	var dst []byte
	dst = EncodeOne(dst, Posting{DocID: 1, Flags: 0, FieldMask: 0x01, TotalFreq: 1.0}, 0)
	dst = EncodeOne(dst, Posting{DocID: 5, Flags: 0, FieldMask: 0x02, TotalFreq: 2.0, Offsets: []byte{0x01}}, 1)

	want := []byte{0x01, 0x00, 0x01}
	want = append(want, encodeF32(1.0)...)
	want = append(want, 0x00)
	want = append(want, 0x04, 0x00, 0x02)
	want = append(want, encodeF32(2.0)...)
	want = append(want, 0x01, 0x01)

	if !bytes.Equal(dst, want) {
		t.Errorf("EncodeOne output = % x, want % x", dst, want)
	}
}

func encodeF32(v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return buf[:]
}

func TestCodec_RoundTrip(t *testing.T) {
	postings := []Posting{
		{DocID: 1, Flags: 0, FieldMask: 0x01, TotalFreq: 1, Offsets: EncodeOffsets([]uint32{3})},
		{DocID: 5, Flags: 1, FieldMask: 0x02, TotalFreq: 2, Offsets: EncodeOffsets([]uint32{1, 4})},
		{DocID: 100, Flags: 0, FieldMask: 0xFF, TotalFreq: 0.5, Offsets: nil},
	}

	var dst []byte
	var prev uint32
	for _, p := range postings {
		dst = EncodeOne(dst, p, prev)
		prev = p.DocID
	}

	buf := NewMemoryBuffer(dst, ModeRead)
	prev = 0
	for i, want := range postings {
		got, newPrev, err := DecodeOne(buf, prev)
		if err != nil {
			t.Fatalf("posting %d: unexpected error %v", i, err)
		}
		prev = newPrev
		if got.DocID != want.DocID || got.Flags != want.Flags || got.FieldMask != want.FieldMask || got.TotalFreq != want.TotalFreq {
			t.Errorf("posting %d = %+v, want %+v", i, got, want)
		}
		if !bytes.Equal(got.Offsets, want.Offsets) {
			t.Errorf("posting %d offsets = % x, want % x", i, got.Offsets, want.Offsets)
		}
	}
	atEnd, err := buf.AtEnd()
	if err != nil || !atEnd {
		t.Errorf("buffer not exhausted after decoding all postings: atEnd=%v err=%v", atEnd, err)
	}
}

func TestDecodeOffsets_RoundTrip(t *testing.T) {
	positions := []uint32{2, 5, 5, 9, 100}
	got, err := DecodeOffsets(EncodeOffsets(positions))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(positions) {
		t.Fatalf("got %v, want %v", got, positions)
	}
	for i := range positions {
		if got[i] != positions[i] {
			t.Errorf("position %d = %d, want %d", i, got[i], positions[i])
		}
	}
}

func TestDecodeOffsets_Empty(t *testing.T) {
	got, err := DecodeOffsets(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
