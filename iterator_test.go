package vindex

import "testing"

// buildPostingList encodes docs (ascending) each with a single offset
// vector, returning a ready-to-read ByteBuffer.
func buildPostingList(t *testing.T, docs []uint32, offsets [][]uint32) *ByteBuffer {
	t.Helper()
	var dst []byte
	var prev uint32
	for i, d := range docs {
		var offBytes []byte
		if i < len(offsets) {
			offBytes = EncodeOffsets(offsets[i])
		}
		dst = EncodeOne(dst, Posting{DocID: d, FieldMask: 0xFF, TotalFreq: 1, Offsets: offBytes}, prev)
		prev = d
	}
	return NewMemoryBuffer(dst, ModeRead)
}

func readAll(t *testing.T, it Iterator) []uint32 {
	t.Helper()
	var out []uint32
	var hit IndexHit
	for {
		status, err := it.Read(&hit)
		if err != nil {
			t.Fatalf("Read error: %v", err)
		}
		if status == StatusEOF {
			break
		}
		out = append(out, hit.DocID)
	}
	return out
}

func TestReadIterator_Monotonic(t *testing.T) {
	docs := []uint32{1, 2, 4, 7}
	it := NewReadIterator("t", buildPostingList(t, docs, nil), nil, 0xFF)
	got := readAll(t, it)
	assertUint32Slice(t, got, docs)
}

func TestIntersectIterator_ScenarioTwo(t *testing.T) {
	a := NewReadIterator("a", buildPostingList(t, []uint32{1, 2, 4, 7}, nil), nil, 0xFF)
	b := NewReadIterator("b", buildPostingList(t, []uint32{2, 3, 4, 8}, nil), nil, 0xFF)
	it := NewIntersectIterator([]Iterator{a, b}, false, 0xFF)

	got := readAll(t, it)
	assertUint32Slice(t, got, []uint32{2, 4})
}

func TestUnionIterator_ScenarioFour(t *testing.T) {
	a := NewReadIterator("a", buildPostingList(t, []uint32{1, 3}, nil), nil, 0xFF)
	b := NewReadIterator("b", buildPostingList(t, []uint32{2, 3}, nil), nil, 0xFF)
	it := NewUnionIterator([]Iterator{a, b})

	var hit IndexHit
	var got []uint32
	var doc3Mask uint8
	for {
		status, err := it.Read(&hit)
		if err != nil {
			t.Fatalf("Read error: %v", err)
		}
		if status == StatusEOF {
			break
		}
		got = append(got, hit.DocID)
		if hit.DocID == 3 {
			doc3Mask = hit.FieldMask
		}
	}
	assertUint32Slice(t, got, []uint32{1, 2, 3})
	if doc3Mask != 0xFF {
		t.Errorf("docId 3 fieldMask = %#x, want 0xFF (OR of both children)", doc3Mask)
	}
}

func TestIntersectIterator_PhraseScenarioThree(t *testing.T) {
	// Term A at docId 2 offset {1}, term B offset {2}: contiguous -> emits.
	a := NewReadIterator("a", buildPostingList(t, []uint32{2}, [][]uint32{{1}}), nil, 0xFF)
	b := NewReadIterator("b", buildPostingList(t, []uint32{2}, [][]uint32{{2}}), nil, 0xFF)
	it := NewIntersectIterator([]Iterator{a, b}, true, 0xFF)
	got := readAll(t, it)
	assertUint32Slice(t, got, []uint32{2})

	// Term A offset {1}, term B offset {3}: not contiguous -> omitted.
	a2 := NewReadIterator("a", buildPostingList(t, []uint32{2}, [][]uint32{{1}}), nil, 0xFF)
	b2 := NewReadIterator("b", buildPostingList(t, []uint32{2}, [][]uint32{{3}}), nil, 0xFF)
	it2 := NewIntersectIterator([]Iterator{a2, b2}, true, 0xFF)
	got2 := readAll(t, it2)
	assertUint32Slice(t, got2, nil)
}

func TestIntersectIterator_SkipTo(t *testing.T) {
	a := NewReadIterator("a", buildPostingList(t, []uint32{1, 2, 4, 7, 9}, nil), nil, 0xFF)
	b := NewReadIterator("b", buildPostingList(t, []uint32{2, 4, 7, 9}, nil), nil, 0xFF)
	it := NewIntersectIterator([]Iterator{a, b}, false, 0xFF)

	var hit IndexHit
	status, err := it.SkipTo(5, &hit)
	if err != nil {
		t.Fatalf("SkipTo error: %v", err)
	}
	if status != StatusNotFound || hit.DocID != 7 {
		t.Errorf("SkipTo(5) = (%v, docId=%d), want (NotFound, 7)", status, hit.DocID)
	}

	status, err = it.SkipTo(9, &hit)
	if err != nil {
		t.Fatalf("SkipTo error: %v", err)
	}
	if status != StatusOK || hit.DocID != 9 {
		t.Errorf("SkipTo(9) = (%v, docId=%d), want (OK, 9)", status, hit.DocID)
	}
}

func assertUint32Slice(t *testing.T, got, want []uint32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
