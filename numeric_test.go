package vindex

import "testing"

func TestNumericFilter_ScenarioFive(t *testing.T) {
	f := &NumericFilter{Min: 1, Max: 5, InclusiveMin: false, InclusiveMax: true}

	scores := []float64{0.9, 1.0, 1.5, 5.0, 5.1}
	var matched []float64
	for _, s := range scores {
		if f.Match(s) {
			matched = append(matched, s)
		}
	}

	want := []float64{1.5, 5.0}
	if len(matched) != len(want) {
		t.Fatalf("matched = %v, want %v", matched, want)
	}
	for i := range want {
		if matched[i] != want[i] {
			t.Fatalf("matched = %v, want %v", matched, want)
		}
	}
}

func TestNumericFilter_OpenEnded(t *testing.T) {
	f := &NumericFilter{MinIsNegInf: true, Max: 0, InclusiveMax: false}
	if !f.Match(-100) {
		t.Error("expected -100 to match (-inf, 0)")
	}
	if f.Match(0) {
		t.Error("expected 0 to be excluded by exclusive max")
	}
}

func TestRangeTree_RangeScan(t *testing.T) {
	tree := newNumericRangeTree()
	data := map[uint32]float64{1: 0.9, 2: 1.0, 3: 1.5, 4: 5.0, 5: 5.1}
	for docID, score := range data {
		tree.insert(score, docID)
	}

	f := &NumericFilter{Min: 1, Max: 5, InclusiveMin: false, InclusiveMax: true}
	got := tree.RangeScan(f)

	want := []uint32{3, 4}
	if len(got) != len(want) {
		t.Fatalf("RangeScan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RangeScan = %v, want %v", got, want)
		}
	}
}

func TestRangeTree_EmptyRange(t *testing.T) {
	tree := newNumericRangeTree()
	tree.insert(1.0, 1)
	tree.insert(2.0, 2)

	f := &NumericFilter{Min: 10, Max: 20, InclusiveMin: true, InclusiveMax: true}
	got := tree.RangeScan(f)
	if len(got) != 0 {
		t.Fatalf("RangeScan = %v, want empty", got)
	}
}

func TestParseNumericFilter(t *testing.T) {
	f, err := ParseNumericFilter([]string{"price", "(1", "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Field != "price" || f.Min != 1 || f.InclusiveMin || f.Max != 5 || !f.InclusiveMax {
		t.Errorf("parsed filter = %+v, want exclusive min=1, inclusive max=5", f)
	}

	f, err = ParseNumericFilter([]string{"price", "-inf", "+inf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.MinIsNegInf || !f.MaxIsPosInf {
		t.Errorf("parsed filter = %+v, want unbounded both sides", f)
	}

	if _, err := ParseNumericFilter([]string{"price", "notanumber", "5"}); err == nil {
		t.Error("expected error for unparseable bound")
	}
}
