package vindex

import "testing"

func TestBuildQueryTree_PlainWords(t *testing.T) {
	root, numTokens, err := BuildQueryTree("quick brown fox", 0xFF, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if numTokens != 3 {
		t.Errorf("numTokens = %d, want 3", numTokens)
	}
	if root.Op != OpIntersect || len(root.Children) != 3 {
		t.Fatalf("root = %+v, want Intersect with 3 children", root)
	}
	for i, want := range []string{"quick", "brown", "fox"} {
		if root.Children[i].Op != OpLoad || root.Children[i].Value != want {
			t.Errorf("child %d = %+v, want Load %q", i, root.Children[i], want)
		}
	}
}

func TestBuildQueryTree_QuotedPhrase(t *testing.T) {
	root, numTokens, err := BuildQueryTree(`"brown fox" jumps`, 0xFF, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if numTokens != 3 {
		t.Errorf("numTokens = %d, want 3", numTokens)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root.Children = %+v, want 2 (exact phrase + jumps)", root.Children)
	}
	exact := root.Children[0]
	if exact.Op != OpExact || len(exact.Children) != 2 {
		t.Fatalf("first child = %+v, want Exact with 2 Load children", exact)
	}
	if root.Children[1].Op != OpLoad || root.Children[1].Value != "jumps" {
		t.Errorf("second child = %+v, want Load jumps", root.Children[1])
	}
}

func TestBuildQueryTree_NumericFilterAttachesToRoot(t *testing.T) {
	filter := &NumericFilter{Field: "price", Min: 1, Max: 5, InclusiveMax: true}
	root, _, err := BuildQueryTree("shoes", 0xFF, []*NumericFilter{filter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root.Children = %+v, want Load + Numeric", root.Children)
	}
	if root.Children[1].Op != OpNumeric || root.Children[1].Filter != filter {
		t.Errorf("second child = %+v, want Numeric wrapping filter", root.Children[1])
	}
}

func TestBuildQueryTree_StopwordDropped(t *testing.T) {
	root, numTokens, err := BuildQueryTree("the quick fox", 0xFF, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if numTokens != 2 {
		t.Errorf("numTokens = %d, want 2 (the is a stopword)", numTokens)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root.Children = %+v, want 2 Load nodes", root.Children)
	}
}

func TestIsSingleWord(t *testing.T) {
	root, numTokens, _ := BuildQueryTree("fox", 0xFF, nil)
	if !IsSingleWord(root, numTokens, 0xFF) {
		t.Error("expected single bare word to qualify for single-word mode")
	}

	root, numTokens, _ = BuildQueryTree("fox", 0x01, nil)
	if IsSingleWord(root, numTokens, 0x01) {
		t.Error("a restricted fieldMask should disqualify single-word mode")
	}

	root, numTokens, _ = BuildQueryTree("quick fox", 0xFF, nil)
	if IsSingleWord(root, numTokens, 0xFF) {
		t.Error("two words should disqualify single-word mode")
	}

	filter := &NumericFilter{Field: "price"}
	root, numTokens, _ = BuildQueryTree("fox", 0xFF, []*NumericFilter{filter})
	if IsSingleWord(root, numTokens, 0xFF) {
		t.Error("a numeric filter sibling should disqualify single-word mode")
	}
}
