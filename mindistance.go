package vindex

// minDistance computes the narrowest span containing at least one
// position from every offset vector in vecs — the "smallest range
// covering one element per list" problem. It is the concrete
// implementation of the source's VV_MinDistance, used by the executor's
// proximity scoring of non-phrase multi-term hits. Phrase matching does
// not use it; exact intersection checks isContiguousPhrase instead.
//
// Ported algorithmically from the reference findCoverEnd/findCoverStart
// walk (search.go): advance the pointer on whichever list currently holds
// the minimum candidate position, track the running maximum, and keep the
// best (max-min) width seen. A single offset vector (or none) has no
// meaningful span, so it reports 1 — callers already special-case
// type == HitExact to 1 per finalScore formula.
func minDistance(vecs [][]uint32) int {
	k := len(vecs)
	if k <= 1 {
		return 1
	}
	for _, v := range vecs {
		if len(v) == 0 {
			return 1
		}
	}

	idx := make([]int, k)
	curMax := vecs[0][0]
	for i := 1; i < k; i++ {
		if vecs[i][0] > curMax {
			curMax = vecs[i][0]
		}
	}

	best := -1
	for {
		minVal := vecs[0][idx[0]]
		minList := 0
		for i := 1; i < k; i++ {
			v := vecs[i][idx[i]]
			if v < minVal {
				minVal = v
				minList = i
			}
		}

		width := int(curMax) - int(minVal)
		if best == -1 || width < best {
			best = width
		}

		idx[minList]++
		if idx[minList] >= len(vecs[minList]) {
			break
		}
		if vecs[minList][idx[minList]] > curMax {
			curMax = vecs[minList][idx[minList]]
		}
	}

	if best < 1 {
		best = 1
	}
	return best
}

// isContiguousPhrase reports whether there exist offsets o1 < o2 < ... <
// on (one per vector, in vector order) with o[i+1] - o[i] == 1 for every
// consecutive pair — the phrase-survival condition. vecs
// must be in the order the children were added to the intersection, so
// vecs[i] is term i's positions and "term i then term i+1 adjacent" means
// literally adjacent words.
func isContiguousPhrase(vecs [][]uint32) bool {
	k := len(vecs)
	if k == 0 {
		return false
	}
	if k == 1 {
		return len(vecs[0]) > 0
	}
	for _, v := range vecs {
		if len(v) == 0 {
			return false
		}
	}

	// For every candidate start position in vecs[0], check whether
	// vecs[1][*]==start+1, vecs[2][*]==start+2, ... all hold. Offset
	// vectors are short in practice (term occurrences per document), so
	// this direct search is simpler than maintaining k merged pointers
	// and is what the source's recursive NextPhrase amounts to.
	has := make([]map[uint32]bool, k)
	for i, v := range vecs {
		m := make(map[uint32]bool, len(v))
		for _, p := range v {
			m[p] = true
		}
		has[i] = m
	}

	for _, start := range vecs[0] {
		ok := true
		for i := 1; i < k; i++ {
			if !has[i][start+uint32(i)] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
