package vindex

import "container/heap"

// scoredHit is one candidate held in the top-k executor's bounded heap:
// the IndexHit plus its computed finalScore.
type scoredHit struct {
	hit        IndexHit
	finalScore float32
}

// hitHeap is a min-heap ordered by (finalScore ascending, docId ascending)
// so its root is always the worst kept candidate — the one to evict when a
// better hit arrives. Grounded on the container/heap idiom the reference
// pack uses for bounded top-k structures.
type hitHeap []*scoredHit

func (h hitHeap) Len() int { return len(h) }
func (h hitHeap) Less(i, j int) bool {
	if h[i].finalScore != h[j].finalScore {
		return h[i].finalScore < h[j].finalScore
	}
	return h[i].hit.DocID < h[j].hit.DocID
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// betterThan reports whether (score, docID) ranks above (rootScore,
// rootDocID) under hitHeap's total order — the condition for replacing
// the heap root with a new candidate.
func betterThan(score float32, docID uint32, rootScore float32, rootDocID uint32) bool {
	if score != rootScore {
		return score > rootScore
	}
	return docID > rootDocID
}
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(*scoredHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// ScoredResult is one document in the final ranked output.
type ScoredResult struct {
	DocID uint32
	Score float32
}

// ExecuteTopK drains it, ranking hits by finalScore and returning the
// window [offset, offset+limit) in descending-score order. docScore
// resolves a document's metadata-driven multiplicative factor (1 +
// DocumentMetadata.Score, so a default/unset metadata record of 0 is
// scoring-neutral); pass a function returning 1 to disable it.
func ExecuteTopK(it Iterator, offset, limit int, docScore func(docID uint32) (float32, error)) ([]ScoredResult, int, error) {
	capacity := offset + limit
	if capacity <= 0 {
		return nil, 0, nil
	}

	h := make(hitHeap, 0, capacity)
	heap.Init(&h)

	// The pooled hit: reused across Read calls, and handed off into the
	// heap (copied) only when it actually makes the cut.
	var scratch IndexHit
	var totalResults int

	for {
		scratch.Reset()
		status, err := it.Read(&scratch)
		if err != nil {
			return nil, totalResults, err
		}
		if status == StatusEOF {
			break
		}
		if status == StatusNotFound {
			continue
		}

		minDist := 1
		if scratch.Type != HitExact {
			minDist = minDistance(scratch.OffsetVecs)
		}
		final := scratch.TotalFreq / float32(minDist*minDist)

		if docScore != nil {
			factor, err := docScore(scratch.DocID)
			if err != nil {
				return nil, totalResults, err
			}
			final *= factor
		}

		totalResults++

		if h.Len() < capacity {
			cp := scratch
			cp.OffsetVecs = append([][]uint32(nil), scratch.OffsetVecs...)
			heap.Push(&h, &scoredHit{hit: cp, finalScore: final})
			continue
		}

		if betterThan(final, scratch.DocID, h[0].finalScore, h[0].hit.DocID) {
			h[0].hit = scratch
			h[0].hit.OffsetVecs = append([][]uint32(nil), scratch.OffsetVecs...)
			h[0].finalScore = final
			heap.Fix(&h, 0)
		}
	}

	// Repeatedly polling a min-heap yields ascending score order: the
	// weakest survivor first, the best survivor last. The best `offset`
	// survivors belong to a previous page, so they sit at the tail of
	// polled and are dropped from there; the `limit` entries just before
	// them are this page, reversed to descending order.
	n := h.Len()
	polled := make([]*scoredHit, n)
	for i := 0; i < n; i++ {
		polled[i] = heap.Pop(&h).(*scoredHit)
	}
	if offset >= len(polled) {
		return nil, totalResults, nil
	}
	end := len(polled) - offset
	start := end - limit
	if start < 0 {
		start = 0
	}
	kept := polled[start:end]

	out := make([]ScoredResult, len(kept))
	for i, sh := range kept {
		out[len(kept)-1-i] = ScoredResult{DocID: sh.hit.DocID, Score: sh.finalScore}
	}
	return out, totalResults, nil
}
