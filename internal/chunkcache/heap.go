package chunkcache

import "container/heap"

// evictHeap is a min-heap over *entry ordered by eviction priority:
// lowest hit count first, ties broken by oldest access ordinal. Only
// entries eligible for eviction (pinCount == 0) live in the heap; pinning
// an entry pops it out, unpinning pushes it back in. container/heap gives
// the O(log n) push/pop/fix the spec requires over a linear scan.
type evictHeap []*entry

func (h evictHeap) Len() int { return len(h) }

func (h evictHeap) Less(i, j int) bool {
	if h[i].hits != h[j].hits {
		return h[i].hits < h[j].hits
	}
	return h[i].accessOrdinal < h[j].accessOrdinal
}

func (h evictHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *evictHeap) Push(x any) {
	e := x.(*entry)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}

func (h *evictHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIndex = -1
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*evictHeap)(nil)
