package index

import (
	"container/heap"
	"iter"
	"sort"
)

// mergeIDStreams merges several ascending id streams into one ascending,
// duplicate-free stream. When sorted is true (every stream individually
// ascending — the common case for index leaves, per the wellSorted bit
// tracked by ARFMapperIndex) it performs a proper k-way heap merge;
// otherwise it falls back to collect-then-sort, matching spec.md section
// 4.7's heap-merge-when-well-sorted / full-sort-otherwise policy.
func mergeIDStreams(streams []iter.Seq[uint64], sorted bool) iter.Seq[uint64] {
	if len(streams) == 0 {
		return func(func(uint64) bool) {}
	}
	if len(streams) == 1 && sorted {
		return streams[0]
	}
	if sorted {
		return heapMergeUnique(streams)
	}
	return func(yield func(uint64) bool) {
		seen := make(map[uint64]struct{})
		var all []uint64
		for _, s := range streams {
			for id := range s {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				all = append(all, id)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		for _, id := range all {
			if !yield(id) {
				return
			}
		}
	}
}

type mergeSource struct {
	next func() (uint64, bool)
	stop func()
	cur  uint64
}

type sourceHeap []*mergeSource

func (h sourceHeap) Len() int            { return len(h) }
func (h sourceHeap) Less(i, j int) bool  { return h[i].cur < h[j].cur }
func (h sourceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sourceHeap) Push(x any)         { *h = append(*h, x.(*mergeSource)) }
func (h *sourceHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

func heapMergeUnique(streams []iter.Seq[uint64]) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		h := &sourceHeap{}
		var stops []func()
		defer func() {
			for _, stop := range stops {
				stop()
			}
		}()
		for _, s := range streams {
			next, stop := iter.Pull(s)
			stops = append(stops, stop)
			if v, ok := next(); ok {
				*h = append(*h, &mergeSource{next: next, cur: v})
			}
		}
		heap.Init(h)

		first := true
		var lastYielded uint64
		for h.Len() > 0 {
			top := heap.Pop(h).(*mergeSource)
			id := top.cur
			if first || id != lastYielded {
				if !yield(id) {
					return
				}
				lastYielded = id
				first = false
			}
			if v, ok := top.next(); ok {
				top.cur = v
				heap.Push(h, top)
			}
		}
	}
}
