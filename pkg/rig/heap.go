package rig

import "container/heap"

// indexHeap is a min-heap of bone indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

func (h *indexHeap) push(i int) { heap.Push(h, i) }
func (h *indexHeap) pop() int   { return heap.Pop(h).(int) }
func (h *indexHeap) len() int   { return h.Len() }
