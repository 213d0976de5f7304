// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type Elem[T any, W constraints.Ordered] struct {
	Value  T
	Weight W
}

type seqElem[T any, W constraints.Ordered] struct {
	Elem[T, W]
	seq int
}

// _heap is a min-heap on (weight, -seq). Among equal weights, the element pushed
// last sits on top and is evicted first.
type _heap[T any, W constraints.Ordered] struct {
	elems []seqElem[T, W]
}

func (h *_heap[T, W]) Len() int {
	return len(h.elems)
}

func (h *_heap[T, W]) Less(i, j int) bool {
	if h.elems[i].Weight != h.elems[j].Weight {
		return h.elems[i].Weight < h.elems[j].Weight
	}
	return h.elems[i].seq > h.elems[j].seq
}

func (h *_heap[T, W]) Swap(i, j int) {
	h.elems[i], h.elems[j] = h.elems[j], h.elems[i]
}

func (h *_heap[T, W]) Push(x any) {
	h.elems = append(h.elems, x.(seqElem[T, W]))
}

func (h *_heap[T, W]) Pop() any {
	n := len(h.elems)
	e := h.elems[n-1]
	h.elems = h.elems[:n-1]
	return e
}

// TopKFilter filters out top k items with maximum weights. Ties are resolved in
// favor of the item pushed first, so the result equals a stable descending sort
// truncated to k.
type TopKFilter[T any, W constraints.Ordered] struct {
	_heap[T, W]
	k   int
	seq int
}

// NewTopKFilter creates a top k filter.
func NewTopKFilter[T any, W constraints.Ordered](k int) *TopKFilter[T, W] {
	return &TopKFilter[T, W]{k: k}
}

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Count().
func (filter *TopKFilter[T, W]) Push(item T, weight W) {
	if filter.k <= 0 {
		return
	}
	heap.Push(&filter._heap, seqElem[T, W]{Elem: Elem[T, W]{Value: item, Weight: weight}, seq: filter.seq})
	filter.seq++
	if filter.Len() > filter.k {
		heap.Pop(&filter._heap)
	}
}

// PopAll pops all items in the filter with decreasing order.
func (filter *TopKFilter[T, W]) PopAll() []Elem[T, W] {
	elems := make([]Elem[T, W], filter.Len())
	for i := len(elems) - 1; i >= 0; i-- {
		elems[i] = heap.Pop(&filter._heap).(seqElem[T, W]).Elem
	}
	return elems
}

// PopAllValues pops all values in the filter with decreasing order.
func (filter *TopKFilter[T, W]) PopAllValues() []T {
	values := make([]T, filter.Len())
	for i := len(values) - 1; i >= 0; i-- {
		values[i] = heap.Pop(&filter._heap).(seqElem[T, W]).Value
	}
	return values
}
