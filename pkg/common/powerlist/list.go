// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package powerlist implements a sorted singly-linked list with a second
// per-node forward pointer forming a logarithmic express lane over the
// sequence.  The lane is maintained lazily: mutations mark it stale and an
// ordinary full traversal (or an explicit Rebalance) pays the maintenance
// cost one pointer splice at a time.
//
// Node storage comes from a scatter allocator, so erased nodes are recycled
// before the backing pools grow.  The list is not safe for concurrent
// mutation; a balanced list tolerates concurrent readers.
package powerlist

import (
	"unsafe"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"

	"github.com/matrixorigin/powerlist/pkg/common/moerr"
	"github.com/matrixorigin/powerlist/pkg/common/scatter"
)

// node links the sorted sequence twice over: next[0] is the in-order
// successor, next[1] the express lane.  The head's next[1] names the tail
// (or the head itself for a single element), which makes Back O(1) and lets
// insert and erase maintain the tail link without a separate field.
type node[T any] struct {
	next [2]*node[T]
	data T
}

// List is a sorted sequence of T.  Duplicates are permitted: Insert places a
// duplicate immediately before the first equal value, Find locates the first
// equal value, and Remove removes at most one.
type List[T constraints.Ordered] struct {
	head  *node[T]
	count uint64

	// needsRebalance means some next[1] pointers may be stale.  Stale
	// pointers left by Insert still aim at live nodes, so searches keep
	// descending the express lane and merely under-advance.
	needsRebalance bool
	// expressLamed means Erase may have left next[1] pointers aimed at
	// recycled nodes.  Searches walk next[0] only until a completed
	// rebalance has rewritten the whole lane.
	expressLamed bool

	alloc *scatter.Allocator[node[T]]
}

// New creates an empty list.
func New[T constraints.Ordered]() *List[T] {
	return &List[T]{alloc: scatter.New[node[T]]()}
}

// FromSlice creates a list holding the given sorted values.
func FromSlice[T constraints.Ordered](vals []T) *List[T] {
	l := New[T]()
	l.AssignSlice(vals)
	return l
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return int(l.count)
}

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool {
	return l.head == nil
}

// Front returns the smallest value.  The list must not be empty.
func (l *List[T]) Front() T {
	if l.head == nil {
		panic(moerr.NewInvalidStateNoCtx("front of an empty list"))
	}
	return l.head.data
}

// Back returns the largest value in O(1) via the head's tail link.  The list
// must not be empty.
func (l *List[T]) Back() T {
	if l.head == nil {
		panic(moerr.NewInvalidStateNoCtx("back of an empty list"))
	}
	return l.head.next[1].data
}

// Clear releases every node to the allocator and drops the allocator's pools.
func (l *List[T]) Clear() {
	n := l.head
	l.head = nil
	for n != nil {
		next := n.next[0]
		l.alloc.Deallocate(unsafe.Slice(n, 1))
		n = next
	}
	l.alloc.Close()
	l.alloc = scatter.New[node[T]]()
	l.count = 0
	l.needsRebalance = false
	l.expressLamed = false
}

// AssignSlice replaces the contents with the given values, which must be
// sorted.  The nodes are bulk-allocated in one request and balanced by a
// coincident traversal, so the fresh list needs no further rebalancing.
func (l *List[T]) AssignSlice(vals []T) {
	if !slices.IsSorted(vals) {
		panic(moerr.NewInvalidInputNoCtx("assign of unsorted values"))
	}
	if l.head != nil {
		l.Clear()
	}
	if len(vals) == 0 {
		return
	}

	count := len(vals)
	ptrs := make([]*node[T], 0, count)
	l.alloc.AllocateWithCallback(count, func(span []node[T]) {
		for i := range span {
			ptrs = append(ptrs, &span[i])
		}
	})

	// Link in order; next[1] gets the successor as a provisional lane that
	// also seeds the rebalancer anchors.
	for i := 0; i < count-1; i++ {
		ptrs[i].next[0] = ptrs[i+1]
		ptrs[i].next[1] = ptrs[i+1]
		ptrs[i].data = vals[i]
	}
	tail := ptrs[count-1]
	tail.next[0] = nil
	tail.next[1] = tail
	tail.data = vals[count-1]

	l.head = ptrs[0]
	l.count = uint64(count)

	newBalancer(l.head, l.count).finish()
	l.needsRebalance = false
	l.expressLamed = false
}

// Insert adds v at its sorted position.
func (l *List[T]) Insert(v T) {
	n := l.alloc.AllocateOne()
	*n = node[T]{data: v}

	switch {
	case l.head == nil:
		l.head = n
		n.next[1] = n
	case v <= l.head.data:
		// New head inherits the tail link.
		n.next[0] = l.head
		n.next[1] = l.head.next[1]
		l.head = n
	default:
		if last := l.head.next[1]; last.data < v {
			// New tail self-points like a range-built tail, so no node ever
			// carries a nil next[1] into a later interior splice.
			last.next[0] = n
			last.next[1] = n
			n.next[1] = n
			l.head.next[1] = n
		} else {
			it := l.LowerBound(v)
			it.prev.next[0] = n
			n.next[0] = it.curr
			n.next[1] = it.curr.next[1]
		}
	}

	l.count++
	l.needsRebalance = true
}

// InsertAfter splices v immediately after the given position without
// reordering.  The caller must supply an iterator whose position keeps the
// sequence sorted.
func (l *List[T]) InsertAfter(it Iterator[T], v T) {
	if it.curr == nil {
		panic(moerr.NewInvalidStateNoCtx("insert after end iterator"))
	}
	c := it.curr
	if v < c.data || (c.next[0] != nil && c.next[0].data < v) {
		panic(moerr.NewInvalidInputNoCtx("insert position would break ordering"))
	}

	n := l.alloc.AllocateOne()
	*n = node[T]{data: v}

	if c.next[0] == nil { // after tail
		c.next[0] = n
		c.next[1] = n
		n.next[1] = n
		l.head.next[1] = n
	} else {
		n.next[0] = c.next[0]
		n.next[1] = c.next[1]
		c.next[0] = n
	}

	l.count++
	l.needsRebalance = true
}

// Remove erases at most one element equal to v.
func (l *List[T]) Remove(v T) {
	l.Erase(l.Find(v))
}

// Erase unlinks the element at the iterator and returns its node to the
// allocator.  A no-op on the end iterator.
func (l *List[T]) Erase(it Iterator[T]) {
	if it.curr == nil {
		return
	}

	n := it.curr
	next := n.next[0]
	if it.prev == nil { // head
		if next != nil {
			// Successor becomes head and inherits the tail link.
			next.next[1] = n.next[1]
		}
		l.head = next
	} else {
		if next == nil { // tail
			l.head.next[1] = it.prev
		}
		it.prev.next[0] = next
	}

	l.alloc.Deallocate(unsafe.Slice(n, 1))
	l.count--
	l.needsRebalance = true
	l.expressLamed = true
}

// Find returns an iterator at the first element equal to v, or the end
// iterator.
func (l *List[T]) Find(v T) Iterator[T] {
	if l.head == nil || v < l.head.data || v > l.head.next[1].data {
		return Iterator[T]{list: l}
	}

	var prev *node[T]
	n := l.head
	if l.expressLamed {
		for n.data < v {
			prev = n
			n = n.next[0]
		}
	} else {
		for n.next[0] != nil && v > n.next[0].data {
			prev = n
			if v > n.next[1].data {
				n = n.next[1]
			} else {
				n = n.next[0]
			}
		}
		// Only the tail has a nil next[0], and the boundary check above
		// keeps the walk from stepping past it.
		for n.data < v {
			prev = n
			n = n.next[0]
		}
	}

	if n.data == v {
		return Iterator[T]{curr: n, prev: prev, list: l}
	}
	return Iterator[T]{list: l}
}

// LowerBound returns an iterator at the first element >= v, or the end
// iterator when every element is smaller.
func (l *List[T]) LowerBound(v T) Iterator[T] {
	if l.head == nil {
		return Iterator[T]{list: l}
	}
	if v < l.head.data {
		return Iterator[T]{curr: l.head, list: l}
	}
	if v > l.head.next[1].data {
		return Iterator[T]{list: l}
	}

	var prev *node[T]
	curr := l.head
	if l.expressLamed {
		for curr.data < v {
			prev = curr
			curr = curr.next[0]
		}
	} else {
		for v > curr.data {
			prev = curr
			if v > curr.next[1].data {
				curr = curr.next[1]
			} else {
				curr = curr.next[0]
			}
		}
	}
	return Iterator[T]{curr: curr, prev: prev, list: l}
}

// Contains reports whether v is present.
func (l *List[T]) Contains(v T) bool {
	it := l.Find(v)
	return it.Valid()
}

// Rebalance re-establishes the express-lane cascade in one pass.  Idempotent.
func (l *List[T]) Rebalance() {
	if l.head == nil || !l.needsRebalance {
		return
	}
	newBalancer(l.head, l.count).finish()
	l.needsRebalance = false
	l.expressLamed = false
}

// Equal reports elementwise equality along next[0].  Express-lane structure
// is immaterial.
func (l *List[T]) Equal(o *List[T]) bool {
	if l.head == o.head {
		return true
	}
	if l.head == nil || o.head == nil {
		return false
	}
	if l.count != o.count {
		return false
	}
	if l.head.data != o.head.data {
		return false
	}
	if l.head.next[1].data != o.head.next[1].data {
		return false
	}

	a, b := l.head, o.head
	for a != nil {
		if a.data != b.data {
			return false
		}
		a = a.next[0]
		b = b.next[0]
	}
	return true
}

// Clone returns a deep copy with an equal sequence.
func (l *List[T]) Clone() *List[T] {
	nl := New[T]()
	if l.head == nil {
		return nl
	}
	vals := make([]T, 0, l.count)
	for n := l.head; n != nil; n = n.next[0] {
		vals = append(vals, n.data)
	}
	nl.AssignSlice(vals)
	return nl
}
