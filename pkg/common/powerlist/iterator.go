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

package powerlist

import (
	"iter"

	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/powerlist/pkg/common/moerr"
)

// Iterator is a forward iterator.  An iterator created by Begin on a list
// whose express lane is stale carries a balancer and performs one rebalance
// step per advance; finishing the traversal settles the lane and clears the
// list's staleness flags.  While such an iterator is live no other mutating
// operation on the list is permitted.
type Iterator[T constraints.Ordered] struct {
	curr *node[T]
	prev *node[T]
	h    *balancer[T]
	list *List[T]
}

// Begin returns an iterator at the front of the list.
func (l *List[T]) Begin() Iterator[T] {
	it := Iterator[T]{curr: l.head, list: l}
	if l.needsRebalance && l.count > 0 {
		it.h = newBalancer(l.head, l.count)
	}
	return it
}

// Valid reports whether the iterator is not at the end.
func (it *Iterator[T]) Valid() bool {
	return it.curr != nil
}

// Value returns the element at the iterator.
func (it *Iterator[T]) Value() T {
	if it.curr == nil {
		panic(moerr.NewInvalidStateNoCtx("dereference of end iterator"))
	}
	return it.curr.data
}

// Next advances one position, paying one rebalance step when the iterator
// carries a balancer.
func (it *Iterator[T]) Next() {
	if it.curr == nil {
		panic(moerr.NewInvalidStateNoCtx("step past end of list"))
	}
	if it.h != nil && it.h.valid() {
		it.h.step()
	}
	it.prev = it.curr
	it.curr = it.curr.next[0]
	if it.curr == nil && it.h != nil {
		// Full traversal: settle the remaining strides on the tail and
		// mark the express lane trustworthy again.
		it.h.finish()
		it.h = nil
		it.list.needsRebalance = false
		it.list.expressLamed = false
	}
}

// Clone returns an independent copy.  A carried balancer is deep-copied so
// each copy makes its own progress; replaying a splice over an
// already-balanced region is idempotent.
func (it Iterator[T]) Clone() Iterator[T] {
	c := it
	if it.h != nil {
		c.h = it.h.clone()
	}
	return c
}

// Values iterates the list in order for range-over-func.  A full pass over a
// stale list rebalances it; breaking early leaves the visited prefix
// consistent and the staleness flags set.
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for it := l.Begin(); it.Valid(); it.Next() {
			if !yield(it.curr.data) {
				return
			}
		}
	}
}
