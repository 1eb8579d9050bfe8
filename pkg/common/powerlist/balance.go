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
	"math/bits"
)

// stepper drives one stride of the rebalance cascade.  When the traversal
// index reaches target, the stepper splices from's next[1] forward and moves
// its anchor up to the current node.
type stepper[T any] struct {
	target uint64
	size   uint64
	from   *node[T]
}

// balancer walks the list once and rewrites next[1] pointers so that strides
// of size count, count/2, count/4, ... 1 tile the sequence, giving searches
// an O(log N) express lane.  One step per node; a partial walk leaves every
// visited pointer consistent.
type balancer[T any] struct {
	curr  *node[T]
	count uint64
	index uint64
	// steppers is a min-heap ordered by target.
	steppers []stepper[T]
}

func newBalancer[T any](head *node[T], count uint64) *balancer[T] {
	logN := bits.Len64(count - 1)
	b := &balancer[T]{
		curr:     head,
		count:    count,
		steppers: make([]stepper[T], logN),
	}
	cur := head
	step := count
	for i := 0; cur != nil && i < logN; i++ {
		b.steppers[logN-1-i] = stepper[T]{
			target: uint64(i) + step,
			size:   step,
			from:   cur,
		}
		cur = cur.next[0]
		step >>= 1
	}
	for i := len(b.steppers)/2 - 1; i >= 0; i-- {
		siftDown(b.steppers, i)
	}
	return b
}

func (b *balancer[T]) valid() bool {
	return b.curr != nil && b.curr.next[0] != nil
}

// step rebalances at the current node and advances one position.
func (b *balancer[T]) step() {
	// Give the visited node its successor as the express default; firing
	// steppers then overwrite anchors with longer jumps.  A completed walk
	// therefore leaves no pointer aimed at a recycled node.  Index 0 is the
	// head, whose next[1] must keep naming the tail.
	if b.index > 0 {
		b.curr.next[1] = b.curr.next[0]
	}

	h := b.steppers
	for len(h) > 0 && h[0].target == b.index {
		h[0].from.next[1] = b.curr.next[0]
		h[0].from = b.curr
		h[0].target += h[0].size
		siftDown(h, 0)
	}

	b.curr = b.curr.next[0]
	b.index++
}

// finish drains the walk, then lands every remaining stride on the tail so
// all express lanes end cleanly there.
func (b *balancer[T]) finish() {
	for b.valid() {
		b.step()
	}
	for i := range b.steppers {
		b.steppers[i].from.next[1] = b.curr
	}
	if b.curr != nil {
		b.curr.next[1] = b.curr
	}
}

func (b *balancer[T]) clone() *balancer[T] {
	c := *b
	c.steppers = make([]stepper[T], len(b.steppers))
	copy(c.steppers, b.steppers)
	return &c
}

// siftDown restores the min-target heap property from position i.
func siftDown[T any](h []stepper[T], i int) {
	for {
		left := 2*i + 1
		if left >= len(h) {
			return
		}
		m := left
		if right := left + 1; right < len(h) && h[right].target < h[left].target {
			m = right
		}
		if h[i].target <= h[m].target {
			return
		}
		h[i], h[m] = h[m], h[i]
		i = m
	}
}
