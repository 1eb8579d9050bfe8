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

// Package scatter implements a pool-based bulk allocator for fixed-type
// elements.  A single allocation can be satisfied from many discontiguous
// spans: the allocator fills holes returned through Deallocate before it
// taps fresh pool space, so old pools fill up from the back and the growth
// edge of the newest pool is rarely touched.
//
// The allocator performs no element construction or destruction and is not
// thread safe.
package scatter

import (
	"math/bits"
	"reflect"
	"unsafe"

	"go.uber.org/zap"

	"github.com/matrixorigin/powerlist/pkg/common/moerr"
	"github.com/matrixorigin/powerlist/pkg/logutil"
)

const (
	// DefaultStartingSize is the minimum capacity of the first pool.
	DefaultStartingSize = 16

	poisonByte = 0xEE
)

// Options tunes a new Allocator.
type Options struct {
	// StartingSize overrides DefaultStartingSize. Rounded up to a power of two.
	StartingSize int
	// NoPoison disables the debug poison fill on Deallocate.
	NoPoison bool
	// UseMmap backs pools with anonymous mappings instead of the Go heap.
	// Only legal for element types that contain no pointers.
	UseMmap bool
}

type pool[T any] struct {
	next *pool[T]
	data []T
	// watermark counts the prefix slots that have ever been handed out.
	watermark int
}

type freeBlock[T any] struct {
	next *freeBlock[T]
	span []T
}

// Allocator hands out T-typed storage for n elements via a callback invoked
// once per contiguous span.  Freed spans are recycled before pools grow.
type Allocator[T any] struct {
	pools    *pool[T]
	freeList *freeBlock[T]

	startingSize int
	poison       bool
	useMmap      bool

	// mapped tracks mmap regions for release in Close.
	mapped [][]byte
}

// New creates an empty allocator.  It panics if opts request mmap-backed
// pools for an element type the garbage collector must scan.
func New[T any](opts ...Options) *Allocator[T] {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	starting := opt.StartingSize
	if starting <= 0 {
		starting = DefaultStartingSize
	}
	if starting&(starting-1) != 0 {
		starting = 1 << bits.Len(uint(starting))
	}
	noScan := typeIsPointerFree(reflect.TypeFor[T]())
	if opt.UseMmap && !noScan {
		panic(moerr.NewInvalidInputNoCtx("mmap-backed pools require a pointer-free element type, got %v", reflect.TypeFor[T]()))
	}
	return &Allocator[T]{
		startingSize: starting,
		poison:       !opt.NoPoison && noScan,
		useMmap:      opt.UseMmap,
	}
}

// AllocateWithCallback hands out storage totaling exactly n slots by invoking
// f once per contiguous span.  Spans are nonempty and their sizes sum to n.
//
// The order is the contract: free blocks are consumed first, newest pools'
// fresh space next, and a new pool is grown only when everything else is
// exhausted.
func (a *Allocator[T]) AllocateWithCallback(n int, f func(span []T)) {
	if n <= 0 {
		return
	}
	remaining := n

	// Take space from the free list.
	pf := &a.freeList
	for *pf != nil {
		blk := *pf
		minSpace := min(remaining, len(blk.span))

		f(blk.span[:minSpace:minSpace])
		remaining -= minSpace

		if minSpace == len(blk.span) {
			*pf = blk.next
		} else {
			blk.span = blk.span[minSpace:]
			pf = &blk.next
		}
		if remaining == 0 {
			return
		}
	}

	// Take space from the pools, newest first.
	p := a.pools
	for remaining > 0 {
		if p == nil {
			p = a.addPool(remaining)
		}

		cur := p
		p = p.next

		minSpace := min(remaining, len(cur.data)-cur.watermark)
		if minSpace == 0 {
			continue
		}

		f(cur.data[cur.watermark : cur.watermark+minSpace : cur.watermark+minSpace])
		cur.watermark += minSpace
		remaining -= minSpace
	}
}

// Allocate collects the spans AllocateWithCallback would deliver for n slots.
func (a *Allocator[T]) Allocate(n int) [][]T {
	var r [][]T
	a.AllocateWithCallback(n, func(span []T) {
		r = append(r, span)
	})
	return r
}

// AllocateOne hands out a single slot.
func (a *Allocator[T]) AllocateOne() *T {
	var t *T
	a.AllocateWithCallback(1, func(span []T) {
		if t != nil || len(span) != 1 {
			panic(moerr.NewInternalErrorNoCtx("single-slot allocation delivered %d slots", len(span)))
		}
		t = &span[0]
	})
	return t
}

// Deallocate returns a previously handed-out contiguous region, possibly a
// subspan of one originally delivered, to the free list.  Panics if the span
// does not lie inside a live pool.
func (a *Allocator[T]) Deallocate(span []T) {
	if len(span) == 0 {
		return
	}
	if !a.validateAddr(span) {
		panic(moerr.NewInvalidInputNoCtx("deallocate of span outside any live pool"))
	}

	// Poison the allocation to catch use-after-free.  Skipped for pointerful
	// element types: scribbling over memory the collector scans as pointers
	// corrupts the heap.
	if a.poison {
		poison(span)
	}

	a.freeList = &freeBlock[T]{next: a.freeList, span: span}
}

// Close drops all pools and free blocks.  Heap-backed pools are left to the
// collector; mmap-backed pools are unmapped.
func (a *Allocator[T]) Close() {
	a.pools = nil
	a.freeList = nil
	for _, m := range a.mapped {
		if err := sysFree(m); err != nil {
			logutil.Error("scatter: munmap failed", zap.Error(err))
		}
	}
	a.mapped = nil
}

func (a *Allocator[T]) addPool(remaining int) *pool[T] {
	size := nextPow2(remaining)
	if a.pools != nil {
		if doubled := len(a.pools.data) << 1; doubled > size {
			size = doubled
		}
	}
	if size < a.startingSize {
		size = a.startingSize
	}

	data := a.newPoolStorage(size)
	a.pools = &pool[T]{next: a.pools, data: data}
	logutil.Debug("scatter: new pool",
		zap.Int("capacity", size),
		zap.Int("requested", remaining),
	)
	return a.pools
}

func (a *Allocator[T]) newPoolStorage(size int) []T {
	if !a.useMmap {
		return make([]T, size)
	}
	var t T
	buf, err := sysAlloc(size * int(unsafe.Sizeof(t)))
	if err != nil {
		panic(moerr.NewOOM(moerr.Context()))
	}
	a.mapped = append(a.mapped, buf)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(buf))), size)
}

func (a *Allocator[T]) validateAddr(span []T) bool {
	var t T
	elem := unsafe.Sizeof(t)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(span)))
	end := base + uintptr(len(span))*elem
	for p := a.pools; p != nil; p = p.next {
		pbase := uintptr(unsafe.Pointer(unsafe.SliceData(p.data)))
		pend := pbase + uintptr(len(p.data))*elem
		if base >= pbase && end <= pend {
			return true
		}
	}
	return false
}

// nextPow2 returns the smallest power of two strictly greater than n.
func nextPow2(n int) int {
	return 1 << bits.Len(uint(n))
}

func poison[T any](span []T) {
	var t T
	nbytes := len(span) * int(unsafe.Sizeof(t))
	bs := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(span))), nbytes)
	for i := range bs {
		bs[i] = poisonByte
	}
}

// typeIsPointerFree reports whether values of t contain no pointers anywhere,
// making raw byte poisoning safe.
func typeIsPointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return typeIsPointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !typeIsPointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
