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

package scatter

import (
	"testing"
	"unsafe"
)

func BenchmarkAllocateOneChurn(b *testing.B) {
	alloc := New[int64]()
	for i := 0; i < b.N; i++ {
		p := alloc.AllocateOne()
		alloc.Deallocate(unsafe.Slice(p, 1))
	}
}

func BenchmarkBulkAllocate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		alloc := New[int64]()
		alloc.AllocateWithCallback(1<<16, func(s []int64) {})
	}
}
