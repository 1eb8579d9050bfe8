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
	"math/rand"
	"testing"
)

func BenchmarkInsertAscending(b *testing.B) {
	list := New[int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list.Insert(i)
	}
}

func BenchmarkContainsBalanced(b *testing.B) {
	const size = 1 << 16
	list := FromSlice(iota(0, size))
	rnd := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list.Contains(rnd.Intn(size))
	}
}

func BenchmarkRebalance(b *testing.B) {
	const size = 1 << 14
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		list := New[int]()
		for v := 0; v < size; v++ {
			list.Insert(v)
		}
		b.StartTimer()
		list.Rebalance()
	}
}

func BenchmarkAssignSlice(b *testing.B) {
	vals := iota(0, 1<<14)
	list := New[int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list.AssignSlice(vals)
	}
}
