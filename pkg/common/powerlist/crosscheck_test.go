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

	"github.com/google/btree"
	"github.com/stretchr/testify/require"
)

// TestCrossCheckAgainstBTree drives the list and a btree oracle through the
// same workload (distinct keys, so the set-vs-multiset mismatch between the
// two containers stays out of the picture) and compares membership and
// ordered iteration at checkpoints.
func TestCrossCheckAgainstBTree(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	list := New[int]()
	oracle := btree.NewOrderedG[int](16)

	verify := func() {
		t.Helper()
		require.Equal(t, oracle.Len(), list.Len())

		var want []int
		oracle.Ascend(func(v int) bool {
			want = append(want, v)
			return true
		})
		var got []int
		for v := range list.Values() {
			got = append(got, v)
		}
		require.Equal(t, want, got)
	}

	for i := 0; i < 3000; i++ {
		v := rnd.Intn(800)
		if rnd.Intn(2) == 0 {
			if _, ok := oracle.ReplaceOrInsert(v); !ok {
				list.Insert(v)
			}
		} else {
			if _, ok := oracle.Delete(v); ok {
				list.Remove(v)
			}
		}
		if i%500 == 499 {
			verify()
		}
	}
	verify()

	for v := 0; v < 800; v++ {
		require.Equal(t, oracle.Has(v), list.Contains(v), "key %d", v)
	}
}
