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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
)

// A balanced list mutates nothing during reads, so concurrent read-only
// access is safe.  The workload runs on an ants pool the way service code
// fans out lookups.
func TestConcurrentReadersOnBalancedList(t *testing.T) {
	const size = 4096
	list := FromSlice(iota(0, size))
	require.False(t, list.needsRebalance)

	pool, err := ants.NewPool(8)
	require.NoError(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	var misses atomic.Int64
	for w := 0; w < 64; w++ {
		wg.Add(1)
		ww := w
		err := pool.Submit(func() {
			defer wg.Done()
			for v := ww; v < size; v += 64 {
				if !list.Contains(v) {
					misses.Add(1)
				}
			}
			sum := 0
			for it := list.Begin(); it.Valid(); it.Next() {
				sum += it.Value()
			}
			if sum != size*(size-1)/2 {
				misses.Add(1)
			}
		})
		require.NoError(t, err)
	}
	wg.Wait()
	require.Equal(t, int64(0), misses.Load())
}
