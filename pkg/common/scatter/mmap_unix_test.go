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

//go:build linux || darwin

package scatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapPools(t *testing.T) {
	alloc := New[int64](Options{UseMmap: true})
	defer alloc.Close()

	spans := alloc.Allocate(100)
	total := 0
	for _, s := range spans {
		for i := range s {
			s[i] = int64(i)
		}
		total += len(s)
	}
	require.Equal(t, 100, total)
	require.Len(t, alloc.mapped, len(spans))
}

func TestMmapRejectsPointerfulType(t *testing.T) {
	type pointy struct{ p *int }
	require.Panics(t, func() {
		New[pointy](Options{UseMmap: true})
	})
}
