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

// pldemo drives the scatter allocator and the power list through a small
// workload: bulk construction, point mutations, lazy rebalancing paid by
// iteration, and concurrent read-only lookups on the balanced list.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/powerlist/pkg/common/powerlist"
	"github.com/matrixorigin/powerlist/pkg/common/scatter"
	"github.com/matrixorigin/powerlist/pkg/config"
	"github.com/matrixorigin/powerlist/pkg/logutil"
)

var configFile = flag.String("cfg", "", "path to the TOML configuration file")

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	logutil.SetupMOLogger(&cfg.Log)

	demoAllocator(cfg)
	demoList(cfg)
}

func demoAllocator(cfg *config.Config) {
	alloc := scatter.New[int64](scatter.Options{
		StartingSize: cfg.Allocator.StartingSize,
		NoPoison:     cfg.Allocator.DisablePoison,
		UseMmap:      cfg.Allocator.UseMmap,
	})
	defer alloc.Close()

	spans := alloc.Allocate(10)
	alloc.Deallocate(spans[0][2:4])
	alloc.Deallocate(spans[0][4:6])

	var sizes []int
	alloc.AllocateWithCallback(20, func(span []int64) {
		sizes = append(sizes, len(span))
	})
	logutil.Info("allocator scatters freed holes before fresh pool space",
		zap.Ints("span sizes", sizes),
	)
}

func demoList(cfg *config.Config) {
	n := cfg.Workload.Elements

	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i * 2)
	}

	start := time.Now()
	list := powerlist.FromSlice(vals)
	logutil.Info("bulk construction",
		zap.Int("elements", list.Len()),
		zap.Duration("took", time.Since(start)),
	)

	// Point mutations leave the express lane stale.
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 1000; i++ {
		list.Insert(int64(rnd.Intn(2*n))*2 + 1)
	}
	for i := 0; i < 500; i++ {
		list.Remove(int64(rnd.Intn(2*n)))
	}

	// One full pass pays the rebalance off.
	start = time.Now()
	var sum int64
	for v := range list.Values() {
		sum += v
	}
	logutil.Info("iteration rebalanced the list",
		zap.Int64("sum", sum),
		zap.Duration("took", time.Since(start)),
	)

	// The balanced list tolerates concurrent readers.
	pool, err := ants.NewPool(cfg.Workload.Readers)
	if err != nil {
		logutil.Fatal("reader pool", zap.Error(err))
	}
	defer pool.Release()

	start = time.Now()
	var wg sync.WaitGroup
	for r := 0; r < cfg.Workload.Readers; r++ {
		wg.Add(1)
		seed := int64(r)
		if err := pool.Submit(func() {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			hits := 0
			for i := 0; i < cfg.Workload.Lookups; i++ {
				if list.Contains(int64(rnd.Intn(2*n)) * 2) {
					hits++
				}
			}
			logutil.Debug("reader done", zap.Int64("seed", seed), zap.Int("hits", hits))
		}); err != nil {
			logutil.Fatal("submit reader", zap.Error(err))
		}
	}
	wg.Wait()
	logutil.Info("concurrent lookups",
		zap.Int("readers", cfg.Workload.Readers),
		zap.Int("lookups per reader", cfg.Workload.Lookups),
		zap.Duration("took", time.Since(start)),
	)
}
