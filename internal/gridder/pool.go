// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package gridder

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid"
)

// pixelChunkSize amortizes goroutine-scheduling overhead against load
// imbalance across output pixels, per spec.md §5's "chunk granularity of
// ~100 pixels".
const pixelChunkSize = 100

// defaultNumThreads asks the CPU rather than assuming, the way the teacher's
// AVX2 dispatch (internal/stats_amd64.go) queries cpuid instead of guessing
// the platform.
func defaultNumThreads() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// parallelForPixels calls fn(i) for every i in [0,n) in chunks of
// pixelChunkSize, running up to numThreads chunks concurrently. Grounded on
// internal/stack.go's Stack() batching loop: a semaphore-bounded channel of
// goroutines, one per work package.
func parallelForPixels(n, numThreads int, fn func(i int)) {
	if numThreads < 1 {
		numThreads = 1
	}
	if n == 0 {
		return
	}
	sem := make(chan bool, numThreads)
	var wg sync.WaitGroup
	for lower := 0; lower < n; lower += pixelChunkSize {
		upper := lower + pixelChunkSize
		if upper > n {
			upper = n
		}
		sem <- true
		wg.Add(1)
		go func(lower, upper int) {
			defer wg.Done()
			defer func() { <-sem }()
			for i := lower; i < upper; i++ {
				fn(i)
			}
		}(lower, upper)
	}
	wg.Wait()
}
