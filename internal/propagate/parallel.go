package propagate

import (
	"runtime"
	"sync"
)

// ParallelFor executes fn over contiguous, disjoint chunks covering [0, n),
// splitting across up to runtime.NumCPU() workers. Chunks smaller than
// minChunk are not worth the goroutine overhead and run inline.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			if e > s {
				fn(s, e)
			}
		}(start, end)
	}
	wg.Wait()
}

// ParallelReduce splits [0, n) the same way as ParallelFor, has each worker
// fold its chunk into a local accumulator via chunkFn, then combines the
// per-worker accumulators sequentially with combine. identity must be the
// neutral element combine expects as its left-hand starting point.
func ParallelReduce[T any](n, minChunk int, identity T, chunkFn func(start, end int, acc T) T, combine func(a, b T) T) T {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		return chunkFn(0, n, identity)
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	partials := make([]T, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(idx, s, e int) {
			defer wg.Done()
			if e > s {
				partials[idx] = chunkFn(s, e, identity)
			} else {
				partials[idx] = identity
			}
		}(w, start, end)
	}
	wg.Wait()

	acc := identity
	for _, p := range partials {
		acc = combine(acc, p)
	}
	return acc
}

// ParallelPrefixSum computes an exclusive prefix sum of counts into out
// (len(out) == len(counts)) and returns the total. It uses the classic
// two-pass work-efficient scan: each worker sums its chunk, a sequential
// pass turns the per-chunk sums into chunk offsets, then each worker writes
// its chunk's exclusive prefix using that offset.
func ParallelPrefixSum(counts []int, out []int, minChunk int) int {
	n := len(counts)
	if n == 0 {
		return 0
	}
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		workers = 1
	} else if n/minChunk < workers {
		workers = n / minChunk
		if workers < 1 {
			workers = 1
		}
	}

	chunkSize := (n + workers - 1) / workers
	bounds := make([][2]int, 0, workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if end > start {
			bounds = append(bounds, [2]int{start, end})
		}
	}

	chunkSums := make([]int, len(bounds))
	var wg sync.WaitGroup
	wg.Add(len(bounds))
	for i, b := range bounds {
		go func(idx, s, e int) {
			defer wg.Done()
			sum := 0
			for k := s; k < e; k++ {
				sum += counts[k]
			}
			chunkSums[idx] = sum
		}(i, b[0], b[1])
	}
	wg.Wait()

	chunkOffsets := make([]int, len(bounds))
	running := 0
	for i, s := range chunkSums {
		chunkOffsets[i] = running
		running += s
	}
	total := running

	wg.Add(len(bounds))
	for i, b := range bounds {
		go func(idx, s, e int) {
			defer wg.Done()
			running := chunkOffsets[idx]
			for k := s; k < e; k++ {
				out[k] = running
				running += counts[k]
			}
		}(i, b[0], b[1])
	}
	wg.Wait()

	return total
}
