package propagate

import "testing"

func TestParallelForCoversRange(t *testing.T) {
	n := 10000
	hits := make([]int32, n)
	ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			hits[i]++
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestParallelForSmallRangeInline(t *testing.T) {
	n := 4
	sum := 0
	ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			sum += i
		}
	})
	if sum != 0+1+2+3 {
		t.Errorf("got %d, want 6", sum)
	}
}

func TestParallelReduceSum(t *testing.T) {
	n := 5000
	total := ParallelReduce(n, 16, 0, func(start, end int, acc int) int {
		for i := start; i < end; i++ {
			acc += i
		}
		return acc
	}, func(a, b int) int { return a + b })

	want := n * (n - 1) / 2
	if total != want {
		t.Errorf("got %d, want %d", total, want)
	}
}

func TestParallelPrefixSum(t *testing.T) {
	counts := []int{1, 0, 2, 3, 0, 1}
	out := make([]int, len(counts))
	total := ParallelPrefixSum(counts, out, 2)

	want := []int{0, 1, 1, 3, 6, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
}

func TestParallelPrefixSumEmpty(t *testing.T) {
	total := ParallelPrefixSum(nil, nil, 2)
	if total != 0 {
		t.Errorf("empty prefix sum total = %d, want 0", total)
	}
}
