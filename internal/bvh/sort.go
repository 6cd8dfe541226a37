package bvh

import (
	"sort"

	"github.com/ari-sharma/conjunction/internal/aabb"
	"github.com/ari-sharma/conjunction/internal/geom"
	"github.com/ari-sharma/conjunction/internal/propagate"
)

// SortInput is one chunk's pre-sort data: the global AABB it was reduced
// against (for discretisation), the per-particle AABBs, and the initial
// index vector (identity, normally computed concurrently with C5 per
// spec.md §5's parallel_invoke). InitPerm may be nil, in which case Sort
// builds the identity permutation itself.
type SortInput struct {
	Global   aabb.GlobalAABB
	Bounds   []aabb.Bound
	InitPerm []int
}

// SortOutput holds the Morton-sorted per-particle data that is the sole
// input to the BVH builder (C8), plus the unsorted per-particle codes
// (indexed by original particle index) retained so the verifier (C9) can
// re-derive srt_mcodes[i] == mcodes[vidx[i]] rather than only checking that
// Permutation is a bijection.
type SortOutput struct {
	Codes         []uint64
	LB, UB        [][4]float32
	Permutation   []int
	UnsortedCodes []uint64
}

// Sort implements C7 for a single chunk: compute Morton codes at each
// particle's AABB centre, build a permutation that sorts particles by
// code, and materialise sorted copies of the AABB and code arrays.
func Sort(in SortInput) SortOutput {
	p := len(in.Bounds)
	codes := make([]uint64, p)

	const minChunk = 512
	propagate.ParallelFor(p, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			codes[i] = mortonCodeFor(in.Bounds[i], in.Global)
		}
	})

	perm := make([]int, p)
	if in.InitPerm != nil {
		copy(perm, in.InitPerm)
	} else {
		for i := range perm {
			perm[i] = i
		}
	}
	sort.Slice(perm, func(a, b int) bool {
		return codes[perm[a]] < codes[perm[b]]
	})

	out := SortOutput{
		Codes:         make([]uint64, p),
		LB:            make([][4]float32, p),
		UB:            make([][4]float32, p),
		Permutation:   perm,
		UnsortedCodes: codes,
	}
	propagate.ParallelFor(p, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			src := perm[i]
			out.Codes[i] = codes[src]
			out.LB[i] = in.Bounds[src].LB
			out.UB[i] = in.Bounds[src].UB
		}
	})
	return out
}

// mortonCodeFor bins a particle's AABB centre against the chunk's global
// AABB and interleaves the four resulting 16-bit bins. Centre is computed
// as lb/2 + ub/2, not (lb+ub)/2, to avoid overflowing lb+ub near the f32
// range limit.
func mortonCodeFor(b aabb.Bound, global aabb.GlobalAABB) uint64 {
	var bins [4]uint16
	for c := 0; c < 4; c++ {
		centre := float64(b.LB[c])/2 + float64(b.UB[c])/2
		bins[c] = uint16(geom.Bin(centre, float64(global.LB[c]), float64(global.UB[c])))
	}
	return geom.Encode4D(bins[0], bins[1], bins[2], bins[3])
}
