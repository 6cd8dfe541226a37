package aabb

import (
	"math"
	"sync/atomic"

	"github.com/ari-sharma/conjunction/internal/geom"
	"github.com/ari-sharma/conjunction/internal/propagate"
)

// GlobalAABB is a chunk's reduced 4D AABB in plain floats, valid once
// Finalize has returned; before that, the same data lives in atomic form
// inside a Reducer.
type GlobalAABB struct {
	LB [4]float32
	UB [4]float32
}

// Reducer accumulates a chunk's global AABB from per-particle AABBs under
// concurrent updates via a lock-free CAS retry loop over each coordinate's
// raw float32 bit pattern, per §4.6.
type Reducer struct {
	lb [4]atomic.Uint32
	ub [4]atomic.Uint32
}

// NewReducer returns a reducer initialised to the identity AABB
// (+Inf, -Inf) componentwise, so the first CAS always succeeds.
func NewReducer() *Reducer {
	r := &Reducer{}
	posInf := math.Float32bits(float32(math.Inf(1)))
	negInf := math.Float32bits(float32(math.Inf(-1)))
	for c := 0; c < 4; c++ {
		r.lb[c].Store(posInf)
		r.ub[c].Store(negInf)
	}
	return r
}

// Update folds one particle's (or one worker-local partial) AABB into the
// reducer's atomics.
func (r *Reducer) Update(b Bound) {
	for c := 0; c < 4; c++ {
		casMin(&r.lb[c], b.LB[c])
		// OQ1: the historical reducer read from the lb array here too (a
		// copy-paste bug). The matching ub array is used instead.
		casMax(&r.ub[c], b.UB[c])
	}
}

// casMin does a lock-free compare-and-swap retry loop computing
// min(current, v) on the raw float32 bit pattern behind addr.
func casMin(addr *atomic.Uint32, v float32) {
	for {
		old := addr.Load()
		oldF := math.Float32frombits(old)
		if v >= oldF {
			return
		}
		if addr.CompareAndSwap(old, math.Float32bits(v)) {
			return
		}
	}
}

// casMax mirrors casMin for the max direction.
func casMax(addr *atomic.Uint32, v float32) {
	for {
		old := addr.Load()
		oldF := math.Float32frombits(old)
		if v <= oldF {
			return
		}
		if addr.CompareAndSwap(old, math.Float32bits(v)) {
			return
		}
	}
}

// ReduceChunk folds every particle's AABB for chunk k into a fresh Reducer,
// parallelising the per-worker local fold and doing only the cross-worker
// merge through the atomics (matching §4.6: "after a worker finishes all
// its batches, it holds local per-chunk min/max reductions over its
// batches").
func ReduceChunk(bounds []Bound) *Reducer {
	r := NewReducer()
	const minChunk = 256
	propagate.ParallelFor(len(bounds), minChunk, func(start, end int) {
		local := emptyBound()
		for i := start; i < end; i++ {
			b := bounds[i]
			for c := 0; c < 4; c++ {
				if b.LB[c] < local.LB[c] {
					local.LB[c] = b.LB[c]
				}
				if b.UB[c] > local.UB[c] {
					local.UB[c] = b.UB[c]
				}
			}
		}
		r.Update(local)
	})
	return r
}

// Finalize copies the reducer's atomics into plain floats and resolves
// OQ3: if ub is not strictly greater than lb on some axis (the common case
// being a degenerate single-point AABB after outward rounding collapsed to
// equality), nudge ub upward by one representable step until it is. If lb
// is still +Inf (meaning no particle ever produced a finite bound - only
// possible when the chunk has zero particles), it returns
// propagate.ErrEmptyChunk without nudging.
func (r *Reducer) Finalize() (GlobalAABB, error) {
	var g GlobalAABB
	for c := 0; c < 4; c++ {
		g.LB[c] = math.Float32frombits(r.lb[c].Load())
		g.UB[c] = math.Float32frombits(r.ub[c].Load())

		if math.IsInf(float64(g.LB[c]), 1) {
			return g, propagate.ErrEmptyChunk
		}
		g.UB[c] = geom.NudgeUpperBound(g.LB[c], g.UB[c])
	}
	return g, nil
}
