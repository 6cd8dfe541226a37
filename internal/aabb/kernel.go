package aabb

import (
	"math"
	"sync/atomic"

	"github.com/ari-sharma/conjunction/internal/geom"
	"github.com/ari-sharma/conjunction/internal/propagate"
)

// Bound is a per-particle, per-chunk 4D AABB: lower and upper bound for
// each of x, y, z, r, stored as float32 per the containment-preserving
// outward-rounding contract (see narrowDown and narrowUp below).
type Bound struct {
	LB [4]float32
	UB [4]float32
}

func emptyBound() Bound {
	b := Bound{}
	for i := range b.LB {
		b.LB[i] = float32(math.Inf(1))
		b.UB[i] = float32(math.Inf(-1))
	}
	return b
}

// State is one particle's 7-wide phase-space state: position, velocity,
// and the tracked radial coordinate r.
type State struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	R          float64
}

// Params bundles the superstep-scoped quantities the kernel needs: chunk
// count K, superstep length Δt, integrator batch width B and Taylor
// order O.
type Params struct {
	Chunks     int
	Dt         float64
	BatchWidth int
	Order      int
}

// chunkBounds returns [c_begin, c_end] for chunk k as a double-double pair,
// both relative to the superstep start.
func (p Params) chunkBounds(k int) (begin, end propagate.DFloat) {
	chunkSize := p.Dt / float64(p.Chunks)
	return propagate.NewDFloat(float64(k) * chunkSize), propagate.NewDFloat(float64(k+1) * chunkSize)
}

// Result is the C5 output: per-chunk, per-particle AABBs, ready for C6.
type Result struct {
	Chunks [][]Bound // Chunks[k][i]
}

// Run drives the integrator collaborator over every particle in batches of
// width params.BatchWidth (with a scalar, width-1 tail for any remainder),
// filling a Bound per (chunk, particle). It returns propagate.ErrIntegrationFailed
// wrapped in a *propagate.StepError if any lane's outcome is not
// OutcomeTimeLimit.
func Run(states []State, params Params, pool *propagate.InstancePool) (*Result, error) {
	p := len(states)
	result := &Result{Chunks: make([][]Bound, params.Chunks)}
	for k := range result.Chunks {
		result.Chunks[k] = make([]Bound, p)
	}

	full := p / params.BatchWidth
	tailStart := full * params.BatchWidth

	var failed atomic.Bool
	runBatch := func(offset, width int) error {
		integ := pool.Get(width, params.Order)
		defer pool.Put(integ)

		records := make([]propagate.SubstepRecord, width)
		loadState(integ, states[offset:offset+width])
		integ.SetDTime(0, 0)
		integ.ResetCooldowns()

		cb := makeCallback(records, width)
		outcomes, err := integ.PropagateFor(params.Dt, true, cb)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			if o != propagate.OutcomeTimeLimit {
				failed.Store(true)
			}
		}

		for lane := 0; lane < width; lane++ {
			particle := offset + lane
			for k := 0; k < params.Chunks; k++ {
				result.Chunks[k][particle] = boundForChunk(&records[lane], params, k)
			}
		}
		return nil
	}

	propagate.ParallelFor(full, 1, func(start, end int) {
		for b := start; b < end; b++ {
			if err := runBatch(b*params.BatchWidth, params.BatchWidth); err != nil {
				failed.Store(true)
			}
		}
	})

	for i := tailStart; i < p; i++ {
		if err := runBatch(i, 1); err != nil {
			failed.Store(true)
		}
	}

	if failed.Load() {
		return result, &propagate.StepError{Phase: "aabb", Chunk: -1, Wrapped: propagate.ErrIntegrationFailed}
	}
	return result, nil
}

func loadState(integ propagate.BatchIntegrator, batch []State) {
	buf := integ.State()
	w := integ.BatchWidth()
	for j, s := range batch {
		buf[0*w+j] = s.X
		buf[1*w+j] = s.Y
		buf[2*w+j] = s.Z
		buf[3*w+j] = s.VX
		buf[4*w+j] = s.VY
		buf[5*w+j] = s.VZ
		buf[6*w+j] = s.R
	}
}

// coordVIndex maps the spec's tracked-coordinate order (x, y, z, r) to the
// state-buffer coordinate slot v (x, y, z, vx, vy, vz, r).
var coordVIndex = [4]int{0, 1, 2, 6}

// makeCallback registers the per-step append protocol from the kernel's
// §4.5 step 5: for every lane whose last step was non-zero, append the new
// time and this step's coefficients to that lane's record; stop on a
// non-finite time.
func makeCallback(records []propagate.SubstepRecord, width int) propagate.StepCallback {
	return func(integ propagate.BatchIntegrator) bool {
		last := integ.LastStepSizes()
		hi, lo := integ.Times()
		coeffs := integ.TaylorCoeffs()
		order := integ.Order()
		keepGoing := true

		for lane := 0; lane < width; lane++ {
			if last[lane] == 0 {
				continue
			}
			t := propagate.DFloat{Hi: hi[lane], Lo: lo[lane]}
			if !t.IsFinite() {
				keepGoing = false
				continue
			}

			var coords [4][]float64
			for ci, v := range coordVIndex {
				c := make([]float64, order+1)
				for o := 0; o <= order; o++ {
					c[o] = coeffs[v*(order+1)*width+o*width+lane]
				}
				coords[ci] = c
			}
			records[lane].Append(t, coords)
		}
		return keepGoing
	}
}

// boundForChunk implements §4.5's post-integration accumulation for a
// single (chunk, particle) pair given that particle's substep record.
func boundForChunk(rec *propagate.SubstepRecord, params Params, k int) Bound {
	b := emptyBound()
	cBegin, cEnd := params.chunkBounds(k)

	lo, hi := substepRange(rec, cBegin, cEnd)
	for s := lo; s < hi; s++ {
		sStart := rec.StartTime(s)
		sEnd := rec.EndTimes[s]

		evLo := maxDFloat(cBegin, sStart)
		evHi := minDFloat(cEnd, sEnd)

		hLo := evLo.Sub(sStart).Float64()
		hHi := evHi.Sub(sStart).Float64()
		hInt := geom.Ival{Lower: hLo, Upper: hHi}

		for c := 0; c < 4; c++ {
			iv := geom.EvalPoly(rec.Coeffs[s][c], hInt)
			lbF := narrowDown(iv.Lower)
			ubF := narrowUp(iv.Upper)
			if lbF < b.LB[c] {
				b.LB[c] = lbF
			}
			if ubF > b.UB[c] {
				b.UB[c] = ubF
			}
		}
	}
	return b
}

// substepRange locates the half-open substep index range overlapping
// [cBegin, cEnd]: first substep whose end-time is strictly greater than
// cBegin, up to and including the first substep whose end-time is >= cEnd.
func substepRange(rec *propagate.SubstepRecord, cBegin, cEnd propagate.DFloat) (lo, hi int) {
	n := len(rec.EndTimes)
	lo = upperBound(rec.EndTimes, cBegin)
	hi = lowerBound(rec.EndTimes, cEnd)
	if hi < n {
		hi++
	}
	return lo, hi
}

// upperBound returns the index of the first element strictly greater than x.
func upperBound(times []propagate.DFloat, x propagate.DFloat) int {
	lo, hi := 0, len(times)
	for lo < hi {
		mid := (lo + hi) / 2
		if times[mid].Compare(x) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// lowerBound returns the index of the first element greater than or equal to x.
func lowerBound(times []propagate.DFloat, x propagate.DFloat) int {
	lo, hi := 0, len(times)
	for lo < hi {
		mid := (lo + hi) / 2
		if times[mid].Compare(x) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func maxDFloat(a, b propagate.DFloat) propagate.DFloat {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

func minDFloat(a, b propagate.DFloat) propagate.DFloat {
	if a.Compare(b) <= 0 {
		return a
	}
	return b
}

// narrowDown casts a double to f32, rounding toward -Inf so the result
// never overstates the true lower bound.
func narrowDown(x float64) float32 {
	f := float32(x)
	if float64(f) > x {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	return f
}

// narrowUp casts a double to f32, rounding toward +Inf so the result never
// understates the true upper bound.
func narrowUp(x float64) float32 {
	f := float32(x)
	if float64(f) < x {
		f = math.Nextafter32(f, float32(math.Inf(1)))
	}
	return f
}
