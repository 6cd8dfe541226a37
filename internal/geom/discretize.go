package geom

import "math"

// binWidth is the number of discrete slots a coordinate axis is quantised
// into: 2^16, matching the width of one Morton-interleaved lane.
const binWidth = 1 << 16

// Bin quantises x, assumed to lie in [min, max), into one of 2^16 discrete
// slots numbered 0..2^16-1. Callers must ensure min < max, and that all three
// of x, min, max are finite and max-min is finite; NaN or out-of-range
// results are handled here rather than asserted away, since upstream
// floating-point error can legitimately push x a tiny amount outside
// [min, max).
func Bin(x, min, max float64) uint64 {
	isize := max - min

	r := (x - min) / isize

	// A negative or NaN ratio (including one produced by a NaN x) is
	// coerced to zero rather than propagated.
	if !(r >= 0) {
		r = 0
	}

	r *= binWidth

	v := uint64(r)
	if v > binWidth-1 {
		v = binWidth - 1
	}
	return v
}

// NudgeUpperBound returns an upper bound strictly greater than lb, nudging ub
// upward with successive float32 steps if needed. It is used after the
// global AABB atomics are loaded back into plain floats, since the
// discretiser requires max > min and a finite max-min.
func NudgeUpperBound(lb, ub float32) float32 {
	for ub <= lb {
		ub = math.Nextafter32(ub, float32(math.Inf(1)))
	}
	return ub
}
