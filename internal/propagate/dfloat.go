package propagate

import "math"

// DFloat is a double-double: a (hi, lo) pair of float64 used to represent
// time coordinates with better than float64 precision over a superstep,
// matching the integrator collaborator's dfloat<double> time representation.
// No example in the corpus ships a double-double library, so this is a
// minimal standard-library implementation (see DESIGN.md).
type DFloat struct {
	Hi float64
	Lo float64
}

// NewDFloat builds a normalised DFloat from a single float64.
func NewDFloat(v float64) DFloat {
	return DFloat{Hi: v, Lo: 0}
}

// twoSum is the standard error-free transformation for float64 addition.
func twoSum(a, b float64) (sum, err float64) {
	sum = a + b
	bb := sum - a
	err = (a - (sum - bb)) + (b - bb)
	return
}

// Add returns a normalised double-double sum.
func (a DFloat) Add(b DFloat) DFloat {
	s, e := twoSum(a.Hi, b.Hi)
	e += a.Lo + b.Lo
	s2, e2 := twoSum(s, e)
	return DFloat{Hi: s2, Lo: e2}
}

// Sub returns a - b.
func (a DFloat) Sub(b DFloat) DFloat {
	return a.Add(DFloat{Hi: -b.Hi, Lo: -b.Lo})
}

// Float64 narrows the double-double to a single float64 (hi is already the
// best single-precision-of-float64 approximation).
func (a DFloat) Float64() float64 {
	return a.Hi + a.Lo
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// comparing the narrowed value. Times in this system are always finite by
// construction (non-finite substep times abort the batch before comparison
// is ever needed), so no special-casing of NaN/Inf is required here.
func (a DFloat) Compare(b DFloat) int {
	av, bv := a.Float64(), b.Float64()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// IsFinite reports whether the narrowed value is finite.
func (a DFloat) IsFinite() bool {
	v := a.Float64()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
