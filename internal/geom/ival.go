// Package geom implements the pure numerical primitives the rest of the
// spatial-index build is layered on: interval arithmetic, Horner evaluation
// of Taylor polynomials over an interval, coordinate discretisation, and
// 4D Morton encoding.
package geom

// Ival is a closed real interval [Lower, Upper]. Addition and multiplication
// are conservative: the result interval is guaranteed to contain the true
// value for any pair of reals drawn from the operand intervals.
//
// Rounding is not directed here; callers that need outward-rounded float32
// bounds (see the aabb package) must widen the result by one ULP in each
// direction themselves after narrowing from float64.
type Ival struct {
	Lower float64
	Upper float64
}

// Point returns the degenerate interval [v, v].
func Point(v float64) Ival {
	return Ival{Lower: v, Upper: v}
}

// Add returns the componentwise sum of two intervals.
func (a Ival) Add(b Ival) Ival {
	return Ival{Lower: a.Lower + b.Lower, Upper: a.Upper + b.Upper}
}

// Mul returns the product interval: all four endpoint products are computed
// and the result spans their min/max. See
// https://en.wikipedia.org/wiki/Interval_arithmetic.
func (a Ival) Mul(b Ival) Ival {
	p1 := a.Lower * b.Lower
	p2 := a.Lower * b.Upper
	p3 := a.Upper * b.Lower
	p4 := a.Upper * b.Upper

	lo := min4(p1, p2, p3, p4)
	hi := max4(p1, p2, p3, p4)

	return Ival{Lower: lo, Upper: hi}
}

func min4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

func max4(a, b, c, d float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	if d > m {
		m = d
	}
	return m
}
