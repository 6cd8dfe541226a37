package geom

// EvalPoly conservatively bounds a Taylor polynomial over the interval h,
// given coefficients c ordered by ascending power: c[0] + c[1]*t + ... +
// c[O]*t^O. Evaluation runs Horner's method from the innermost (highest
// power) term outward, matching the coefficient layout produced by a
// batch Taylor integrator.
//
// coeffs must have length O+1 for some order O >= 0; passing an empty slice
// returns the zero interval.
func EvalPoly(coeffs []float64, h Ival) Ival {
	n := len(coeffs)
	if n == 0 {
		return Point(0)
	}

	// coeffs[o] is the coefficient of h^o (coeffs[0] is the substep's
	// starting value, matching the integrator's coefficient layout in
	// which offset o*B selects the o-th order term). Horner's method starts
	// from the highest power and works down: acc = coeffs[n-1]; then
	// repeatedly acc = coeffs[o] + acc*h for descending o, ending at o=0.
	acc := Point(coeffs[n-1])
	for o := n - 2; o >= 0; o-- {
		acc = Point(coeffs[o]).Add(acc.Mul(h))
	}
	return acc
}
