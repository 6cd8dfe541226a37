package geom

import "testing"

func TestEvalPolyLinear(t *testing.T) {
	// S7 — x(t) = t over [0, 1]: coeffs [0, 1], order 1.
	got := EvalPoly([]float64{0, 1}, Ival{Lower: 0, Upper: 1})
	if got.Lower > 0 || got.Upper < 1 {
		t.Errorf("EvalPoly: got [%v, %v], want an interval containing [0, 1]", got.Lower, got.Upper)
	}
}

func TestEvalPolyConstant(t *testing.T) {
	got := EvalPoly([]float64{5}, Ival{Lower: -10, Upper: 10})
	if got.Lower != 5 || got.Upper != 5 {
		t.Errorf("EvalPoly constant: got [%v, %v], want [5, 5]", got.Lower, got.Upper)
	}
}

func TestEvalPolyQuadratic(t *testing.T) {
	// p(t) = 1 + 2t + 3t^2 over [0, 1]. At t=0, p=1; at t=1, p=6.
	// The interval evaluation must at least contain these two endpoints'
	// exact values (it may be wider due to conservative bounding).
	got := EvalPoly([]float64{1, 2, 3}, Ival{Lower: 0, Upper: 1})
	if got.Lower > 1 || got.Upper < 6 {
		t.Errorf("EvalPoly quadratic: got [%v, %v], want containment of [1, 6]", got.Lower, got.Upper)
	}
}

func TestEvalPolyEmpty(t *testing.T) {
	got := EvalPoly(nil, Ival{Lower: -1, Upper: 1})
	if got.Lower != 0 || got.Upper != 0 {
		t.Errorf("EvalPoly empty: got [%v, %v], want [0, 0]", got.Lower, got.Upper)
	}
}
