package bvh

import "math"

var (
	posInfF32 = float32(math.Inf(1))
	negInfF32 = float32(math.Inf(-1))
)
