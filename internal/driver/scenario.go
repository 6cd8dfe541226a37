package driver

import (
	"math"
	"math/rand"

	"github.com/ari-sharma/conjunction/internal/aabb"
)

// GenerateShell produces n particles with positions scattered in a thin
// spherical shell and small random velocities, seeded for reproducibility.
// It stands in for the driver's real initial-condition source (out of
// scope here; see spec.md §1), giving the CLI demo something concrete to
// build AABBs and trees over.
func GenerateShell(n int, radius float64, seed int64) []aabb.State {
	r := rand.New(rand.NewSource(seed))
	states := make([]aabb.State, n)
	for i := range states {
		theta := r.Float64() * 2 * math.Pi
		phi := r.Float64() * math.Pi
		x := radius * math.Sin(phi) * math.Cos(theta)
		y := radius * math.Sin(phi) * math.Sin(theta)
		z := radius * math.Cos(phi)

		states[i] = aabb.State{
			X: x, Y: y, Z: z,
			VX: (r.Float64() - 0.5) * 0.01,
			VY: (r.Float64() - 0.5) * 0.01,
			VZ: (r.Float64() - 0.5) * 0.01,
			R:  1.0 + r.Float64()*0.1,
		}
	}
	return states
}
