package propagate

// Outcome is the per-lane result reported by a batch integrator at the end
// of a propagate_for call.
type Outcome int

const (
	// OutcomeTimeLimit means the lane successfully reached the requested
	// Δt. This is the only outcome the rest of the pipeline tolerates.
	OutcomeTimeLimit Outcome = iota
	// OutcomeEventLimit means the lane stopped early because it hit its
	// cooldown-limited event count.
	OutcomeEventLimit
	// OutcomeErr means the lane's step failed (e.g. non-finite state).
	OutcomeErr
)

// StepCallback is invoked once per integrator step across the whole batch.
// Implementations inspect integ's per-lane last-step sizes and current
// times to decide, per lane, whether a new substep record entry should be
// appended. Returning false requests the integrator stop propagating
// further steps (used when a non-finite time is observed).
type StepCallback func(integ BatchIntegrator) (cont bool)

// BatchIntegrator is the interface consumed from the integrator
// collaborator: a reusable batch Taylor integrator. The core never
// constructs or owns the numerical method itself; it only drives this
// interface. Coefficient layout: for Taylor order O and batch width B,
// coefficients for coordinate v (ordered x, y, z, vx, vy, vz, r), power o,
// and lane j live at offset v*(O+1)*B + o*B + j of the shared buffer
// returned by TaylorCoeffs, reread at every step by the callback.
type BatchIntegrator interface {
	// SetDTime sets the integrator's current time, expressed as a
	// double-double (hi, lo), applied uniformly across all lanes.
	SetDTime(hi, lo float64)

	// ResetCooldowns clears any per-lane event cooldown state.
	ResetCooldowns()

	// State returns the mutable state buffer, width 7*BatchWidth()
	// (x, y, z, vx, vy, vz, r per lane, lane-major within each coordinate).
	State() []float64

	// BatchWidth returns B, the number of SIMD lanes.
	BatchWidth() int

	// Order returns O, the Taylor expansion order.
	Order() int

	// LastStepSizes returns, per lane, the size of the most recently taken
	// step; 0 for a lane that did not step on the last call.
	LastStepSizes() []float64

	// Times returns the current per-lane time as double-double (hi, lo),
	// each of length BatchWidth().
	Times() (hi, lo []float64)

	// TaylorCoeffs returns the shared per-step coefficient buffer described
	// in the layout comment above, valid until the next step.
	TaylorCoeffs() []float64

	// PropagateFor integrates every lane for Δt, invoking cb once per
	// internal step, recording Taylor coefficients when recordTC is true.
	// Returns the per-lane terminal outcome.
	PropagateFor(dt float64, recordTC bool, cb StepCallback) ([]Outcome, error)
}

// Coord indexes the four tracked coordinates, in the fixed order the
// data model uses throughout: x, y, z, r.
type Coord int

const (
	CoordX Coord = iota
	CoordY
	CoordZ
	CoordR
	numCoords = 4
)

// SubstepRecord is one particle's substep record as produced by the
// integrator callback and consumed by the AABB kernel: a strictly
// increasing, all-finite sequence of substep end-times together with, for
// each substep, (O+1) Taylor coefficients per tracked coordinate.
type SubstepRecord struct {
	// EndTimes[s] is the end time of substep s, double-double relative to
	// the superstep start.
	EndTimes []DFloat
	// Coeffs[s][c] holds O+1 coefficients (ascending power) for coordinate
	// c of substep s.
	Coeffs [][numCoords][]float64
}

// Reset clears the record for reuse across supersteps without
// reallocating its backing arrays.
func (r *SubstepRecord) Reset() {
	r.EndTimes = r.EndTimes[:0]
	r.Coeffs = r.Coeffs[:0]
}

// StartTime returns the start time of substep s (0 for the first substep,
// else the previous substep's end time).
func (r *SubstepRecord) StartTime(s int) DFloat {
	if s == 0 {
		return DFloat{}
	}
	return r.EndTimes[s-1]
}

// Append adds a new substep entry with the given end time and per-coordinate
// coefficient slices (each length O+1; the slices are retained, not copied).
func (r *SubstepRecord) Append(end DFloat, coeffs [numCoords][]float64) {
	r.EndTimes = append(r.EndTimes, end)
	r.Coeffs = append(r.Coeffs, coeffs)
}
