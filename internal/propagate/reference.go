package propagate

// LinearIntegrator is a reference BatchIntegrator: every lane moves with
// constant velocity, so its trajectory is exactly representable by an
// order-1 Taylor polynomial with every higher-order coefficient zero. It
// exists to exercise the AABB kernel and BVH pipeline end to end without a
// real numerical integrator collaborator, and to let tests assert exact
// containment bounds (see scenario S7). Production wiring supplies its own
// BatchIntegrator; this one is never used outside tests and the CLI demo
// run.
type LinearIntegrator struct {
	width int
	order int

	state []float64 // width 7*B: x,y,z,vx,vy,vz,r per lane

	timeHi []float64
	timeLo []float64

	lastStep []float64
	coeffs   []float64 // width 7*(O+1)*B

	stepped bool
}

// NewLinearIntegrator builds a reference integrator for the given batch
// width and Taylor order. Order must be at least 1 so velocity terms fit.
func NewLinearIntegrator(width, order int) *LinearIntegrator {
	if order < 1 {
		order = 1
	}
	return &LinearIntegrator{
		width:    width,
		order:    order,
		state:    make([]float64, 7*width),
		timeHi:   make([]float64, width),
		timeLo:   make([]float64, width),
		lastStep: make([]float64, width),
		coeffs:   make([]float64, 7*(order+1)*width),
	}
}

func (li *LinearIntegrator) SetDTime(hi, lo float64) {
	for j := 0; j < li.width; j++ {
		li.timeHi[j] = hi
		li.timeLo[j] = lo
	}
}

func (li *LinearIntegrator) ResetCooldowns() {}

func (li *LinearIntegrator) State() []float64 { return li.state }

func (li *LinearIntegrator) BatchWidth() int { return li.width }

func (li *LinearIntegrator) Order() int { return li.order }

func (li *LinearIntegrator) LastStepSizes() []float64 { return li.lastStep }

func (li *LinearIntegrator) Times() (hi, lo []float64) { return li.timeHi, li.timeLo }

func (li *LinearIntegrator) TaylorCoeffs() []float64 { return li.coeffs }

// coeffOffset matches the layout documented on BatchIntegrator:
// v*(O+1)*B + o*B + j.
func (li *LinearIntegrator) coeffOffset(v, o, j int) int {
	return v*(li.order+1)*li.width + o*li.width + j
}

// PropagateFor takes a single internal step spanning the whole Δt,
// populates the shared coefficient buffer with the exact constant-velocity
// polynomial for x, y, z, vx, vy, vz, r (velocity components get coeffs
// [v, 0, ...], positions get [p0, v, 0, ...], r gets [r, 0, ...]), advances
// state and time by Δt, and invokes cb once.
func (li *LinearIntegrator) PropagateFor(dt float64, recordTC bool, cb StepCallback) ([]Outcome, error) {
	B := li.width
	O := li.order

	for j := 0; j < B; j++ {
		li.lastStep[j] = dt
	}

	if recordTC {
		for v := 0; v < 7; v++ {
			for j := 0; j < B; j++ {
				var p0, vel float64
				switch v {
				case 0, 1, 2, 6: // x, y, z, r: position-like
					p0 = li.state[v*B+j]
					if v == 6 {
						// r has no paired velocity slot in the 7-wide state;
						// treat it as already-integrated (constant) for this
						// reference implementation.
						vel = 0
					} else {
						vel = li.state[(v+3)*B+j]
					}
				case 3, 4, 5: // vx, vy, vz: constant, zero derivative
					p0 = li.state[v*B+j]
					vel = 0
				}
				li.coeffs[li.coeffOffset(v, 0, j)] = p0
				if O >= 1 {
					li.coeffs[li.coeffOffset(v, 1, j)] = vel
				}
				for o := 2; o <= O; o++ {
					li.coeffs[li.coeffOffset(v, o, j)] = 0
				}
			}
		}
	}

	// Advance position state by the exact linear motion before invoking the
	// callback, so a lane queried mid-callback sees the post-step state.
	for j := 0; j < B; j++ {
		for v := 0; v < 3; v++ {
			li.state[v*B+j] += li.state[(v+3)*B+j] * dt
		}
		li.timeHi[j] += dt
	}

	li.stepped = true
	if cb != nil {
		cb(li)
	}

	outcomes := make([]Outcome, B)
	for j := range outcomes {
		outcomes[j] = OutcomeTimeLimit
	}
	return outcomes, nil
}
