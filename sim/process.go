package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/noise"
	"gonum.org/v1/gonum/mat"
)

// Process simulates the true state of a linear dynamical system and its noisy measurements.
// The true state is owned by the Process and never shared with an estimator.
type Process struct {
	// m is the system model
	m filter.DiscreteControlSystem
	// x is the true internal state
	x *mat.VecDense
	// wn is output noise a.k.a. measurement noise
	wn filter.Noise
	// wd is state disturbance a.k.a. process noise
	wd filter.Noise
}

// NewProcess creates new Process which starts in state x0 and returns it.
// It accepts the following parameters:
//   - m:  discrete-time system model
//   - x0: initial true state
//   - wn: measurement noise; nil means noiseless measurements
//   - wd: state disturbance; nil means the state evolves deterministically
//
// It returns error if the model can't be observed or if x0, wn or wd dimensions do not match the model.
func NewProcess(m filter.DiscreteControlSystem, x0 mat.Vector, wn, wd filter.Noise) (*Process, error) {
	nx, _, ny, nz := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	if x0 == nil || x0.Len() != nx {
		return nil, fmt.Errorf("%w: initial state: %v", filter.ErrDimensionMismatch, x0)
	}

	if wn != nil {
		if _, ok := wn.(*noise.None); !ok && wn.Cov().SymmetricDim() != ny {
			return nil, fmt.Errorf("%w: output noise: %d != %d", filter.ErrDimensionMismatch, wn.Cov().SymmetricDim(), ny)
		}
	} else {
		wn, _ = noise.NewNone()
	}

	if wd != nil {
		size := nx
		if nz > 0 {
			size = nz
		}
		if _, ok := wd.(*noise.None); !ok && wd.Cov().SymmetricDim() != size {
			return nil, fmt.Errorf("%w: state noise: %d != %d", filter.ErrDimensionMismatch, wd.Cov().SymmetricDim(), size)
		}
	} else {
		wd, _ = noise.NewNone()
	}

	return &Process{
		m:  m,
		x:  mat.VecDenseCopyOf(x0),
		wn: wn,
		wd: wd,
	}, nil
}

// Advance advances the true state by one step given control input u:
// x = A*x + B*u plus the state disturbance sample, if any.
// It returns error if u does not match the model control dimension.
func (p *Process) Advance(u mat.Vector) error {
	x, err := p.m.Propagate(p.x, u, p.wd.Sample())
	if err != nil {
		return fmt.Errorf("process state propagation failed: %w", err)
	}

	p.x.CopyVec(x)

	return nil
}

// Measure returns a measurement of the current true state: y = C*x plus measurement noise sample.
func (p *Process) Measure() (mat.Vector, error) {
	y, err := p.m.Observe(p.x, nil, p.wn.Sample())
	if err != nil {
		return nil, fmt.Errorf("failed to observe process output: %w", err)
	}

	return y, nil
}

// Output returns the noiseless output of the current true state: y = C*x.
func (p *Process) Output() (mat.Vector, error) {
	y, err := p.m.Observe(p.x, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to observe process output: %w", err)
	}

	return y, nil
}

// State returns a copy of the current true state.
func (p *Process) State() mat.Vector {
	return mat.VecDenseCopyOf(p.x)
}

// Model returns process model
func (p *Process) Model() filter.DiscreteControlSystem {
	return p.m
}
