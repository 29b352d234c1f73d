package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"gonum.org/v1/gonum/mat"
)

// Discrete is a basic model of a linear, discrete-time, dynamical system
type Discrete struct {
	System
}

// NewDiscrete creates a linear discrete-time model based on the control theory equations.
//
//	x[n+1] = A*x[n] + B*u[n] + E*z[n]
//	y[n] = C*x[n] + D*u[n]
//
// Any of B, C, D and E may be nil. It returns error if the matrices are not conformant.
func NewDiscrete(A, B, C, D, E *mat.Dense) (*Discrete, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	sys := newSystem(A, B, C, D, E)
	if err := sys.validate(); err != nil {
		return nil, err
	}

	return &Discrete{System: sys}, nil
}

// Propagate returns the next internal state x of a linear, discrete-time system
// given an input vector u and a disturbance input wd.
// wd enters through the disturbance matrix E when one is defined, otherwise it is added to the state directly.
func (dt *Discrete) Propagate(x, u, wd mat.Vector) (mat.Vector, error) {
	nx, nu, _, _ := dt.SystemDims()
	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("%w: input vector: %d != %d", filter.ErrDimensionMismatch, u.Len(), nu)
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("%w: state vector: %d != %d", filter.ErrDimensionMismatch, x.Len(), nx)
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(dt.A, x)
	if u != nil && dt.B != nil {
		outU := mat.NewVecDense(nx, nil)
		outU.MulVec(dt.B, u)

		out.AddVec(out, outU)
	}

	if err := dt.disturb(out, wd); err != nil {
		return nil, err
	}

	return out, nil
}
