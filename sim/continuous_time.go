package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// integrationSteps is the number of intervals used to integrate exp(A*t)
// when the system matrix is singular.
const integrationSteps = 100

// Continuous is a basic model of a linear, continuous-time, dynamical system
type Continuous struct {
	System
}

// NewContinuous creates a linear continuous-time model based on the control theory equations.
//
//	dx/dt = A*x + B*u + E*z
//	y = C*x + D*u
func NewContinuous(A, B, C, D, E *mat.Dense) (*Continuous, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	sys := newSystem(A, B, C, D, E)
	if err := sys.validate(); err != nil {
		return nil, err
	}

	return &Continuous{System: sys}, nil
}

// ToDiscrete creates a discrete-time model from a continuous time model
// using Ts as the sampling time: Ad = exp(A*Ts), Bd = integral(exp(A*t), 0, Ts)*B.
// It returns error if Ts is not positive.
func (ct *Continuous) ToDiscrete(Ts float64) (*Discrete, error) {
	if Ts <= 0 {
		return nil, fmt.Errorf("invalid sampling time: %v", Ts)
	}

	nx, _, _, _ := ct.SystemDims()
	dsys := newSystem(ct.A, ct.B, ct.C, ct.D, ct.E)

	// See Discrete-Time Control Systems by Katsuhiko Ogata, Eq. (5-73)
	aTs := mat.NewDense(nx, nx, nil)
	aTs.Scale(Ts, ct.A)
	dsys.A.Exp(aTs)

	if ct.B == nil {
		return &Discrete{dsys}, nil
	}

	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}

	// Bd = (exp(A*Ts) - I)*inv(A)*B, Eq. (5-74 bis), valid when A is not singular
	aux := mat.NewDense(nx, nx, nil)
	aux.Sub(dsys.A, eye)

	ainv := mat.NewDense(nx, nx, nil)
	if err := ainv.Inverse(ct.A); err == nil {
		aux.Mul(aux, ainv)
		dsys.B.Mul(aux, ct.B)
		return &Discrete{dsys}, nil
	}

	// A is singular: integrate exp(A*t) from 0 to Ts with trapezoidal rule, Eq. (5-74)
	sum := mat.NewDense(nx, nx, nil)
	at := mat.NewDense(nx, nx, nil)
	dt := Ts / float64(integrationSteps)
	for i := 0; i <= integrationSteps; i++ {
		at.Scale(dt*float64(i), ct.A)
		aux.Exp(at)
		w := dt
		if i == 0 || i == integrationSteps {
			w = dt / 2
		}
		aux.Scale(w, aux)
		sum.Add(sum, aux)
	}
	dsys.B.Mul(sum, ct.B)

	return &Discrete{dsys}, nil
}

// Propagate returns the next internal state x of a linear, continuous-time system
// given an input vector u and a disturbance input wd, integrated over timestep dt with Euler's method.
// wd enters through the disturbance matrix E when one is defined, otherwise it is added to dx/dt directly.
func (ct *Continuous) Propagate(x, u, wd mat.Vector, dt float64) (mat.Vector, error) {
	nx, nu, _, _ := ct.SystemDims()
	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("%w: input vector: %d != %d", filter.ErrDimensionMismatch, u.Len(), nu)
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("%w: state vector: %d != %d", filter.ErrDimensionMismatch, x.Len(), nx)
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(ct.A, x)
	if u != nil && ct.B != nil {
		outU := mat.NewVecDense(nx, nil)
		outU.MulVec(ct.B, u)

		out.AddVec(out, outU)
	}

	if err := ct.disturb(out, wd); err != nil {
		return nil, err
	}

	// dx/dt = A*x + B*u + E*wd
	out.ScaleVec(dt, out)
	out.AddVec(x, out)

	return out, nil
}
