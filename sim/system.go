package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"gonum.org/v1/gonum/mat"
)

// System defines a linear model of a plant using
// traditional matrices of modern control theory.
//
// It contains the System (A), input (B), Observation/Output (C)
// Feedthrough (D) and disturbance (E) matrices.
type System struct {
	// System/State matrix A
	A *mat.Dense
	// Control/Input Matrix B
	B *mat.Dense
	// Observation/Output Matrix C
	C *mat.Dense
	// Feedthrough matrix D
	D *mat.Dense
	// Perturbation matrix (related to process noise wd) E
	E *mat.Dense
}

func newSystem(A, B, C, D, E *mat.Dense) System {
	sys := System{A: mat.DenseCopyOf(A)}
	if B != nil {
		sys.B = mat.DenseCopyOf(B)
	}
	if C != nil {
		sys.C = mat.DenseCopyOf(C)
	}
	if D != nil {
		sys.D = mat.DenseCopyOf(D)
	}
	if E != nil {
		sys.E = mat.DenseCopyOf(E)
	}
	return sys
}

// validate checks the system matrices are conformant with each other.
func (s System) validate() error {
	if s.A == nil {
		return fmt.Errorf("system matrix must be defined for a model")
	}

	nx, cols := s.A.Dims()
	if nx != cols {
		return fmt.Errorf("%w: system matrix not square: [%d x %d]", filter.ErrDimensionMismatch, nx, cols)
	}

	if s.B != nil {
		if rows, cols := s.B.Dims(); rows != nx {
			return fmt.Errorf("%w: control matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
		}
	}

	if s.C != nil {
		if rows, cols := s.C.Dims(); cols != nx {
			return fmt.Errorf("%w: output matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
		}
	}

	if s.D != nil {
		if s.B == nil || s.C == nil {
			return fmt.Errorf("feedthrough matrix requires both control and output matrices")
		}
		_, nu := s.B.Dims()
		ny, _ := s.C.Dims()
		if rows, cols := s.D.Dims(); rows != ny || cols != nu {
			return fmt.Errorf("%w: feedthrough matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
		}
	}

	if s.E != nil {
		if rows, cols := s.E.Dims(); rows != nx {
			return fmt.Errorf("%w: disturbance matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
		}
	}

	return nil
}

// SystemDims returns internal state length (nx), input vector length (nu),
// external/observable/output state length (ny) and disturbance vector length (nz).
func (s System) SystemDims() (nx, nu, ny, nz int) {
	nx, _ = s.A.Dims()
	if s.B != nil {
		_, nu = s.B.Dims()
	}
	if s.C != nil {
		ny, _ = s.C.Dims()
	}
	if s.E != nil {
		_, nz = s.E.Dims()
	}
	return nx, nu, ny, nz
}

// SystemMatrix returns state propagation matrix `A`.
func (s System) SystemMatrix() (A mat.Matrix) { return s.A }

// ControlMatrix returns state propagation control matrix `B`
func (s System) ControlMatrix() (B mat.Matrix) {
	if s.B == nil {
		return nil
	}
	return s.B
}

// OutputMatrix returns observation matrix `C`
func (s System) OutputMatrix() (C mat.Matrix) {
	if s.C == nil {
		return nil
	}
	return s.C
}

// FeedForwardMatrix returns observation control matrix `D`
func (s System) FeedForwardMatrix() (D mat.Matrix) {
	if s.D == nil {
		return nil
	}
	return s.D
}

// Observe returns external/observable state given internal state x and input u.
// wn is added to the output as a noise vector unless it is nil or empty.
func (s System) Observe(x, u, wn mat.Vector) (y mat.Vector, err error) {
	nx, nu, ny, _ := s.SystemDims()
	if s.C == nil {
		return nil, fmt.Errorf("output matrix must be defined to observe the system")
	}

	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("%w: input vector: %d != %d", filter.ErrDimensionMismatch, u.Len(), nu)
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("%w: state vector: %d != %d", filter.ErrDimensionMismatch, x.Len(), nx)
	}

	if wn != nil && wn.Len() != 0 && wn.Len() != ny {
		return nil, fmt.Errorf("%w: output noise: %d != %d", filter.ErrDimensionMismatch, wn.Len(), ny)
	}

	out := mat.NewVecDense(ny, nil)
	out.MulVec(s.C, x)

	if u != nil && s.D != nil {
		outU := mat.NewVecDense(ny, nil)
		outU.MulVec(s.D, u)

		out.AddVec(out, outU)
	}

	if wn != nil && wn.Len() == ny {
		out.AddVec(out, wn)
	}

	return out, nil
}

// disturb adds disturbance wd to out: through E when it is defined, directly otherwise.
// Empty wd is ignored. It returns error if wd length does not match E or the state dimension.
func (s System) disturb(out *mat.VecDense, wd mat.Vector) error {
	if wd == nil || wd.Len() == 0 {
		return nil
	}

	nx, _, _, nz := s.SystemDims()
	switch {
	case s.E != nil && wd.Len() == nz:
		outZ := mat.NewVecDense(nx, nil)
		outZ.MulVec(s.E, wd)
		out.AddVec(out, outZ)
	case s.E == nil && wd.Len() == nx:
		out.AddVec(out, wd)
	default:
		return fmt.Errorf("%w: disturbance vector: %d", filter.ErrDimensionMismatch, wd.Len())
	}

	return nil
}
