package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"gonum.org/v1/gonum/mat"
)

// InitCond implements filter.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it.
// It returns error if state and cov dimensions differ.
func NewInitCond(state mat.Vector, cov mat.Symmetric) (*InitCond, error) {
	if state == nil || cov == nil {
		return nil, fmt.Errorf("invalid initial condition: state=%v cov=%v", state, cov)
	}

	if state.Len() != cov.SymmetricDim() {
		return nil, fmt.Errorf("%w: initial state: %d, covariance: %d x %d",
			filter.ErrDimensionMismatch, state.Len(), cov.SymmetricDim(), cov.SymmetricDim())
	}

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: mat.VecDenseCopyOf(state),
		cov:   c,
	}, nil
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	return mat.VecDenseCopyOf(c.state)
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}
