// Package rts implements Rauch-Tung-Striebel fixed-interval smoother
// for estimates produced by Kalman filters.
package rts

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/estimate"
	"github.com/milosgajdos/go-infokf/kalman"
	"github.com/milosgajdos/go-infokf/matrix"
	"gonum.org/v1/gonum/mat"
)

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// f is the filter which produced the smoothed estimates
	f kalman.Kalman
}

// New creates new RTS and returns it.
// The smoother uses filter f to predict estimates between the steps.
// It returns error if f is nil or its model has invalid dimensions.
func New(f kalman.Kalman) (*RTS, error) {
	if f == nil {
		return nil, fmt.Errorf("invalid filter: %v", f)
	}

	nx, _, ny, _ := f.Model().SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	return &RTS{
		f: f,
	}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm.
// It uses filtered estimates est and control inputs u applied in each step
// to compute smoothed estimates and returns them. u can be nil if no control was applied.
// The last smoothed estimate is the same as the last filtered one.
// It returns error if either est is empty, u length does not match est or smoothing could not be computed.
func (s *RTS) Smooth(est []filter.Estimate, u []mat.Vector) ([]filter.Estimate, error) {
	if len(est) == 0 {
		return nil, fmt.Errorf("invalid estimates size: %d", len(est))
	}

	if u != nil && len(u) != len(est) {
		return nil, fmt.Errorf("%w: input vectors: %d != %d", filter.ErrDimensionMismatch, len(u), len(est))
	}

	n := len(est)
	sx := make([]filter.Estimate, n)

	last, err := estimate.NewBaseWithCov(est[n-1].Val(), est[n-1].Cov())
	if err != nil {
		return nil, err
	}
	sx[n-1] = last

	a := s.f.Model().SystemMatrix()

	var uNext mat.Vector
	for i := n - 2; i >= 0; i-- {
		if u != nil {
			uNext = u[i+1]
		}

		// predict the estimate to the next step
		pred, err := s.f.Predict(est[i], uNext)
		if err != nil {
			return nil, fmt.Errorf("step %d: estimate prediction failed: %w", i, err)
		}

		// P_(k+1)^-1 inverse
		pinv, err := matrix.Inverse(pred.Cov())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		// smoothing matrix: Pk*Ak'*P_(k+1)^-1
		c := &mat.Dense{}
		c.Mul(est[i].Cov(), a.T())
		c.Mul(c, pinv)

		// smooth the state: xk + Ck*(xs_(k+1) - x_(k+1))
		nx := pred.Val().Len()
		diff := mat.NewVecDense(nx, nil)
		diff.SubVec(sx[i+1].Val(), pred.Val())
		x := mat.NewVecDense(nx, nil)
		x.MulVec(c, diff)
		x.AddVec(est[i].Val(), x)

		// smooth covariance: Pk + Ck*(Ps_(k+1) - P_(k+1))*Ck'
		cov := &mat.Dense{}
		cov.Sub(sx[i+1].Cov(), pred.Cov())
		cov.Mul(c, cov)
		cov.Mul(cov, c.T())
		cov.Add(est[i].Cov(), cov)

		pSmooth, err := matrix.ToSymDense(cov)
		if err != nil {
			return nil, err
		}

		e, err := estimate.NewBaseWithCov(x, pSmooth)
		if err != nil {
			return nil, err
		}
		sx[i] = e
	}

	return sx, nil
}
