package sim

import (
	"context"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Estimator estimates hidden state of a system from its measurements, one step at a time
type Estimator interface {
	// Run corrects the estimate using measurement z given control input u
	Run(z, u mat.Vector) (filter.Estimate, error)
}

// Trace records a simulation run: one row per step
type Trace struct {
	// Truth stores true process states
	Truth *mat.Dense
	// Outputs stores noiseless process outputs
	Outputs *mat.Dense
	// Measurements stores noisy process outputs
	Measurements *mat.Dense
	// Estimates stores filter state estimates
	Estimates *mat.Dense
	// CovTrace stores the trace of the filter covariance
	CovTrace []float64
	// Filtered stores filter estimates
	Filtered []filter.Estimate
	// Controls stores the control inputs applied in each step
	Controls []mat.Vector
}

// Run runs simulation for the given number of steps: in every step it advances process p
// with control input u, measures it and feeds the measurement to estimator f.
// It returns error if steps is not positive, if any step fails or if ctx is cancelled.
func Run(ctx context.Context, p *Process, f Estimator, u mat.Vector, steps int) (*Trace, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	nx, _, ny, _ := p.Model().SystemDims()

	tr := &Trace{
		Truth:        mat.NewDense(steps, nx, nil),
		Outputs:      mat.NewDense(steps, ny, nil),
		Measurements: mat.NewDense(steps, ny, nil),
		Estimates:    mat.NewDense(steps, nx, nil),
		CovTrace:     make([]float64, steps),
		Filtered:     make([]filter.Estimate, steps),
		Controls:     make([]mat.Vector, steps),
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := p.Advance(u); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		z, err := p.Measure()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		y, err := p.Output()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		est, err := f.Run(z, u)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		setRow(tr.Truth, i, p.State())
		setRow(tr.Outputs, i, y)
		setRow(tr.Measurements, i, z)
		setRow(tr.Estimates, i, est.Val())
		tr.CovTrace[i] = mat.Trace(est.Cov())
		tr.Filtered[i] = est
		tr.Controls[i] = u
	}

	return tr, nil
}

// Steps returns the number of recorded steps
func (t *Trace) Steps() int {
	return len(t.CovTrace)
}

// EstimateRMSE returns root mean square error of the estimates against the true states, per state component.
func (t *Trace) EstimateRMSE() []float64 {
	return rmse(t.Estimates, t.Truth)
}

// MeasurementRMSE returns root mean square error of the measurements against the noiseless outputs, per output component.
func (t *Trace) MeasurementRMSE() []float64 {
	return rmse(t.Measurements, t.Outputs)
}

// SmoothedRMSE returns root mean square error of smoothed estimates against the true states, per state component.
// It returns error if the number of smoothed estimates does not match the trace.
func (t *Trace) SmoothedRMSE(smoothed []filter.Estimate) ([]float64, error) {
	if len(smoothed) != t.Steps() {
		return nil, fmt.Errorf("%w: smoothed estimates: %d != %d", filter.ErrDimensionMismatch, len(smoothed), t.Steps())
	}

	_, nx := t.Truth.Dims()
	est := mat.NewDense(t.Steps(), nx, nil)
	for i, e := range smoothed {
		setRow(est, i, e.Val())
	}

	return rmse(est, t.Truth), nil
}

func rmse(a, b *mat.Dense) []float64 {
	rows, _ := a.Dims()

	diff := &mat.Dense{}
	diff.Sub(a, b)
	diff.MulElem(diff, diff)

	sums := matrix.ColSums(diff)
	floats.Scale(1/float64(rows), sums)
	for i := range sums {
		sums[i] = math.Sqrt(sums[i])
	}

	return sums
}

func setRow(m *mat.Dense, i int, v mat.Vector) {
	for j := 0; j < v.Len(); j++ {
		m.Set(i, j, v.AtVec(j))
	}
}
