// Package ikf implements Kalman filter whose measurement update is computed
// in information (inverse covariance) form:
//
//	P = inv(inv(Pp) + H'*inv(R)*H)
//	x = xp + P*H'*inv(R)*(z - H*xp)
//
// IKF is not safe for concurrent use: every step depends on the previous one.
// Independent IKF instances share no state.
package ikf

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/estimate"
	"github.com/milosgajdos/go-infokf/matrix"
	"gonum.org/v1/gonum/mat"
)

// covTol is the tolerance used when checking covariance matrices are positive semidefinite
const covTol = 1e-12

// IKF is information form Kalman Filter
type IKF struct {
	// m is IKF system model
	m filter.DiscreteControlSystem
	// a is state propagation matrix
	a *mat.Dense
	// b is state propagation control matrix
	b *mat.Dense
	// h is observation matrix
	h *mat.Dense
	// q is state noise a.k.a. process noise covariance
	q *mat.SymDense
	// r is output noise a.k.a. measurement noise covariance
	r *mat.SymDense
	// hr is H'*inv(R)
	hr *mat.Dense
	// hrh is H'*inv(R)*H
	hrh *mat.Dense
	// est is the current state estimate and its covariance
	est *estimate.Base
	// inn is innovation vector of the last update
	inn *mat.VecDense
	// k is the gain of the last update: P*H'*inv(R)
	k *mat.Dense
	// o are IKF options
	o options
}

// New creates new IKF and returns it.
// It accepts the following parameters:
//   - m:    dynamical system model providing A, B and H matrices
//   - init: initial condition of the filter: initial state estimate and its covariance
//   - q:    state noise a.k.a. process noise covariance
//   - r:    output noise a.k.a. measurement noise covariance
//
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive and its matrices conformant
//   - initial condition, q or r dimensions do not match the model
//   - r is not positive definite
//   - q or initial covariance is not positive semidefinite (see WithRelaxedCovCheck)
func New(m filter.DiscreteControlSystem, init filter.InitCond, q, r mat.Symmetric, opts ...Option) (*IKF, error) {
	o := options{}
	for _, apply := range opts {
		apply(&o)
	}

	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	nx, _, ny, _ := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	rows, cols := m.SystemMatrix().Dims()
	if rows != nx || cols != nx {
		return nil, fmt.Errorf("%w: propagation matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
	}

	var b *mat.Dense
	if o.ctlMatrix {
		if m.ControlMatrix() == nil {
			return nil, fmt.Errorf("control matrix must be defined to be applied in prediction")
		}
		rows, cols := m.ControlMatrix().Dims()
		if rows != nx {
			return nil, fmt.Errorf("%w: ctl propagation matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
		}
		b = mat.DenseCopyOf(m.ControlMatrix())
	}

	if m.OutputMatrix() == nil {
		return nil, fmt.Errorf("observation matrix must be defined")
	}
	rows, cols = m.OutputMatrix().Dims()
	if rows != ny || cols != nx {
		return nil, fmt.Errorf("%w: observation matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
	}

	if init == nil {
		return nil, fmt.Errorf("invalid initial condition: %v", init)
	}

	est, err := estimate.NewBaseWithCov(init.State(), init.Cov())
	if err != nil {
		return nil, fmt.Errorf("invalid initial condition: %w", err)
	}

	if n := est.Val().Len(); n != nx {
		return nil, fmt.Errorf("%w: initial state: %d != %d", filter.ErrDimensionMismatch, n, nx)
	}

	if q == nil || q.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid state noise dimension", filter.ErrDimensionMismatch)
	}

	if r == nil || r.SymmetricDim() != ny {
		return nil, fmt.Errorf("%w: invalid output noise dimension", filter.ErrDimensionMismatch)
	}

	if err := checkCov(q, o.relaxed); err != nil {
		return nil, fmt.Errorf("%w: state noise covariance: %v", filter.ErrInvalidNoise, err)
	}

	if err := checkCov(init.Cov(), o.relaxed); err != nil {
		return nil, fmt.Errorf("%w: initial covariance: %v", filter.ErrInvalidNoise, err)
	}

	rInv, err := matrix.SymInverse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: output noise covariance not positive definite: %v", filter.ErrInvalidNoise, err)
	}

	h := mat.DenseCopyOf(m.OutputMatrix())

	// H'*inv(R) and H'*inv(R)*H do not change between steps
	hr := &mat.Dense{}
	hr.Mul(h.T(), rInv)
	hrh := &mat.Dense{}
	hrh.Mul(hr, h)

	qc := mat.NewSymDense(nx, nil)
	qc.CopySym(q)

	rc := mat.NewSymDense(ny, nil)
	rc.CopySym(r)

	return &IKF{
		m:   m,
		a:   mat.DenseCopyOf(m.SystemMatrix()),
		b:   b,
		h:   h,
		q:   qc,
		r:   rc,
		hr:  hr,
		hrh: hrh,
		est: est,
		inn: mat.NewVecDense(ny, nil),
		k:   mat.NewDense(nx, ny, nil),
		o:   o,
	}, nil
}

// Predict propagates estimate e to the next step given control input u and returns the prediction:
//
//	xp = A*x + u  (A*x + B*u with WithControlMatrix)
//	Pp = A*P*A' + Q
//
// u may be nil in which case no control is applied.
// It returns error if e or u dimensions do not match the model.
func (k *IKF) Predict(e filter.Estimate, u mat.Vector) (filter.Estimate, error) {
	nx, nu, _, _ := k.m.SystemDims()

	if err := k.checkEstimate(e); err != nil {
		return nil, err
	}

	x := e.Val()

	xNext := mat.NewVecDense(nx, nil)
	xNext.MulVec(k.a, x)

	if u != nil {
		if k.o.ctlMatrix {
			if u.Len() != nu {
				return nil, fmt.Errorf("%w: input vector: %d != %d", filter.ErrDimensionMismatch, u.Len(), nu)
			}
			bu := mat.NewVecDense(nx, nil)
			bu.MulVec(k.b, u)
			xNext.AddVec(xNext, bu)
		} else {
			if u.Len() != nx {
				return nil, fmt.Errorf("%w: input vector: %d != %d", filter.ErrDimensionMismatch, u.Len(), nx)
			}
			xNext.AddVec(xNext, u)
		}
	}

	cov := &mat.Dense{}
	cov.Mul(k.a, e.Cov())
	cov.Mul(cov, k.a.T())
	cov.Add(cov, k.q)

	pNext, err := matrix.ToSymDense(cov)
	if err != nil {
		return nil, err
	}

	return estimate.NewBaseWithCov(xNext, pNext)
}

// Update corrects predicted estimate e using measurement z and returns corrected estimate.
// It returns error if z or e dimensions do not match the model
// or if the predicted covariance can't be inverted.
func (k *IKF) Update(e filter.Estimate, z mat.Vector) (filter.Estimate, error) {
	est, _, _, err := k.update(e, z)
	if err != nil {
		return nil, err
	}

	return est, nil
}

func (k *IKF) update(e filter.Estimate, z mat.Vector) (*estimate.Base, *mat.Dense, *mat.VecDense, error) {
	nx, _, ny, _ := k.m.SystemDims()

	if z == nil || z.Len() != ny {
		return nil, nil, nil, fmt.Errorf("%w: invalid measurement supplied: %v", filter.ErrDimensionMismatch, z)
	}

	if err := k.checkEstimate(e); err != nil {
		return nil, nil, nil, err
	}

	x := e.Val()

	// inv(Pp)
	pInv, err := matrix.Inverse(e.Cov())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to invert predicted covariance: %w", err)
	}

	// inv(Pp) + H'*inv(R)*H
	info := &mat.Dense{}
	info.Add(pInv, k.hrh)

	p, err := matrix.Inverse(info)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to invert information matrix: %w", err)
	}

	// innovation vector
	inn := mat.NewVecDense(ny, nil)
	inn.MulVec(k.h, x)
	inn.SubVec(z, inn)

	// P*H'*inv(R)
	gain := mat.NewDense(nx, ny, nil)
	gain.Mul(p, k.hr)

	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(gain, inn)

	xNext := mat.NewVecDense(nx, nil)
	xNext.AddVec(x, corr)

	for i := 0; i < nx; i++ {
		if math.IsNaN(xNext.AtVec(i)) || math.IsInf(xNext.AtVec(i), 0) {
			return nil, nil, nil, fmt.Errorf("%w: state estimate diverged: %v", filter.ErrSingularMatrix, xNext.RawVector().Data)
		}
	}

	pSym, err := matrix.ToSymDense(p)
	if err != nil {
		return nil, nil, nil, err
	}

	est, err := estimate.NewBaseWithCov(xNext, pSym)
	if err != nil {
		return nil, nil, nil, err
	}

	return est, gain, inn, nil
}

// Step runs one filter step from estimate e given measurement z and control input u.
// It first predicts the next estimate and then corrects it using z. Step does not modify IKF.
// It returns error if it either fails to predict or correct the estimate.
func (k *IKF) Step(e filter.Estimate, z, u mat.Vector) (filter.Estimate, error) {
	est, _, _, err := k.step(e, z, u)
	if err != nil {
		return nil, err
	}

	return est, nil
}

func (k *IKF) step(e filter.Estimate, z, u mat.Vector) (*estimate.Base, *mat.Dense, *mat.VecDense, error) {
	pred, err := k.Predict(e, u)
	if err != nil {
		return nil, nil, nil, err
	}

	return k.update(pred, z)
}

// Run runs one step of IKF for measurement z and control input u starting from the current estimate.
// On success the current estimate is replaced with the corrected one which is returned.
// On error the current estimate is left unchanged.
func (k *IKF) Run(z, u mat.Vector) (filter.Estimate, error) {
	est, gain, inn, err := k.step(k.est, z, u)
	if err != nil {
		return nil, err
	}

	k.est = est
	k.k.Copy(gain)
	k.inn.CopyVec(inn)

	return est, nil
}

// Estimate returns current IKF estimate
func (k *IKF) Estimate() filter.Estimate {
	return k.est
}

// Model returns IKF model
func (k *IKF) Model() filter.DiscreteControlSystem {
	return k.m
}

// StateNoise returns state noise covariance
func (k *IKF) StateNoise() mat.Symmetric {
	q := mat.NewSymDense(k.q.SymmetricDim(), nil)
	q.CopySym(k.q)

	return q
}

// OutputNoise returns output noise covariance
func (k *IKF) OutputNoise() mat.Symmetric {
	r := mat.NewSymDense(k.r.SymmetricDim(), nil)
	r.CopySym(k.r)

	return r
}

// Cov returns IKF covariance
func (k *IKF) Cov() mat.Symmetric {
	return k.est.Cov()
}

// SetCov sets IKF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as IKF covariance dimensions.
func (k *IKF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	n := k.est.Cov().SymmetricDim()
	if cov.SymmetricDim() != n {
		return fmt.Errorf("%w: covariance matrix dims: [%d x %d]", filter.ErrDimensionMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	est, err := estimate.NewBaseWithCov(k.est.Val(), cov)
	if err != nil {
		return err
	}
	k.est = est

	return nil
}

// Gain returns Kalman gain of the last update
func (k *IKF) Gain() mat.Matrix {
	return mat.DenseCopyOf(k.k)
}

// Innovation returns innovation vector of the last update
func (k *IKF) Innovation() mat.Vector {
	return mat.VecDenseCopyOf(k.inn)
}

func (k *IKF) checkEstimate(e filter.Estimate) error {
	nx, _, _, _ := k.m.SystemDims()

	if e == nil {
		return fmt.Errorf("invalid estimate: %v", e)
	}

	if e.Val().Len() != nx || e.Cov().SymmetricDim() != nx {
		return fmt.Errorf("%w: estimate: state %d, covariance %d", filter.ErrDimensionMismatch, e.Val().Len(), e.Cov().SymmetricDim())
	}

	return nil
}

// checkCov checks cov is positive semidefinite or, if relaxed, has finite non-negative diagonal.
func checkCov(cov mat.Symmetric, relaxed bool) error {
	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := cov.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite element [%d, %d]: %v", i, j, v)
			}
		}
		if v := cov.At(i, i); v < 0 {
			return fmt.Errorf("negative variance [%d, %d]: %v", i, i, v)
		}
	}

	if !relaxed && !matrix.IsPSD(cov, covTol) {
		return fmt.Errorf("matrix not positive semidefinite")
	}

	return nil
}
