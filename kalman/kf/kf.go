// Package kf implements Kalman filter in the gain form with Joseph form covariance update.
package kf

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/estimate"
	gmatrix "github.com/milosgajdos/go-infokf/matrix"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// KF is Kalman Filter
type KF struct {
	// m is KF system model
	m filter.DiscreteControlSystem
	// q is state noise a.k.a. process noise covariance
	q *mat.SymDense
	// r is output noise a.k.a. measurement noise covariance
	r *mat.SymDense
	// eye is identity matrix used in Joseph form update
	eye *mat.Dense
	// est is the current state estimate
	est *estimate.Base
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      dynamical system model
//   - init:   initial condition of the filter
//   - q:      state noise a.k.a. process noise covariance
//   - r:      output noise a.k.a. measurement noise covariance
//
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - invalid state or output noise is given: noise covariance must match the model dimensions
func New(m filter.DiscreteControlSystem, init filter.InitCond, q, r mat.Symmetric) (*KF, error) {
	if m == nil || init == nil {
		return nil, fmt.Errorf("invalid model or initial condition")
	}

	// size of the input and output vectors
	nx, _, ny, _ := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	if q == nil || q.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid state noise dimension", filter.ErrDimensionMismatch)
	}

	if r == nil || r.SymmetricDim() != ny {
		return nil, fmt.Errorf("%w: invalid output noise dimension", filter.ErrDimensionMismatch)
	}

	rows, cols := m.SystemMatrix().Dims()
	if rows != nx || cols != nx {
		return nil, fmt.Errorf("%w: propagation matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
	}

	if m.OutputMatrix() == nil {
		return nil, fmt.Errorf("observation matrix must be defined")
	}

	rows, cols = m.OutputMatrix().Dims()
	if rows != ny || cols != nx {
		return nil, fmt.Errorf("%w: observation matrix: [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
	}

	if !gmatrix.IsPD(r) {
		return nil, fmt.Errorf("%w: output noise covariance not positive definite", filter.ErrInvalidNoise)
	}

	est, err := estimate.NewBaseWithCov(init.State(), init.Cov())
	if err != nil {
		return nil, fmt.Errorf("invalid initial condition: %w", err)
	}

	if est.Val().Len() != nx {
		return nil, fmt.Errorf("%w: initial state: %d != %d", filter.ErrDimensionMismatch, est.Val().Len(), nx)
	}

	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}

	qc := mat.NewSymDense(nx, nil)
	qc.CopySym(q)

	rc := mat.NewSymDense(ny, nil)
	rc.CopySym(r)

	return &KF{
		m:   m,
		q:   qc,
		r:   rc,
		eye: eye,
		est: est,
		inn: mat.NewVecDense(ny, nil),
		k:   mat.NewDense(nx, ny, nil),
	}, nil
}

// Predict propagates estimate e to the next step given input u and returns the predicted estimate.
// It returns error if it fails to propagate the state to the next step.
func (k *KF) Predict(e filter.Estimate, u mat.Vector) (filter.Estimate, error) {
	if e == nil {
		return nil, fmt.Errorf("invalid estimate: %v", e)
	}

	// propagate input state to the next step
	xNext, err := k.m.Propagate(e.Val(), u, nil)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	if e.Cov().SymmetricDim() != xNext.Len() {
		return nil, fmt.Errorf("%w: estimate covariance: %d", filter.ErrDimensionMismatch, e.Cov().SymmetricDim())
	}

	cov := &mat.Dense{}
	cov.Mul(k.m.SystemMatrix(), e.Cov())
	cov.Mul(cov, k.m.SystemMatrix().T())
	cov.Add(cov, k.q)

	pNext, err := gmatrix.ToSymDense(cov)
	if err != nil {
		return nil, err
	}

	return estimate.NewBaseWithCov(xNext, pNext)
}

// Update corrects estimate e using the measurement z and returns corrected estimate.
// It returns error if either invalid estimate or measurement was supplied
// or if it fails to calculate the innovation covariance inverse.
func (k *KF) Update(e filter.Estimate, z mat.Vector) (filter.Estimate, error) {
	est, _, _, err := k.update(e, z)
	if err != nil {
		return nil, err
	}

	return est, nil
}

func (k *KF) update(e filter.Estimate, z mat.Vector) (*estimate.Base, *mat.Dense, *mat.VecDense, error) {
	nx, _, ny, _ := k.m.SystemDims()

	if z == nil || z.Len() != ny {
		return nil, nil, nil, fmt.Errorf("%w: invalid measurement supplied: %v", filter.ErrDimensionMismatch, z)
	}

	if e == nil || e.Val().Len() != nx || e.Cov().SymmetricDim() != nx {
		return nil, nil, nil, fmt.Errorf("%w: invalid estimate supplied", filter.ErrDimensionMismatch)
	}

	x := e.Val()
	p := e.Cov()
	h := k.m.OutputMatrix()

	// observe system output in the next step
	y, err := k.m.Observe(x, nil, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to observe system output: %w", err)
	}

	pxy := mat.NewDense(nx, ny, nil)
	pyy := mat.NewDense(ny, ny, nil)

	// P*H'
	pxy.Mul(p, h.T())

	// Note: pxy = P * H' so we reuse the result here
	// H*P*H' + R
	pyy.Mul(h, pxy)
	pyy.Add(pyy, k.r)

	// calculate Kalman gain
	pyyInv, err := gmatrix.Inverse(pyy)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to calculate Pyy inverse: %w", err)
	}
	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := mat.NewVecDense(ny, nil)
	inn.SubVec(z, y)

	// update state x
	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(gain, inn)
	xNext := mat.NewVecDense(nx, nil)
	xNext.AddVec(x, corr)

	// Joseph form update
	a := &mat.Dense{}
	// K*H
	a.Mul(gain, h)
	// eye - K*H
	a.Sub(k.eye, a)

	// K*R*K'
	kr := &mat.Dense{}
	kr.Mul(gain, k.r)
	krk := &mat.Dense{}
	krk.Mul(kr, gain.T())

	// (I - K*H)*P*(I - K*H)' + K*R*K'
	ap := &mat.Dense{}
	ap.Mul(a, p)
	apa := &mat.Dense{}
	apa.Mul(ap, a.T())
	apa.Add(apa, krk)

	pNext, err := gmatrix.ToSymDense(apa)
	if err != nil {
		return nil, nil, nil, err
	}

	est, err := estimate.NewBaseWithCov(xNext, pNext)
	if err != nil {
		return nil, nil, nil, err
	}

	return est, gain, inn, nil
}

// Step predicts the next estimate from e given input u and corrects it using measurement z.
// It does not modify KF.
func (k *KF) Step(e filter.Estimate, z, u mat.Vector) (filter.Estimate, error) {
	pred, err := k.Predict(e, u)
	if err != nil {
		return nil, err
	}

	return k.Update(pred, z)
}

// Run runs one step of KF for measurement z and input u starting from the current estimate.
// It replaces the current estimate with the corrected one and returns it.
// The current estimate is left unchanged if Run fails.
func (k *KF) Run(z, u mat.Vector) (filter.Estimate, error) {
	pred, err := k.Predict(k.est, u)
	if err != nil {
		return nil, err
	}

	est, gain, inn, err := k.update(pred, z)
	if err != nil {
		return nil, err
	}

	k.est = est
	k.k.Copy(gain)
	k.inn.CopyVec(inn)

	return est, nil
}

// Estimate returns current KF estimate
func (k *KF) Estimate() filter.Estimate {
	return k.est
}

// Model returns KF models
func (k *KF) Model() filter.DiscreteControlSystem {
	return k.m
}

// StateNoise retruns state noise covariance
func (k *KF) StateNoise() mat.Symmetric {
	q := mat.NewSymDense(k.q.SymmetricDim(), nil)
	q.CopySym(k.q)

	return q
}

// OutputNoise retruns output noise covariance
func (k *KF) OutputNoise() mat.Symmetric {
	r := mat.NewSymDense(k.r.SymmetricDim(), nil)
	r.CopySym(k.r)

	return r
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	return k.est.Cov()
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.est.Cov().SymmetricDim() {
		return fmt.Errorf("%w: covariance matrix dims: [%d x %d]", filter.ErrDimensionMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	est, err := estimate.NewBaseWithCov(k.est.Val(), cov)
	if err != nil {
		return err
	}
	k.est = est

	return nil
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns innovation vector of the last update
func (k *KF) Innovation() mat.Vector {
	return mat.VecDenseCopyOf(k.inn)
}
