package kf

import (
	"errors"
	"os"
	"testing"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type invalidModel struct {
	filter.DiscreteControlSystem
	nx int
	nu int
	ny int
}

func (m *invalidModel) SystemDims() (nx, nu, ny, nz int) {
	return m.nx, m.nu, m.ny, 0
}

var (
	okModel  *sim.Discrete
	badModel *invalidModel
	ic       *sim.InitCond
	q        *mat.SymDense
	r        *mat.SymDense
	u        *mat.VecDense
	z        *mat.VecDense
)

func setup() {
	u = mat.NewVecDense(1, []float64{-1.0})
	z = mat.NewVecDense(1, []float64{-1.5})

	// initial condition
	initState := mat.NewVecDense(2, []float64{1.0, 3.0})
	initCov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})
	ic, _ = sim.NewInitCond(initState, initCov)

	// state and output noise
	q = mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})
	r = mat.NewSymDense(1, []float64{0.25})

	A := mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	B := mat.NewDense(2, 1, []float64{0.5, 1.0})
	C := mat.NewDense(1, 2, []float64{1.0, 0.0})
	D := mat.NewDense(1, 1, []float64{0.0})

	okModel, _ = sim.NewDiscrete(A, B, C, D, nil)
	badModel = &invalidModel{DiscreteControlSystem: okModel, nx: 10, ny: 10}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NoError(err)
	assert.NotNil(f)

	// invalid model: negative dimensions
	badModel.nx, badModel.ny = -10, 20
	f, err = New(badModel, ic, q, r)
	assert.Nil(f)
	assert.Error(err)

	// invalid state noise dimension
	f, err = New(okModel, ic, mat.NewSymDense(20, nil), r)
	assert.Nil(f)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	// invalid output noise dimension
	f, err = New(okModel, ic, q, mat.NewSymDense(20, nil))
	assert.Nil(f)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	// output noise must be positive definite
	f, err = New(okModel, ic, q, mat.NewSymDense(1, []float64{0}))
	assert.Nil(f)
	assert.True(errors.Is(err, filter.ErrInvalidNoise))

	// initial condition not matching the model
	_ic, err := sim.NewInitCond(mat.NewVecDense(3, nil), mat.NewSymDense(3, nil))
	require.NoError(t, err)
	f, err = New(okModel, _ic, q, r)
	assert.Nil(f)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}

func TestKFPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Predict(f.Estimate(), u)
	assert.NotNil(est)
	assert.NoError(err)

	// A*x + B*u
	assert.InDelta(3.5, est.Val().AtVec(0), 1e-12)
	assert.InDelta(2.0, est.Val().AtVec(1), 1e-12)
	// A*P*A' + Q
	assert.InDelta(0.75, est.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.25, est.Cov().At(0, 1), 1e-12)
	assert.InDelta(0.5, est.Cov().At(1, 1), 1e-12)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Predict(f.Estimate(), _u)
	assert.Nil(est)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	est, err = f.Predict(nil, u)
	assert.Nil(est)
	assert.Error(err)
}

func TestKFUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Update(f.Estimate(), z)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Update(f.Estimate(), _z)
	assert.Nil(est)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	est, err = f.Update(nil, z)
	assert.Nil(est)
	assert.Error(err)
}

func TestKFRun(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Run(z, u)
	assert.NotNil(est)
	assert.NoError(err)

	assert.InDelta(-0.25, est.Val().AtVec(0), 1e-12)
	assert.InDelta(0.75, est.Val().AtVec(1), 1e-12)
	assert.InDelta(0.1875, est.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.0625, est.Cov().At(0, 1), 1e-12)
	assert.InDelta(0.0625, est.Cov().At(1, 0), 1e-12)
	assert.InDelta(0.4375, est.Cov().At(1, 1), 1e-12)

	assert.True(mat.Equal(est.Val(), f.Estimate().Val()))
	assert.InDelta(-5.0, f.Innovation().AtVec(0), 1e-12)

	// Step does not change the filter
	next, err := f.Step(f.Estimate(), z, u)
	assert.NoError(err)
	assert.NotNil(next)
	assert.True(mat.Equal(est.Val(), f.Estimate().Val()))

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Run(z, _u)
	assert.Nil(est)
	assert.Error(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Run(_z, u)
	assert.Nil(est)
	assert.Error(err)

	// failed runs leave the estimate untouched
	assert.InDelta(-0.25, f.Estimate().Val().AtVec(0), 1e-12)
}

func TestKFModel(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	m := f.Model()
	assert.NotNil(m)
}

func TestKFNoise(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	sn := f.StateNoise()
	assert.True(mat.Equal(q, sn))

	on := f.OutputNoise()
	assert.True(mat.Equal(r, on))
}

func TestKFCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	cov := f.Cov()
	assert.NotNil(cov)

	err = f.SetCov(nil)
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(30, nil))
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(2, nil))
	assert.NoError(err)
	assert.Equal(0.0, f.Cov().At(0, 0))
}

func TestKFGain(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	_, err = f.Run(z, u)
	require.NoError(t, err)

	gain := f.Gain()
	assert.InDelta(0.75, gain.At(0, 0), 1e-12)
	assert.InDelta(0.25, gain.At(1, 0), 1e-12)
}

func TestKFFewerOutputs(t *testing.T) {
	assert := assert.New(t)

	// two states, two inputs, one output
	A := mat.NewDense(2, 2, []float64{1.0, 0.1, 0.0, 1.0})
	B := mat.NewDense(2, 2, []float64{0.5, 0.0, 0.0, 1.0})
	C := mat.NewDense(1, 2, []float64{1.0, 0.0})
	m, err := sim.NewDiscrete(A, B, C, nil, nil)
	require.NoError(t, err)

	_ic, err := sim.NewInitCond(mat.NewVecDense(2, nil), mat.NewSymDense(2, []float64{5, 0, 0, 5}))
	require.NoError(t, err)
	_r := mat.NewSymDense(1, []float64{1.0})

	f, err := New(m, _ic, q, _r)
	require.NoError(t, err)

	var est filter.Estimate
	assert.NotPanics(func() {
		est, err = f.Run(mat.NewVecDense(1, []float64{0.3}), mat.NewVecDense(2, []float64{0.015, 0.1}))
	})
	assert.NoError(err)
	require.NotNil(t, est)

	rows, cols := f.Gain().Dims()
	assert.Equal(2, rows)
	assert.Equal(1, cols)

	cov := est.Cov()
	assert.Equal(2, cov.SymmetricDim())
	assert.Equal(cov.At(0, 1), cov.At(1, 0))
	// the measured component is far more certain than the unmeasured one
	assert.Less(cov.At(0, 0), 1.0)
	assert.Greater(cov.At(1, 1), 4.0)
	assert.Equal(1, f.Innovation().Len())
}
