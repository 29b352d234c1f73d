package matrix

import (
	"errors"
	"testing"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestColSums(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.2, 3.4, 4.5, 6.7, 8.9, 10.0}
	colSums := []float64{14.6, 20.1}
	delta := 0.001

	m := mat.NewDense(3, 2, data)
	assert.NotNil(m)

	resCols := ColSums(m)
	assert.NotNil(resCols)
	assert.InDeltaSlice(colSums, resCols, delta)
	// should panic
	assert.Panics(func() { ColSums(nil) })
}

func TestIsSymmetric(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2, 1}), 1e-12))
	assert.False(IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2.1, 1}), 1e-12))
	assert.False(IsSymmetric(mat.NewDense(2, 3, nil), 1e-12))
}

func TestIsPSD(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		m   *mat.SymDense
		psd bool
		pd  bool
	}{
		{m: mat.NewSymDense(2, []float64{5, 0, 0, 5}), psd: true, pd: true},
		{m: mat.NewSymDense(2, nil), psd: true, pd: false},
		{m: mat.NewSymDense(2, []float64{1, 1, 1, 1}), psd: true, pd: false},
		{m: mat.NewSymDense(2, []float64{0.00025, 0.0005, 0.0005, 0.0001}), psd: false, pd: false},
		{m: mat.NewSymDense(1, []float64{-1}), psd: false, pd: false},
	} {
		assert.Equal(test.psd, IsPSD(test.m, 1e-12), "%v", test.m)
		assert.Equal(test.pd, IsPD(test.m), "%v", test.m)
	}
}

func TestToSymDense(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{1, 2, 2.0000001, 4})
	s, err := ToSymDense(m)
	assert.NoError(err)
	assert.Equal(2, s.SymmetricDim())
	assert.Equal(2.0, s.At(1, 0))
	assert.Equal(s.At(0, 1), s.At(1, 0))

	s, err = ToSymDense(mat.NewDense(2, 3, nil))
	assert.Nil(s)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}

func TestInverse(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{4, 7, 2, 6})
	inv, err := Inverse(m)
	assert.NoError(err)

	eye := &mat.Dense{}
	eye.Mul(m, inv)
	assert.True(mat.EqualApprox(eye, mat.NewDiagDense(2, []float64{1, 1}), 1e-12))

	inv, err = Inverse(mat.NewDense(2, 2, nil))
	assert.Nil(inv)
	assert.True(errors.Is(err, filter.ErrSingularMatrix))

	inv, err = Inverse(mat.NewDense(2, 3, nil))
	assert.Nil(inv)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}

func TestSymInverse(t *testing.T) {
	assert := assert.New(t)

	// diagonal matrices are inverted element-wise
	inv, err := SymInverse(mat.NewSymDense(2, []float64{4, 0, 0, 0.5}))
	assert.NoError(err)
	assert.Equal(0.25, inv.At(0, 0))
	assert.Equal(2.0, inv.At(1, 1))
	assert.Equal(0.0, inv.At(0, 1))

	s := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	inv, err = SymInverse(s)
	assert.NoError(err)
	eye := &mat.Dense{}
	eye.Mul(s, inv)
	assert.True(mat.EqualApprox(eye, mat.NewDiagDense(2, []float64{1, 1}), 1e-12))

	for _, bad := range []*mat.SymDense{
		mat.NewSymDense(1, []float64{0}),
		mat.NewSymDense(2, []float64{1, 0, 0, -1}),
		mat.NewSymDense(2, []float64{1, 1, 1, 1}),
	} {
		inv, err = SymInverse(bad)
		assert.Nil(inv)
		assert.True(errors.Is(err, filter.ErrSingularMatrix))
	}
}
