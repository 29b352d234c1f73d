package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestNewGaussian(t *testing.T) {
	assert := assert.New(t)
	for _, test := range []struct {
		mean []float64
		cov  *mat.SymDense
		ok   bool
	}{
		{
			mean: []float64{2, 3},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
			ok:   true,
		},
		{
			mean: []float64{2},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
			ok:   false,
		},
		{
			mean: []float64{0, 0},
			cov:  mat.NewSymDense(2, []float64{0.00025, 0.0005, 0.0005, 0.0001}),
			ok:   false,
		},
	} {
		g, err := NewGaussian(test.mean, test.cov, nil)
		if test.ok {
			assert.NotNil(g)
			assert.NoError(err)
			continue
		}
		assert.Nil(g)
		assert.Error(err)
	}
}

func TestMeanCov(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, rand.NewSource(1))
	assert.NotNil(g)
	assert.NoError(err)

	gCov := g.Cov()
	assert.Equal(cov.SymmetricDim(), gCov.SymmetricDim())

	rows, cols := gCov.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if gCov.At(r, c) != cov.At(r, c) {
				t.Errorf("Wrong covariance matrix returned")
			}
		}
	}

	gMean := g.Mean()
	assert.EqualValues(mean, gMean)
}

func TestSample(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, nil)
	assert.NotNil(g)
	assert.NoError(err)

	sample := g.Sample()
	r, _ := sample.Dims()
	assert.Equal(r, len(mean))
}

func TestSampleMean(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, -3}
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	g, err := NewSeededGaussian(mean, cov, 42)
	assert.NoError(err)

	n := 20000
	sum := mat.NewVecDense(2, nil)
	for i := 0; i < n; i++ {
		sum.AddVec(sum, g.Sample())
	}
	sum.ScaleVec(1/float64(n), sum)

	assert.InDelta(mean[0], sum.AtVec(0), 0.05)
	assert.InDelta(mean[1], sum.AtVec(1), 0.05)
}

func TestSeededRepeatable(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{0, 0}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g1, err := NewSeededGaussian(mean, cov, 7)
	assert.NoError(err)
	g2, err := NewSeededGaussian(mean, cov, 7)
	assert.NoError(err)

	for i := 0; i < 10; i++ {
		assert.Equal(g1.Sample(), g2.Sample())
	}
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, rand.NewSource(3))
	assert.NotNil(g)
	assert.NoError(err)

	sample1 := g.Sample()

	err = g.Reset()
	assert.NoError(err)

	sample2 := g.Sample()
	assert.NotEqual(sample1, sample2)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	str := `Gaussian{
Mean=[2 3]
Cov=⎡  1  0.1⎤
    ⎣0.1    1⎦
}`
	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, nil)
	assert.NotNil(g)
	assert.NoError(err)
	assert.Equal(str, g.String())
}
