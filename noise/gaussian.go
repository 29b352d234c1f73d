package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// src is the source of randomness
	src rand.Source
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
}

// NewGaussian creates new Gaussian noise with given mean and covariance
// drawing its samples from src. If src is nil, a source seeded with the current time is used.
// It returns error if mean and cov dimensions differ or if cov is not positive definite.
func NewGaussian(mean []float64, cov mat.Symmetric, src rand.Source) (*Gaussian, error) {
	if cov == nil || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid Gaussian dimensions: mean: %d", len(mean))
	}

	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	dist, ok := distmv.NewNormal(m, c, src)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise: covariance not positive definite")
	}

	return &Gaussian{
		dist: dist,
		src:  src,
		mean: m,
		cov:  c,
	}, nil
}

// NewSeededGaussian creates new Gaussian noise whose samples are drawn from a source seeded with seed.
func NewSeededGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	return NewGaussian(mean, cov, rand.NewSource(seed))
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise distribution.
// Samples keep being drawn from the same source.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	dist, ok := distmv.NewNormal(g.mean, g.cov, g.src)
	if !ok {
		return fmt.Errorf("failed to reset Gaussian noise")
	}
	g.dist = dist

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
