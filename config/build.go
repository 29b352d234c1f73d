package config

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/kalman"
	"github.com/milosgajdos/go-infokf/kalman/ikf"
	"github.com/milosgajdos/go-infokf/kalman/kf"
	"github.com/milosgajdos/go-infokf/noise"
	"github.com/milosgajdos/go-infokf/sim"
	"gonum.org/v1/gonum/mat"
)

// NewModel returns the discrete-time system model of the scenario.
// If the sampling time is positive the model matrices are discretized first.
func (c *Config) NewModel() (*sim.Discrete, error) {
	a := dense(c.Model.A)
	b := dense(c.Model.B)
	h := dense(c.Model.H)

	if c.Model.Dt > 0 {
		ct, err := sim.NewContinuous(a, b, h, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid continuous model: %w", err)
		}

		return ct.ToDiscrete(c.Model.Dt)
	}

	return sim.NewDiscrete(a, b, h, nil, nil)
}

// NewInitCond returns the initial filter condition.
func (c *Config) NewInitCond() (*sim.InitCond, error) {
	return sim.NewInitCond(mat.NewVecDense(len(c.Init.X0), c.Init.X0), sym(c.Init.P0))
}

// StateNoise returns the state noise covariance assumed by the filter.
func (c *Config) StateNoise() mat.Symmetric {
	return sym(c.Noise.Q)
}

// OutputNoise returns the measurement noise covariance of a system with ny outputs.
func (c *Config) OutputNoise(ny int) mat.Symmetric {
	if len(c.Noise.RMat) > 0 {
		return sym(c.Noise.RMat)
	}

	r := mat.NewSymDense(ny, nil)
	for i := 0; i < ny; i++ {
		r.SetSym(i, i, c.Noise.R)
	}

	return r
}

// ControlInput returns the constant control input or nil if there is none.
func (c *Config) ControlInput() mat.Vector {
	if len(c.Control) == 0 {
		return nil
	}

	return mat.NewVecDense(len(c.Control), c.Control)
}

// NewProcess returns simulated process of model m which starts in the initial state.
// Measurement noise is Gaussian with the output noise covariance unless the scenario
// asks for zero measurement noise. If the scenario defines a disturbance, the process
// state is disturbed by Gaussian noise with its covariance.
func (c *Config) NewProcess(m filter.DiscreteControlSystem) (*sim.Process, error) {
	_, _, ny, _ := m.SystemDims()

	wn, err := c.measurementNoise(ny)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement noise: %w", err)
	}

	var wd filter.Noise
	if len(c.Noise.Disturbance) > 0 {
		n := len(c.Noise.Disturbance)
		wd, err = noise.NewSeededGaussian(make([]float64, n), sym(c.Noise.Disturbance), c.Seed+1)
		if err != nil {
			return nil, fmt.Errorf("failed to create process disturbance: %w", err)
		}
	}

	return sim.NewProcess(m, mat.NewVecDense(len(c.Init.X0), c.Init.X0), wn, wd)
}

func (c *Config) measurementNoise(ny int) (filter.Noise, error) {
	switch c.Noise.Measurement {
	case MeasurementZero:
		wn, err := noise.NewZero(ny)
		if err != nil {
			return nil, err
		}
		return wn, nil
	case MeasurementGaussian:
		wn, err := noise.NewSeededGaussian(make([]float64, ny), c.OutputNoise(ny), c.Seed)
		if err != nil {
			return nil, err
		}
		return wn, nil
	}

	return nil, fmt.Errorf("unknown measurement noise: %q", c.Noise.Measurement)
}

// NewFilter returns the filter of the scenario estimating the state of model m.
func (c *Config) NewFilter(m filter.DiscreteControlSystem) (kalman.Kalman, error) {
	ic, err := c.NewInitCond()
	if err != nil {
		return nil, err
	}

	_, _, ny, _ := m.SystemDims()

	switch c.Filter.Form {
	case FormGain:
		f, err := kf.New(m, ic, c.StateNoise(), c.OutputNoise(ny))
		if err != nil {
			return nil, err
		}
		return f, nil
	case FormInformation:
		var opts []ikf.Option
		if c.Filter.Control == ControlMatrix {
			opts = append(opts, ikf.WithControlMatrix())
		}
		if c.Noise.Relaxed {
			opts = append(opts, ikf.WithRelaxedCovCheck())
		}
		f, err := ikf.New(m, ic, c.StateNoise(), c.OutputNoise(ny), opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	return nil, fmt.Errorf("unknown filter form: %q", c.Filter.Form)
}

func dense(m [][]float64) *mat.Dense {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil
	}

	rows, cols := len(m), len(m[0])
	d := mat.NewDense(rows, cols, nil)
	for i := range m {
		d.SetRow(i, m[i])
	}

	return d
}

// sym returns symmetric matrix built from the upper triangle of square matrix m.
func sym(m [][]float64) *mat.SymDense {
	n := len(m)
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, m[i][j])
		}
	}

	return s
}
