package filter

import "gonum.org/v1/gonum/mat"

// Filter is a dynamical system filter.
type Filter interface {
	// Predict propagates estimate e to the next step given control input u
	Predict(e Estimate, u mat.Vector) (Estimate, error)
	// Update corrects predicted estimate e using external measurement z
	Update(e Estimate, z mat.Vector) (Estimate, error)
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state x to the next step given input u and disturbance wd
	Propagate(x, u, wd mat.Vector) (mat.Vector, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes external state of the system given internal state x, input u and noise wn
	Observe(x, u, wn mat.Vector) (mat.Vector, error)
}

// DiscreteModel is a model of a discrete-time dynamical system
type DiscreteModel interface {
	// Propagator is system propagator
	Propagator
	// Observer is system observer
	Observer
	// SystemDims returns internal state length (nx), input vector length (nu),
	// output vector length (ny) and disturbance vector length (nz)
	SystemDims() (nx, nu, ny, nz int)
}

// DiscreteControlSystem is a discrete-time dynamical system whose state is
// driven by static propagation and observation matrices
type DiscreteControlSystem interface {
	// DiscreteModel is a model of a discrete-time dynamical system
	DiscreteModel
	// SystemMatrix returns state propagation matrix
	SystemMatrix() mat.Matrix
	// ControlMatrix returns state propagation control matrix
	ControlMatrix() mat.Matrix
	// OutputMatrix returns observation matrix
	OutputMatrix() mat.Matrix
	// FeedForwardMatrix returns observation control matrix
	FeedForwardMatrix() mat.Matrix
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}

// Smoother is a filter smoother
type Smoother interface {
	// Smooth smooths filter estimates given the control inputs which produced them
	Smooth(est []Estimate, u []mat.Vector) ([]Estimate, error)
}
