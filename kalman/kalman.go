package kalman

import (
	filter "github.com/milosgajdos/go-infokf"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// Run runs one filter step from the current estimate and keeps the result
	Run(z, u mat.Vector) (filter.Estimate, error)
	// Estimate returns the current estimate
	Estimate() filter.Estimate
	// Model returns the system model the filter estimates
	Model() filter.DiscreteControlSystem
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
}
