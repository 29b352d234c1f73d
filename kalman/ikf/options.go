package ikf

// Option configures IKF
type Option func(*options)

type options struct {
	// ctlMatrix applies the model control matrix to the control input in prediction
	ctlMatrix bool
	// relaxed relaxes covariance validation
	relaxed bool
}

// WithControlMatrix makes IKF predict the next state as A*x + B*u instead of A*x + u.
// By default the control input is expected to be already mapped into the state space.
func WithControlMatrix() Option {
	return func(o *options) {
		o.ctlMatrix = true
	}
}

// WithRelaxedCovCheck makes IKF accept any symmetric state noise and initial covariance
// with non-negative diagonal instead of requiring them to be positive semidefinite.
func WithRelaxedCovCheck() Option {
	return func(o *options) {
		o.relaxed = true
	}
}
