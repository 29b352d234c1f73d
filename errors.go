package filter

import "errors"

var (
	// ErrDimensionMismatch is returned when matrix or vector operands are not conformant
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSingularMatrix is returned when a matrix that must be inverted is singular
	ErrSingularMatrix = errors.New("singular matrix")
	// ErrInvalidNoise is returned when noise covariances are not well posed
	ErrInvalidNoise = errors.New("invalid noise parameter")
)
