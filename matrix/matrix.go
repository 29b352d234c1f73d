package matrix

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-infokf"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}

// IsSymmetric returns true if m is square and m[i,j] and m[j,i] differ by at most tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}

	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if !scalar.EqualWithinAbsOrRel(m.At(i, j), m.At(j, i), tol, tol) {
				return false
			}
		}
	}

	return true
}

// IsPSD returns true if all eigenvalues of s are non-negative within tolerance tol
// relative to the largest eigenvalue magnitude.
func IsPSD(s mat.Symmetric, tol float64) bool {
	var eig mat.EigenSym
	if ok := eig.Factorize(s, false); !ok {
		return false
	}

	vals := eig.Values(nil)
	scale := 1.0
	for _, v := range vals {
		scale = math.Max(scale, math.Abs(v))
	}

	for _, v := range vals {
		if v < -tol*scale {
			return false
		}
	}

	return true
}

// IsPD returns true if s is positive definite i.e. it admits Cholesky factorization.
func IsPD(s mat.Symmetric) bool {
	var chol mat.Cholesky
	return chol.Factorize(s)
}

// IsDiagonal returns true if all off-diagonal elements of square matrix m are zero.
func IsDiagonal(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && m.At(i, j) != 0 {
				return false
			}
		}
	}

	return true
}

// ToSymDense copies the upper triangle of square matrix m into a new symmetric matrix.
// It returns error if m is not square.
func ToSymDense(m mat.Matrix) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: matrix not square: [%d x %d]", filter.ErrDimensionMismatch, r, c)
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}

	return sym, nil
}

// Inverse returns the inverse of square matrix m.
// It returns error if m is singular or too ill-conditioned to be inverted.
func Inverse(m mat.Matrix) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: matrix not square: [%d x %d]", filter.ErrDimensionMismatch, r, c)
	}

	inv := &mat.Dense{}
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%w: %v", filter.ErrSingularMatrix, err)
	}

	return inv, nil
}

// SymInverse returns the inverse of positive definite matrix s.
// Diagonal matrices are inverted element-wise, anything else via Cholesky factorization.
// It returns error if s is not positive definite.
func SymInverse(s mat.Symmetric) (*mat.SymDense, error) {
	n := s.SymmetricDim()
	inv := mat.NewSymDense(n, nil)

	if IsDiagonal(s) {
		for i := 0; i < n; i++ {
			v := s.At(i, i)
			if v <= 0 {
				return nil, fmt.Errorf("%w: non-positive diagonal element %d: %v", filter.ErrSingularMatrix, i, v)
			}
			inv.SetSym(i, i, 1/v)
		}
		return inv, nil
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return nil, fmt.Errorf("%w: matrix not positive definite", filter.ErrSingularMatrix)
	}

	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("%w: %v", filter.ErrSingularMatrix, err)
	}

	return inv, nil
}
