package loss

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Objective is a fused value/gradient function over a coefficient vector.
// It writes the gradient into grad and returns the value.
type Objective func(alpha, grad []float64) float64

// OLS returns the ordinary-least-squares objective sum(r^2)/2 with gradient
// X^T·r. It backs the unregularized path of RegularisedRegression.
func OLS(X *mat.Dense, Y []float64) Objective {
	return func(alpha, grad []float64) float64 {
		return leastSquares(X, Y, alpha, grad, 0)
	}
}

// Ridge returns the L2-regularized least-squares objective
// sum(r^2)/2 + lambda2*|alpha|^2/2 with gradient X^T·r + lambda2*alpha.
func Ridge(X *mat.Dense, Y []float64, lambda2 float64) Objective {
	return func(alpha, grad []float64) float64 {
		return leastSquares(X, Y, alpha, grad, lambda2)
	}
}

func leastSquares(X *mat.Dense, Y, alpha, grad []float64, lambda2 float64) float64 {
	n, d := X.Dims()
	r := make([]float64, n)
	for i := range r {
		r[i] = floats.Dot(X.RawRowView(i), alpha) - Y[i]
	}
	l := floats.Dot(r, r) / 2

	gv := mat.NewVecDense(d, grad)
	gv.MulVec(X.T(), mat.NewVecDense(n, r))

	if lambda2 > 0 {
		l += lambda2 * floats.Dot(alpha, alpha) / 2
		floats.AddScaled(grad, lambda2, alpha)
	}
	return l
}
