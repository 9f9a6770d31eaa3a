// Package numerics provides the scalar primitives used by the smoothed loss
// and the approximation-ratio calculator.
//
// All functions are pure and overflow-safe for the full float64 range; the
// annealing schedule routinely evaluates them at arguments like
// beta*(eps2-r2) with beta in the thousands.
package numerics

import "math"

// Sigmoid computes the logistic function 1/(1+exp(-x)).
//
// For negative x the equivalent exp(x)/(1+exp(x)) form is used so that
// exp never overflows.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// LogSigmoid computes log(Sigmoid(x)) without intermediate overflow or
// catastrophic cancellation:
//
//	log(sigmoid(x)) = min(0, x) - log1p(exp(-|x|))
func LogSigmoid(x float64) float64 {
	return math.Min(0, x) - math.Log1p(math.Exp(-math.Abs(x)))
}

// DLogSigmoid computes the derivative of LogSigmoid, which is sigmoid(-x).
func DLogSigmoid(x float64) float64 {
	return Sigmoid(-x)
}

// LogSumWeighted computes log(sum_i ws[i]*exp(xs[i])) using the usual
// max-shift trick. Weights must be non-negative. If the weighted sum
// underflows to zero (all weights zero, or all terms negligible) the shift
// itself is returned, which keeps downstream log-ratio differences finite.
//
// Panics if the slices differ in length.
func LogSumWeighted(xs, ws []float64) float64 {
	if len(xs) != len(ws) {
		panic("numerics: length mismatch in LogSumWeighted")
	}
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	var s float64
	for i, x := range xs {
		s += ws[i] * math.Exp(x-m)
	}
	if s <= 0 {
		return m
	}
	return math.Log(s) + m
}
