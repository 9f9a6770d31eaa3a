// Package anneal implements the graduated optimization schedule: the
// approximation-ratio bound between two smoothness levels, the beta
// scheduler built on it, and the driver that runs the annealing loop.
//
// The driver repeatedly minimizes the smoothed loss at the current beta,
// then asks the scheduler how far beta can be raised before the worst-case
// multiplicative gap between the two relaxations exceeds a configured bound.
// Small gaps mean the new relaxation's optimum stays close to the tracked
// one, which is what lets the scheme sharpen toward the combinatorial loss
// without losing the local optimum it is following.
package anneal

import (
	"math"

	"github.com/gradopt-ml/gradopt/internal/numerics"
	"github.com/gradopt-ml/gradopt/internal/rootfind"
)

// brentTol is the bracket tolerance for the two bounded root finds in this
// package. Both brackets are well scaled (one lives in [0, eps^2], the other
// in [beta, betaMax]), so an absolute tolerance works for both.
const brentTol = 1e-11

// LogApproximationRatio computes log(K) where K bounds the worst-case
// multiplicative ratio between the beta1-smoothed and beta2-smoothed losses
// over the given squared residuals. It is 0 whenever beta1 >= beta2.
//
// The per-residual worst case sits at r^2 = 0, at the tube boundary, or at
// an interior critical point of the log-ratio; the interior point exists
// exactly when the ratio's derivative at 0 is negative and is then located
// by bounded root finding over [0, eps^2]. The realized ratio across the
// sample aggregates in log space with slack weights
// phi_i = max(0, eps^2 - r_i^2/n), which keeps far-outside residuals from
// destabilizing the sum.
func LogApproximationRatio(residuals2 []float64, eps2, beta1, beta2 float64) (float64, error) {
	if beta1 >= beta2 {
		return 0, nil
	}
	logF := func(r2, beta float64) float64 {
		return numerics.LogSigmoid(beta * (eps2 - r2))
	}
	dLogG := func(r2 float64) float64 {
		return -beta1*numerics.DLogSigmoid(beta1*(eps2-r2)) +
			beta2*numerics.DLogSigmoid(beta2*(eps2-r2))
	}

	logk := logF(0, beta1) - logF(0, beta2)
	if dLogG(0) < 0 {
		// dLogG(eps2) = (beta2-beta1)/2 > 0, so the bracket always has a
		// sign change here; a failure would be a genuine degeneracy and
		// must propagate rather than be approximated away.
		a, err := rootfind.Brent(dLogG, 0, eps2, brentTol)
		if err != nil {
			return 0, err
		}
		logk = math.Min(logk, logF(a, beta1)-logF(a, beta2))
	}

	n := float64(len(residuals2))
	phi := make([]float64, len(residuals2))
	lf1 := make([]float64, len(residuals2))
	lf2 := make([]float64, len(residuals2))
	for i, r2 := range residuals2 {
		phi[i] = math.Max(0, eps2-r2/n)
		lf1[i] = logF(r2, beta1)
		lf2[i] = logF(r2, beta2)
	}
	return numerics.LogSumWeighted(lf1, phi) - logk - numerics.LogSumWeighted(lf2, phi), nil
}
