package anneal

import (
	"math"

	"github.com/gradopt-ml/gradopt/internal/rootfind"
)

// NextBeta picks the next smoothness level for the annealing loop.
//
// At or past betaMax it returns beta unchanged. If jumping straight to
// betaMax keeps the log approximation ratio within logMaxApprox, the jump is
// taken. Otherwise the largest admissible beta is found by root-finding the
// ratio bound over (beta, betaMax], and the result is clamped to at least a
// minStepFrac fraction beyond the current beta so the schedule cannot stall
// in numerically flat regions.
func NextBeta(residuals2 []float64, eps2, beta, betaMax, logMaxApprox, minStepFrac float64) (float64, error) {
	if beta >= betaMax {
		return beta, nil
	}
	logApprox, err := LogApproximationRatio(residuals2, eps2, beta, betaMax)
	if err != nil {
		return 0, err
	}
	if logApprox <= logMaxApprox {
		return betaMax, nil
	}

	// f(beta) = -logMaxApprox < 0 and f(betaMax) = logApprox-logMaxApprox > 0,
	// so the bracket is guaranteed; a ratio error inside the closure is
	// remembered and reported after the solve.
	var ratioErr error
	f := func(b float64) float64 {
		v, ferr := LogApproximationRatio(residuals2, eps2, beta, b)
		if ferr != nil && ratioErr == nil {
			ratioErr = ferr
		}
		return v - logMaxApprox
	}
	root, err := rootfind.Brent(f, beta, betaMax, brentTol)
	if err != nil {
		return 0, err
	}
	if ratioErr != nil {
		return 0, ratioErr
	}

	betaMin := beta + minStepFrac*(betaMax+beta)
	return math.Min(betaMax, math.Max(root, betaMin)), nil
}
