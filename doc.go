// Package gradopt fits sparse linear models that are robust to outliers by
// minimizing a truncated-residual objective through graduated optimization.
//
// # Overview
//
// The exact objective counts only samples whose residual lies inside an
// epsilon tube around the fit, which makes it combinatorial and
// discontinuous in the coefficients. Instead of attacking it directly, the
// package minimizes a sequence of sigmoid-smoothed relaxations controlled
// by a smoothness parameter beta: small beta gives a nearly convex
// surrogate, large beta recovers the exact loss. Each annealing step raises
// beta only as far as a worst-case approximation-ratio bound allows, so the
// solve tracks one consistent local optimum instead of falling into the bad
// minima of the sharp objective.
//
// Inner solves use limited-memory quasi-Newton minimization with native
// orthant-wise L1 support, so lasso-style sparsity comes out exact rather
// than smoothed.
//
// # Basic Usage
//
//	X := mat.NewDense(n, d, data) // optionally with an intercept column
//	cfg := gradopt.DefaultConfig()
//	cfg.Epsilon = 0.1
//	cfg.Lambda1 = 0.01
//
//	alpha, err := gradopt.GraduatedOptimisation(alpha0, X, y, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A lasso/ridge fit on the same solver stack is available as a warm start:
//
//	alpha0, err := gradopt.RegularisedRegression(X, y, 1e-6, 1e-6, 200)
//
// # Diagnostics
//
// Running out of inner iterations is recoverable: the best iterate is
// carried forward and the condition is reported through Config.Warn. Set
// Config.Debug to an io.Writer for a per-iteration trace of beta, the
// matching epsilon estimate, and both loss values.
//
// The call is pure computation: no I/O, no retained state, and independent
// calls may run concurrently.
package gradopt
