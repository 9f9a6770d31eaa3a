package gradopt

import (
	"fmt"
	"io"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/gradopt-ml/gradopt/internal/anneal"
	"github.com/gradopt-ml/gradopt/internal/loss"
	"github.com/gradopt-ml/gradopt/internal/solver"
)

// Minimizer is the quasi-Newton capability behind the inner solves. Any
// orthant-wise-capable implementation honoring the Result contract can be
// substituted through Config.Minimizer.
type Minimizer = solver.Minimizer

// Objective is a fused value/gradient function handed to a Minimizer.
type Objective = solver.Objective

// Result is the outcome of one inner minimization.
type Result = solver.Result

// Status reports how an inner minimization ended.
type Status = solver.Status

const (
	// StatusConverged means the inner solver met its convergence criterion.
	StatusConverged = solver.StatusConverged
	// StatusIterationLimit means the iteration budget ran out; the best
	// iterate is still returned and the condition is only a diagnostic.
	StatusIterationLimit = solver.StatusIterationLimit
)

// Config holds the hyperparameters of one graduated optimization call.
// Start from DefaultConfig and override fields; a zero MaxIterations is
// honored as a genuinely empty budget, not replaced by the default.
type Config struct {
	// Epsilon is the residual tolerance defining the inlier tube. Required, > 0.
	Epsilon float64
	// Lambda1 is the L1 regularization strength, >= 0. A positive value
	// routes the inner solves through the orthant-wise solver.
	Lambda1 float64
	// Lambda2 is the L2 regularization strength, >= 0.
	Lambda2 float64
	// Beta0 is the initial smoothness. 0 starts at the nearly convex surrogate.
	Beta0 float64
	// BetaMax is the final smoothness; it is divided by Epsilon^2 internally.
	BetaMax float64
	// MaxApprox bounds the multiplicative approximation ratio per annealing
	// step; must be > 1.
	MaxApprox float64
	// MinBetaStep is the minimum fractional beta step, guarding the
	// schedule against stalling. Zero means 0.0005.
	MinBetaStep float64
	// MaxIterations is the inner-solver budget per annealing step. The
	// final refinement pass gets four times this.
	MaxIterations int
	// Debug, when non-nil, receives one human-readable line per outer
	// iteration: beta, matching epsilon, exact loss, smoothed loss.
	Debug io.Writer
	// Warn receives recoverable diagnostics (exhausted inner budgets).
	// Nil means the standard logger.
	Warn func(format string, args ...any)
	// Minimizer overrides the inner solver selection.
	Minimizer Minimizer
}

// DefaultConfig returns the recommended hyperparameters. Epsilon has no
// sensible universal default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		BetaMax:       20,
		MaxApprox:     1.15,
		MaxIterations: 200,
	}
}

// GraduatedOptimisation fits a robust sparse linear model by graduated
// optimization: it minimizes a sequence of sigmoid-smoothed relaxations of
// the truncated-residual loss, sharpening the smoothness parameter beta
// under an approximation-ratio bound until it saturates, then runs one
// final high-budget refinement at the sharpest relaxation.
//
// alpha0 is the initial coefficient vector (length = columns of X, an
// intercept column in X being the caller's convention) and is never
// mutated. X and Y are read-only for the duration of the call; the call
// keeps no state, so independent calls may run concurrently.
//
// Recoverable conditions (inner iteration budgets running out) surface
// through cfg.Warn and never change the returned vector's type or length.
func GraduatedOptimisation(alpha0 []float64, X *mat.Dense, Y []float64, cfg Config) ([]float64, error) {
	p, err := newProblem(X, Y, cfg.Epsilon, cfg.Lambda1, cfg.Lambda2)
	if err != nil {
		return nil, err
	}
	_, d := X.Dims()
	if len(alpha0) != d {
		return nil, fmt.Errorf("%w: alpha0 has length %d but X has %d columns",
			ErrInvalidParameter, len(alpha0), d)
	}
	if cfg.MaxApprox != 0 && cfg.MaxApprox <= 1 {
		return nil, fmt.Errorf("%w: max approximation ratio must be > 1, got %g",
			ErrInvalidParameter, cfg.MaxApprox)
	}

	return anneal.Run(p, alpha0, anneal.Config{
		Beta0:         cfg.Beta0,
		BetaMax:       cfg.BetaMax,
		MaxApprox:     cfg.MaxApprox,
		MinBetaStep:   cfg.MinBetaStep,
		MaxIterations: cfg.MaxIterations,
		Debug:         cfg.Debug,
		Warn:          cfg.Warn,
		Minimizer:     cfg.Minimizer,
	})
}

// RegularisedRegression fits a linear model with lasso (L1) and/or ridge
// (L2) regularization using the same solver stack, starting from the zero
// vector. It is a convenient warm start for GraduatedOptimisation.
func RegularisedRegression(X *mat.Dense, Y []float64, lambda1, lambda2 float64, maxIterations int) ([]float64, error) {
	if lambda1 < 0 {
		return nil, fmt.Errorf("%w: lambda1 must be >= 0, got %g", ErrInvalidParameter, lambda1)
	}
	if lambda2 < 0 {
		return nil, fmt.Errorf("%w: lambda2 must be >= 0, got %g", ErrInvalidParameter, lambda2)
	}
	n, d := X.Dims()
	if n != len(Y) {
		return nil, fmt.Errorf("%w: X has %d rows but Y has %d entries", ErrInvalidParameter, n, len(Y))
	}

	var obj loss.Objective
	if lambda2 > 0 {
		obj = loss.Ridge(X, Y, lambda2)
	} else {
		obj = loss.OLS(X, Y)
	}
	var m Minimizer
	if lambda1 > 0 {
		m = &solver.OWLQN{L1: lambda1}
	} else {
		m = &solver.LBFGS{}
	}

	res, err := m.Minimize(Objective(obj), make([]float64, d), maxIterations)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusIterationLimit {
		log.Printf("gradopt: regularised regression reached the iteration limit")
	}
	return res.X, nil
}

func newProblem(X *mat.Dense, Y []float64, epsilon, lambda1, lambda2 float64) (*loss.Problem, error) {
	p, err := loss.NewProblem(X, Y, epsilon, lambda1, lambda2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return p, nil
}
