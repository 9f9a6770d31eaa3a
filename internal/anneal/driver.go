package anneal

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/gradopt-ml/gradopt/internal/loss"
	"github.com/gradopt-ml/gradopt/internal/solver"
)

// Config carries the schedule hyperparameters and diagnostic hooks of one
// driver invocation. Zero scalar fields get the package defaults filled in,
// except MaxIterations, whose zero is honored as an empty budget.
type Config struct {
	// Beta0 is the initial smoothness. Zero starts from the nearly convex
	// surrogate.
	Beta0 float64
	// BetaMax is the final smoothness before scaling; the driver divides it
	// by epsilon^2. Zero means 20.
	BetaMax float64
	// MaxApprox is the multiplicative approximation-ratio bound per
	// annealing step; its log is the scheduler threshold. Zero means 1.15.
	MaxApprox float64
	// MinBetaStep is the minimum fractional beta step. Zero means 0.0005.
	MinBetaStep float64
	// MaxIterations is the inner-solver budget per annealing step; the
	// finalizing pass gets four times this. A non-positive budget makes the
	// whole run degenerate: the initial point comes straight back with an
	// iteration-limit diagnostic. Callers wanting the default pass 200.
	MaxIterations int
	// Debug, when non-nil, receives one diagnostic line per outer iteration.
	Debug io.Writer
	// Warn receives recoverable diagnostics such as exhausted inner
	// budgets. Nil means the standard logger.
	Warn func(format string, args ...any)
	// Minimizer overrides the inner solver. Nil picks orthant-wise OWLQN
	// when the problem carries an L1 term and gonum L-BFGS otherwise.
	Minimizer solver.Minimizer
}

func (c Config) withDefaults(p *loss.Problem) Config {
	if c.BetaMax == 0 {
		c.BetaMax = 20
	}
	if c.MaxApprox == 0 {
		c.MaxApprox = 1.15
	}
	if c.MinBetaStep == 0 {
		c.MinBetaStep = 0.0005
	}
	if c.Warn == nil {
		c.Warn = log.Printf
	}
	if c.Minimizer == nil {
		if p.Lambda1 > 0 {
			c.Minimizer = &solver.OWLQN{L1: p.Lambda1}
		} else {
			c.Minimizer = &solver.LBFGS{}
		}
	}
	return c
}

// Run drives the graduated optimization: Annealing (minimize at the current
// beta, recompute residuals, schedule the next beta) until beta saturates at
// betaMax, then one Finalizing pass at betaMax with a 4x iteration budget,
// since that pass approximates the exact objective most closely.
//
// alpha0 is never mutated; the returned vector has the same length.
// Exhausted inner budgets surface through cfg.Warn and do not abort the
// schedule. All other solver and root-finding failures abort with an error.
func Run(p *loss.Problem, alpha0 []float64, cfg Config) ([]float64, error) {
	cfg = cfg.withDefaults(p)

	if cfg.MaxIterations <= 0 {
		cfg.Warn("gradopt: inner optimisation budget is zero, returning the initial point")
		return append([]float64(nil), alpha0...), nil
	}

	eps2 := p.Epsilon * p.Epsilon
	betaMax := cfg.BetaMax / eps2
	logMaxApprox := math.Log(cfg.MaxApprox)

	alpha := append([]float64(nil), alpha0...)
	beta := cfg.Beta0

	for beta < betaMax {
		var err error
		alpha, err = minimizeAt(p, cfg, alpha, beta, cfg.MaxIterations)
		if err != nil {
			return nil, err
		}
		r2 := p.Residuals2(alpha)
		debugLine(cfg.Debug, p, alpha, r2, eps2, beta)
		beta, err = NextBeta(r2, eps2, beta, betaMax, logMaxApprox, cfg.MinBetaStep)
		if err != nil {
			return nil, err
		}
	}

	// Finalizing pass at the saturated beta.
	alpha, err := minimizeAt(p, cfg, alpha, beta, 4*cfg.MaxIterations)
	if err != nil {
		return nil, err
	}
	debugLine(cfg.Debug, p, alpha, p.Residuals2(alpha), eps2, beta)
	return alpha, nil
}

func minimizeAt(p *loss.Problem, cfg Config, alpha []float64, beta float64, maxIter int) ([]float64, error) {
	obj := func(x, grad []float64) float64 {
		return p.SmoothValueGrad(x, beta, grad)
	}
	res, err := cfg.Minimizer.Minimize(obj, alpha, maxIter)
	if err != nil {
		return nil, err
	}
	if res.Status == solver.StatusIterationLimit {
		cfg.Warn("gradopt: inner optimisation reached the iteration limit (beta=%.4g)", beta)
	}
	return res.X, nil
}

func debugLine(w io.Writer, p *loss.Problem, alpha, residuals2 []float64, eps2, beta float64) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "beta: %5.3f    epsilon*: %.3f    Loss: %6.2f    B-Loss: %6.2f\n",
		beta*eps2,
		loss.MatchingEpsilon(residuals2, eps2, beta),
		p.Exact(alpha),
		p.SmoothFromResiduals2(alpha, residuals2, beta))
}
