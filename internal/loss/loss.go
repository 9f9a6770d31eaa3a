// Package loss implements the truncated robust regression loss, its
// sigmoid-smoothed relaxation, and the analytic gradient of the relaxation.
//
// For a linear model alpha, residual r_i = (X·alpha)_i - Y_i and a tolerance
// epsilon, the exact loss counts only samples inside the epsilon tube:
//
//	exact = (1/n) * sum_{r_i^2 < eps^2} (r_i^2 - eps^2*n) + reg(alpha)
//
// which is discontinuous in alpha. The smoothed relaxation replaces the hard
// membership test with a sigmoid weight steered by beta:
//
//	w_i = sigmoid(beta*(eps^2 - r_i^2))
//	t_i = min(0, r_i^2 - eps^2*n)
//	smooth = (1/n) * sum w_i*t_i + reg(alpha)
//
// As beta grows the relaxation converges pointwise to the exact loss.
// The gradient of the relaxation is closed-form and is returned fused with
// the value so the quasi-Newton solver pays for one pass per evaluation.
package loss

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gradopt-ml/gradopt/internal/numerics"
	"github.com/gradopt-ml/gradopt/internal/parallel"
)

// Problem bundles the data and hyperparameters of one robust regression
// solve. X and Y are treated as immutable snapshots for the lifetime of the
// Problem; all methods are safe for concurrent use from independent solves.
type Problem struct {
	X       *mat.Dense
	Y       []float64
	Epsilon float64 // residual tolerance, > 0; used squared internally
	Lambda1 float64 // L1 strength, >= 0; owned by the orthant-wise solver
	Lambda2 float64 // L2 strength, >= 0; folded into the smooth objective

	par parallel.Config
}

// NewProblem validates dimensions and hyperparameters.
func NewProblem(X *mat.Dense, Y []float64, epsilon, lambda1, lambda2 float64) (*Problem, error) {
	n, _ := X.Dims()
	if n != len(Y) {
		return nil, fmt.Errorf("loss: X has %d rows but Y has %d entries", n, len(Y))
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("loss: epsilon must be > 0, got %g", epsilon)
	}
	if lambda1 < 0 {
		return nil, fmt.Errorf("loss: lambda1 must be >= 0, got %g", lambda1)
	}
	if lambda2 < 0 {
		return nil, fmt.Errorf("loss: lambda2 must be >= 0, got %g", lambda2)
	}
	return &Problem{
		X:       X,
		Y:       Y,
		Epsilon: epsilon,
		Lambda1: lambda1,
		Lambda2: lambda2,
		par:     parallel.DefaultConfig(),
	}, nil
}

// Dims returns the sample and feature counts.
func (p *Problem) Dims() (n, d int) {
	return p.X.Dims()
}

// Residuals2 computes the squared residuals ((X·alpha)_i - Y_i)^2.
// The driver recomputes these after every inner solve to feed the scheduler.
func (p *Problem) Residuals2(alpha []float64) []float64 {
	r := p.residuals(alpha)
	for i, v := range r {
		r[i] = v * v
	}
	return r
}

func (p *Problem) residuals(alpha []float64) []float64 {
	n, _ := p.X.Dims()
	r := make([]float64, n)
	parallel.For(n, func(i int) {
		r[i] = floats.Dot(p.X.RawRowView(i), alpha) - p.Y[i]
	}, p.par)
	return r
}

// SmoothValueGrad evaluates the smoothed loss and writes its gradient into
// grad, which must have length equal to the feature count. The L2 term is
// included; the L1 term is deliberately absent because the orthant-wise
// solver handles it without smoothing.
//
// Samples whose truncated term is zero contribute nothing to the gradient:
// both the w_i*dt_i and the dw_i*t_i product-rule factors vanish there.
func (p *Problem) SmoothValueGrad(alpha []float64, beta float64, grad []float64) float64 {
	n, d := p.X.Dims()
	if len(grad) != d {
		panic("loss: gradient buffer has wrong length")
	}
	nf := float64(n)
	eps2 := p.Epsilon * p.Epsilon

	r := p.residuals(alpha)
	// Per-sample loss terms and gradient scales, reduced sequentially below
	// so the result is independent of the worker count.
	term := make([]float64, n)
	gscale := make([]float64, n)
	k1 := 2 / nf
	k2 := -2 * beta / nf
	parallel.For(n, func(i int) {
		d2 := r[i] * r[i]
		w := numerics.Sigmoid(beta * (eps2 - d2))
		t := math.Min(0, d2-eps2*nf)
		term[i] = w * t
		if t == 0 {
			gscale[i] = 0
			return
		}
		gscale[i] = (w*k1 + t*k2*w*(1-w)) * r[i]
	}, p.par)

	var l float64
	for _, v := range term {
		l += v
	}
	l /= nf

	// grad = X^T · gscale
	gv := mat.NewVecDense(d, grad)
	gv.MulVec(p.X.T(), mat.NewVecDense(n, gscale))

	if p.Lambda2 > 0 {
		l += p.Lambda2 * floats.Dot(alpha, alpha)
		floats.AddScaled(grad, 2*p.Lambda2, alpha)
	}
	return l
}

// Smooth evaluates the full smoothed loss including both regularization
// terms. This is the reporting form; the solver objective comes from
// SmoothValueGrad.
func (p *Problem) Smooth(alpha []float64, beta float64) float64 {
	return p.SmoothFromResiduals2(alpha, p.Residuals2(alpha), beta)
}

// SmoothFromResiduals2 is Smooth over precomputed squared residuals, the
// driver's fast path between inner solves.
func (p *Problem) SmoothFromResiduals2(alpha, residuals2 []float64, beta float64) float64 {
	nf := float64(len(residuals2))
	eps2 := p.Epsilon * p.Epsilon
	var l float64
	for _, d2 := range residuals2 {
		w := numerics.Sigmoid(beta * (eps2 - d2))
		l += w * math.Min(0, d2-eps2*nf)
	}
	l /= nf
	return l + p.regularization(alpha)
}

// Exact evaluates the hard-threshold loss. It is non-differentiable and is
// used only for diagnostics and final evaluation, never inside the solver.
func (p *Problem) Exact(alpha []float64) float64 {
	nf := float64(len(p.Y))
	eps2 := p.Epsilon * p.Epsilon
	var l float64
	for _, r := range p.residuals(alpha) {
		if d2 := r * r; d2 < eps2 {
			l += d2 - eps2*nf
		}
	}
	l /= nf
	return l + p.regularization(alpha)
}

func (p *Problem) regularization(alpha []float64) float64 {
	var reg float64
	if p.Lambda1 > 0 {
		reg += p.Lambda1 * floats.Norm(alpha, 1)
	}
	if p.Lambda2 > 0 {
		reg += p.Lambda2 * floats.Dot(alpha, alpha)
	}
	return reg
}

// MatchingEpsilon estimates the tolerance that best matches the exact loss
// at the given smoothness: the residual that maximizes rank*weight over the
// sorted squared residuals. Debug-trace only.
func MatchingEpsilon(residuals2 []float64, eps2, beta float64) float64 {
	sorted := append([]float64(nil), residuals2...)
	sort.Float64s(sorted)
	best, bestScore := 0, math.Inf(-1)
	for i, d2 := range sorted {
		score := float64(i) * numerics.Sigmoid(beta*(eps2-d2))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return math.Sqrt(sorted[best])
}
