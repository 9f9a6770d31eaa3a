package solver

import (
	"gonum.org/v1/gonum/optimize"
)

// LBFGS delegates smooth minimization to gonum's L-BFGS with its standard
// line search. It covers the no-L1 path; the orthant-wise OWLQN takes over
// whenever an L1 term is present.
type LBFGS struct {
	// GradientTolerance is gonum's gradient threshold. Zero means 1e-6.
	GradientTolerance float64
}

// Minimize implements the Minimizer capability. Iteration-limit statuses
// from gonum map to the recoverable StatusIterationLimit; genuine solver
// failures propagate unmodified.
func (l *LBFGS) Minimize(obj Objective, x0 []float64, maxIter int) (Result, error) {
	if maxIter <= 0 {
		g := make([]float64, len(x0))
		x := clone(x0)
		return Result{X: x, F: obj(x, g), Status: StatusIterationLimit}, nil
	}

	gradTol := l.GradientTolerance
	if gradTol <= 0 {
		gradTol = 1e-6
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			g := make([]float64, len(x))
			return obj(x, g)
		},
		Grad: func(grad, x []float64) {
			obj(x, grad)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: gradTol,
	}

	res, err := optimize.Minimize(problem, clone(x0), settings, &optimize.LBFGS{})
	if res == nil {
		return Result{}, err
	}

	out := Result{X: res.X, F: res.F, Iterations: res.Stats.MajorIterations}
	switch res.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit:
		out.Status = StatusIterationLimit
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.Status = StatusConverged
	return out, nil
}
