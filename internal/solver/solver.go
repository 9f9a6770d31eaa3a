// Package solver provides the limited-memory quasi-Newton minimizers used by
// the graduated optimization driver.
//
// Two implementations sit behind the Minimizer capability: OWLQN, an
// orthant-wise L-BFGS with native L1 support, and LBFGS, which delegates the
// smooth (no-L1) path to gonum's optimizer. Exhausting the iteration budget
// is not a failure: the best iterate reached is returned with
// StatusIterationLimit so the caller can surface a diagnostic and carry on.
package solver

import "errors"

// Objective is a fused value/gradient function: it writes the gradient of
// the smooth part at x into grad (len(grad) == len(x)) and returns the value.
// The L1 term, when present, belongs to the minimizer, not the objective.
type Objective func(x, grad []float64) float64

// Status reports how a minimization ended.
type Status int

const (
	// StatusConverged means the solver met its internal convergence
	// criterion within the iteration budget.
	StatusConverged Status = iota
	// StatusIterationLimit means the budget ran out first. The returned
	// point is still the best iterate found; recoverable by design.
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusIterationLimit:
		return "iteration limit"
	}
	return "unknown"
}

// Result is the outcome of one minimization.
type Result struct {
	X          []float64 // best iterate
	F          float64   // objective value at X (including any L1 term)
	Status     Status
	Iterations int
}

// Minimizer is the quasi-Newton capability the driver depends on. Any
// implementation that honors the Result contract can be substituted.
type Minimizer interface {
	// Minimize runs at most maxIter iterations from x0. A non-positive
	// maxIter returns x0 immediately with StatusIterationLimit. The input
	// slice is never mutated.
	Minimize(obj Objective, x0 []float64, maxIter int) (Result, error)
}

// ErrLineSearch is returned when a line search cannot find an acceptable
// step. Unlike the iteration limit this is a genuine failure and propagates.
var ErrLineSearch = errors.New("solver: line search failed to find a descent step")

func clone(x []float64) []float64 {
	return append([]float64(nil), x...)
}
