package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// quadratic returns f(x) = 0.5*|x-b|^2 with its gradient.
func quadratic(b []float64) Objective {
	return func(x, grad []float64) float64 {
		var f float64
		for i := range x {
			d := x[i] - b[i]
			grad[i] = d
			f += 0.5 * d * d
		}
		return f
	}
}

// illConditioned returns f(x) = 0.5*sum(scale_i*(x_i-b_i)^2).
func illConditioned(b, scale []float64) Objective {
	return func(x, grad []float64) float64 {
		var f float64
		for i := range x {
			d := x[i] - b[i]
			grad[i] = scale[i] * d
			f += 0.5 * scale[i] * d * d
		}
		return f
	}
}

func TestOWLQNQuadratic(t *testing.T) {
	b := []float64{3, -1, 0.5}
	res, err := (&OWLQN{}).Minimize(quadratic(b), make([]float64, 3), 100)
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	for i := range b {
		assert.InDelta(t, b[i], res.X[i], 1e-4)
	}
}

func TestOWLQNIllConditioned(t *testing.T) {
	b := []float64{1, 2, -3, 4}
	scale := []float64{100, 1, 0.5, 10}
	res, err := (&OWLQN{}).Minimize(illConditioned(b, scale), make([]float64, 4), 200)
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	for i := range b {
		assert.InDelta(t, b[i], res.X[i], 1e-3)
	}
}

// With an L1 term the minimizer of 0.5*|x-b|^2 + c*|x|_1 is the
// soft-threshold of b, so small components must land exactly at zero.
func TestOWLQNSoftThreshold(t *testing.T) {
	b := []float64{3, 0.5, -2}
	res, err := (&OWLQN{L1: 1}).Minimize(quadratic(b), make([]float64, 3), 200)
	require.NoError(t, err)

	assert.InDelta(t, 2, res.X[0], 1e-3)
	assert.InDelta(t, 0, res.X[1], 1e-8, "sub-threshold coefficient must be sparse")
	assert.InDelta(t, -1, res.X[2], 1e-3)
}

func TestOWLQNObjectiveNeverIncreases(t *testing.T) {
	b := []float64{5, -4, 3, -2, 1}
	obj := quadratic(b)
	x0 := []float64{-1, 2, -3, 4, -5}

	g := make([]float64, len(x0))
	f0 := obj(x0, g) + 0.7*floats.Norm(x0, 1)

	res, err := (&OWLQN{L1: 0.7}).Minimize(obj, x0, 150)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.F, f0)
	// Input slice untouched.
	assert.Equal(t, []float64{-1, 2, -3, 4, -5}, x0)
}

func TestOWLQNZeroBudget(t *testing.T) {
	x0 := []float64{1, 2}
	res, err := (&OWLQN{L1: 0.5}).Minimize(quadratic([]float64{9, 9}), x0, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusIterationLimit, res.Status)
	assert.Equal(t, x0, res.X)
	assert.Equal(t, 0, res.Iterations)
}

func TestOWLQNBudgetExhausted(t *testing.T) {
	b := []float64{1, 2, -3, 4}
	scale := []float64{1000, 1, 0.1, 10}
	res, err := (&OWLQN{}).Minimize(illConditioned(b, scale), make([]float64, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, StatusIterationLimit, res.Status)
	assert.Len(t, res.X, 4)
	for _, v := range res.X {
		assert.False(t, math.IsNaN(v))
	}
}

func TestOWLQNNegativeL1(t *testing.T) {
	_, err := (&OWLQN{L1: -0.1}).Minimize(quadratic([]float64{1}), []float64{0}, 10)
	assert.Error(t, err)
}

func TestOWLQNStartAtMinimum(t *testing.T) {
	b := []float64{1, 2}
	res, err := (&OWLQN{}).Minimize(quadratic(b), []float64{1, 2}, 50)
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.InDelta(t, 0, res.F, 1e-12)
}

func TestLBFGSQuadratic(t *testing.T) {
	b := []float64{2, -7, 0.25}
	res, err := (&LBFGS{}).Minimize(quadratic(b), make([]float64, 3), 100)
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	for i := range b {
		assert.InDelta(t, b[i], res.X[i], 1e-4)
	}
}

func TestLBFGSZeroBudget(t *testing.T) {
	x0 := []float64{3, 4}
	res, err := (&LBFGS{}).Minimize(quadratic([]float64{0, 0}), x0, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusIterationLimit, res.Status)
	assert.Equal(t, x0, res.X)
}

func TestLBFGSIterationLimitRecoverable(t *testing.T) {
	b := []float64{1, 2, -3, 4, 5, -6}
	scale := []float64{1e4, 1, 1e-2, 10, 1e3, 0.1}
	res, err := (&LBFGS{}).Minimize(illConditioned(b, scale), make([]float64, 6), 1)
	require.NoError(t, err, "budget exhaustion must not be an error")
	assert.Equal(t, StatusIterationLimit, res.Status)
	assert.Len(t, res.X, 6)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "converged", StatusConverged.String())
	assert.Equal(t, "iteration limit", StatusIterationLimit.String())
	assert.Equal(t, "unknown", Status(99).String())
}
