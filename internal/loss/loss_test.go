package loss

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomProblem(t *testing.T, rng *rand.Rand, n, d int, epsilon, lambda1, lambda2 float64) (*Problem, []float64) {
	t.Helper()
	data := make([]float64, n*d)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	X := mat.NewDense(n, d, data)
	Y := make([]float64, n)
	for i := range Y {
		Y[i] = rng.NormFloat64()
	}
	p, err := NewProblem(X, Y, epsilon, lambda1, lambda2)
	require.NoError(t, err)
	alpha := make([]float64, d)
	for i := range alpha {
		alpha[i] = rng.NormFloat64() * 0.5
	}
	return p, alpha
}

func TestNewProblemValidation(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	Y := []float64{1, 2}

	_, err := NewProblem(X, []float64{1}, 0.1, 0, 0)
	assert.Error(t, err, "row mismatch")

	_, err = NewProblem(X, Y, 0, 0, 0)
	assert.Error(t, err, "epsilon must be positive")

	_, err = NewProblem(X, Y, 0.1, -1, 0)
	assert.Error(t, err, "negative lambda1")

	_, err = NewProblem(X, Y, 0.1, 0, -1)
	assert.Error(t, err, "negative lambda2")

	_, err = NewProblem(X, Y, 0.1, 0, 0)
	assert.NoError(t, err)
}

// The analytic gradient must agree with central finite differences of the
// smoothed loss for random problems.
func TestSmoothGradientFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, tc := range []struct {
		n, d                   int
		epsilon, lambda2, beta float64
	}{
		{20, 3, 10, 0, 2},
		{30, 4, 0.5, 0, 3},
		{25, 3, 1, 0.1, 5},
		{40, 5, 2, 0.01, 0.5},
	} {
		p, alpha := randomProblem(t, rng, tc.n, tc.d, tc.epsilon, 0, tc.lambda2)
		grad := make([]float64, tc.d)
		p.SmoothValueGrad(alpha, tc.beta, grad)

		const h = 1e-6
		scratch := make([]float64, tc.d)
		for j := range alpha {
			orig := alpha[j]
			alpha[j] = orig + h
			fp := p.SmoothValueGrad(alpha, tc.beta, scratch)
			alpha[j] = orig - h
			fm := p.SmoothValueGrad(alpha, tc.beta, scratch)
			alpha[j] = orig
			fd := (fp - fm) / (2 * h)
			assert.InDelta(t, fd, grad[j], 1e-4,
				"n=%d d=%d eps=%g beta=%g coord=%d", tc.n, tc.d, tc.epsilon, tc.beta, j)
		}
	}
}

// Smoothed loss converges to the exact loss as beta grows, at fixed alpha.
func TestSmoothConvergesToExact(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p, alpha := randomProblem(t, rng, 50, 4, 0.8, 0.1, 0.05)

	exact := p.Exact(alpha)
	var gaps []float64
	for _, beta := range []float64{1, 10, 100, 1000, 1e5} {
		gaps = append(gaps, math.Abs(p.Smooth(alpha, beta)-exact))
	}
	assert.Less(t, gaps[len(gaps)-1], 1e-3, "smoothed loss must approach exact at large beta")
	assert.Less(t, gaps[len(gaps)-1], gaps[0], "sharpening must reduce the gap")
}

func TestExactLossHandComputed(t *testing.T) {
	// Two samples inside the tube, one outside. epsilon = 1, n = 3.
	X := mat.NewDense(3, 1, []float64{1, 1, 1})
	Y := []float64{0.5, -0.5, 10}
	p, err := NewProblem(X, Y, 1, 0, 0)
	require.NoError(t, err)

	alpha := []float64{0}
	// residuals: -0.5, 0.5, -10; squared: 0.25, 0.25, 100
	// inside: 0.25 and 0.25, each contributes d2 - eps2*n = 0.25 - 3
	want := (0.25 - 3 + 0.25 - 3) / 3
	assert.InDelta(t, want, p.Exact(alpha), 1e-12)
}

func TestSmoothIncludesRegularization(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	Y := []float64{0, 0}
	p, err := NewProblem(X, Y, 1, 0.5, 0.25)
	require.NoError(t, err)

	alpha := []float64{2, -2}
	base, err2 := NewProblem(X, Y, 1, 0, 0)
	require.NoError(t, err2)

	// L1: 0.5*4 = 2, L2: 0.25*8 = 2.
	assert.InDelta(t, base.Smooth(alpha, 10)+4, p.Smooth(alpha, 10), 1e-12)
	assert.InDelta(t, base.Exact(alpha)+4, p.Exact(alpha), 1e-12)
}

func TestResiduals2(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	Y := []float64{1, 2}
	p, err := NewProblem(X, Y, 1, 0, 0)
	require.NoError(t, err)

	r2 := p.Residuals2([]float64{1, 1})
	// predictions 3, 7; residuals 2, 5
	assert.InDelta(t, 4, r2[0], 1e-12)
	assert.InDelta(t, 25, r2[1], 1e-12)
}

func TestMatchingEpsilon(t *testing.T) {
	// With a sharp sigmoid the matched epsilon sits at the largest residual
	// still inside the tube.
	r2 := []float64{0.01, 0.04, 0.09, 25, 36}
	got := MatchingEpsilon(r2, 0.25, 1000)
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestSmoothFromResiduals2MatchesSmooth(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p, alpha := randomProblem(t, rng, 30, 3, 0.7, 0.2, 0.1)
	r2 := p.Residuals2(alpha)
	assert.InDelta(t, p.Smooth(alpha, 5), p.SmoothFromResiduals2(alpha, r2, 5), 1e-12)
}
