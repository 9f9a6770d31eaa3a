// Package rootfind implements bounded scalar root finding.
//
// Both the approximation-ratio calculator and the beta scheduler need to
// invert monotone-ish scalar functions over a known bracket, so the solver
// lives here exactly once. The bracket must straddle zero: a bracket without
// a sign change is a caller bug (or a numerical degeneracy upstream) and is
// reported as an error rather than approximated.
package rootfind

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoBracket is returned when f(lower) and f(upper) do not straddle zero.
var ErrNoBracket = errors.New("rootfind: bracket has no sign change")

// maxIter bounds the Brent iteration. Brent converges superlinearly and
// falls back to bisection, so 100 iterations is far beyond what any
// well-formed bracket needs.
const maxIter = 100

// Brent finds a root of f in [lower, upper] using Brent's method
// (bisection combined with secant and inverse quadratic interpolation).
//
// The returned root x satisfies |f(x)| small or the bracket around x being
// narrower than tol plus float64 spacing. Endpoints that are already roots
// are returned immediately.
func Brent(f func(float64) float64, lower, upper, tol float64) (float64, error) {
	a, b := lower, upper
	fa, fb := f(a), f(b)

	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNoBracket, a, fa, b, fb)
	}

	c, fc := a, fa
	d := b - a
	e := d

	for iterCount := 0; iterCount < maxIter; iterCount++ {
		if (fb > 0) == (fc > 0) {
			// Rename so that b and c straddle the root.
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*math.Nextafter(math.Abs(b), math.Inf(1)) - 2*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt interpolation.
			s := fb / fa
			var p, q float64
			if a == c {
				// Secant step.
				p = 2 * xm * s
				q = 1 - s
			} else {
				// Inverse quadratic step.
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				// Interpolation accepted.
				e = d
				d = p / q
			} else {
				// Interpolation too wild, bisect.
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	// Bounded iteration exhausted; b is the best bracketed estimate.
	return b, nil
}
