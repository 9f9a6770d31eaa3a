package gradopt

import (
	"errors"

	"github.com/gradopt-ml/gradopt/internal/rootfind"
)

// Sentinel errors for the gradopt package.
// Use errors.Is to check: errors.Is(err, gradopt.ErrInvalidParameter)
var (
	// ErrInvalidParameter marks hyperparameters that fail validation
	// (negative lambda1, non-positive epsilon, dimension mismatches).
	ErrInvalidParameter = errors.New("gradopt: invalid parameter")

	// ErrNoBracket is the numerical-degeneracy failure from bounded root
	// finding: a bracket whose endpoints do not straddle zero. The
	// schedule's derivative-sign preconditions make it unreachable in a
	// well-posed solve; if it surfaces anyway it is a genuine failure and
	// is never approximated away.
	ErrNoBracket = rootfind.ErrNoBracket
)
