/*package interpolate provides the piecewise-linear interpolation used for
tabulated curves: the empirical bubble size distribution, the CGM
transmission tables, and the inverse-CDF lookups in the samplers.*/
package interpolate

import (
	"fmt"
)

// Linear interpolates linearly between a sequence of strictly monotonic
// points xs with values vals.
type Linear struct {
	xs   searcher
	vals []float64
}

// NewLinear creates a linear interpolator over the strictly increasing or
// strictly decreasing points xs with values vals.
//
// Panics if the slice lengths differ: that is a programmer error, not a
// data error.
func NewLinear(xs, vals []float64) *Linear {
	if len(xs) != len(vals) {
		panic("Length of input slices are not equal.")
	}
	lin := &Linear{}
	lin.xs.init(xs)
	lin.vals = vals
	return lin
}

// Eval returns the interpolated value at x.
//
// Eval panics if x is outside the supplied range.
func (lin *Linear) Eval(x float64) float64 {
	i1 := lin.xs.search(x)
	i2 := i1 + 1
	x1, x2 := lin.xs.val(i1), lin.xs.val(i2)
	v1, v2 := lin.vals[i1], lin.vals[i2]
	return ((v2-v1)/(x2-x1))*(x-x1) + v1
}

// EvalAll evaluates the interpolator at every x in xs. If an output slice
// is given the values are written there; it is returned either way.
func (lin *Linear) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i, x := range xs {
		out[0][i] = lin.Eval(x)
	}
	return out[0]
}

// searcher locates the bracketing interval for a lookup point, guessing
// uniform spacing first and falling back to binary search.
type searcher struct {
	xs         []float64
	x0, dx     float64
	lim        float64
	n          int
	incr       bool
}

func (s *searcher) init(xs []float64) {
	s.xs = xs
	s.x0 = xs[0]
	s.lim = xs[len(xs)-1]
	s.dx = (s.lim - s.x0) / float64(len(xs)-1)
	s.n = len(xs)
	s.incr = s.dx > 0
}

func (s *searcher) search(x float64) int {
	if s.incr && (x > s.lim || x < s.x0) ||
		!s.incr && (x < s.lim || x > s.x0) {
		panic(fmt.Sprintf(
			"Value %g out of range bounds [%g, %g]", x, s.x0, s.lim,
		))
	}

	// Guess under the assumption of uniform spacing.
	guess := int((x - s.x0) / s.dx)
	if guess >= 0 && guess < s.n-1 &&
		(s.xs[guess] <= x) == s.incr &&
		(s.xs[guess+1] >= x) == s.incr {
		return guess
	}

	lo, hi := 0, s.n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.incr == (x >= s.xs[mid]) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *searcher) val(i int) float64 {
	return s.xs[i]
}
