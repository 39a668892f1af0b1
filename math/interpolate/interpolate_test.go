package interpolate

import (
	"math"
	"testing"
)

func TestLinearExactAtKnots(t *testing.T) {
	xs := []float64{0, 1, 3, 7}
	vals := []float64{2, 4, -1, 0}
	lin := NewLinear(xs, vals)
	for i := range xs {
		if got := lin.Eval(xs[i]); got != vals[i] {
			t.Errorf("%d) Eval(%g) = %g, want %g", i+1, xs[i], got, vals[i])
		}
	}
}

func TestLinearMidpoints(t *testing.T) {
	table := []struct {
		x, want float64
	}{
		{0.5, 3},
		{2, 1.5},
		{5, -0.5},
	}
	lin := NewLinear([]float64{0, 1, 3, 7}, []float64{2, 4, -1, 0})
	for i, test := range table {
		got := lin.Eval(test.x)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%d) Eval(%g) = %g, want %g", i+1, test.x, got, test.want)
		}
	}
}

func TestLinearDecreasingXs(t *testing.T) {
	lin := NewLinear([]float64{7, 3, 1, 0}, []float64{0, -1, 4, 2})
	if got := lin.Eval(2); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("Eval(2) on decreasing xs = %g, want 1.5", got)
	}
}

func TestLinearOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected out-of-range Eval to panic")
		}
	}()
	NewLinear([]float64{0, 1}, []float64{0, 1}).Eval(2)
}
