/*package like turns Monte Carlo forward-model draws into a likelihood
surface over candidate bubble configurations. It contains the Gaussian
kernel density estimator used to smooth empirical draw distributions, the
per-galaxy forward model that produces those draws, and the parallel grid
sampler that maps both over a 4-D grid of bubble centers and radii.*/
package like

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateKDE reports an empirical distribution too narrow to smooth:
// fewer than two samples, or zero variance. Callers treat it as zero
// probability for the candidate under test, not as a failed run.
var ErrDegenerateKDE = errors.New(
	"cannot estimate a density from a degenerate sample")

// KDE is a 1-D Gaussian kernel density estimate with a Scott's-rule
// bandwidth.
type KDE struct {
	samples []float64
	h       float64
}

// NewKDE fits a density estimate to samples. The samples slice is
// retained, not copied.
func NewKDE(samples []float64) (*KDE, error) {
	n := len(samples)
	if n < 2 {
		return nil, ErrDegenerateKDE
	}
	sd := stat.StdDev(samples, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return nil, ErrDegenerateKDE
	}
	h := sd * math.Pow(float64(n), -0.2)
	return &KDE{samples: samples, h: h}, nil
}

// Eval returns the estimated density at x.
func (k *KDE) Eval(x float64) float64 {
	kern := distuv.Normal{Mu: 0, Sigma: k.h}
	sum := 0.0
	for _, s := range k.samples {
		sum += kern.Prob(x - s)
	}
	return sum / float64(len(k.samples))
}

// IntegrateBox returns the probability mass the estimate assigns to
// [lo, hi].
func (k *KDE) IntegrateBox(lo, hi float64) float64 {
	kern := distuv.Normal{Mu: 0, Sigma: k.h}
	sum := 0.0
	for _, s := range k.samples {
		sum += kern.CDF(hi-s) - kern.CDF(lo-s)
	}
	return sum / float64(len(k.samples))
}
