package igm

import (
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// MeanNeutralFraction is the mean global neutral fraction at redshift z
// from a tanh reionization history, normalized so that z = 7.5 sits at
// xH = 0.65, the fiducial value of the analysis.
func MeanNeutralFraction(z float64) float64 {
	return 0.5 * (1 + math.Tanh((z-7.0)/1.6))
}

// DrawNeutralFraction draws a global neutral fraction at redshift z,
// scattering around the mean history with the uncertainty of current
// reionization constraints. Used when a run propagates neutral-fraction
// uncertainty into the likelihood instead of pinning xH.
func DrawNeutralFraction(z float64, src exprand.Source) float64 {
	n := distuv.Normal{Mu: MeanNeutralFraction(z), Sigma: 0.05, Src: src}
	xH := n.Rand()
	if xH < 0.01 {
		xH = 0.01
	}
	if xH > 0.99 {
		xH = 0.99
	}
	return xH
}
