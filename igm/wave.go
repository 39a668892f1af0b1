/*package igm simulates Lyman-alpha transmission through a partially
ionized intergalactic medium. It contains the two halves of the forward
model's inner loop: a sampler that draws random bubble ensembles from an
empirical size distribution, and a sightline calculator that turns one
bubble ensemble into a wavelength-dependent damping-wing optical depth.*/
package igm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// The emitted-frame wavelength grid, in Angstrom, that every transmission
// curve in this project is sampled on.
const (
	WaveMin = 1213.0
	WaveMax = 1221.0
	NWave   = 100

	// WaveLya is the rest-frame Lyman-alpha wavelength.
	WaveLya = 1215.67

	// ZEndReionization is the redshift where the damping-wing integration
	// stops. Below it the IGM is taken to be fully ionized.
	ZEndReionization = 5.3
)

// cAngstrom is the speed of light in Angstrom/s.
const cAngstrom = 2.99792458e18

// freqLya is the Lyman-alpha frequency in Hz.
var freqLya = cAngstrom / WaveLya

// rAlpha is the dimensionless ratio of the Lyman-alpha decay rate to its
// angular frequency, Lambda / (4 pi nu_alpha). It sets the strength of the
// Lorentzian damping wing.
var rAlpha = 6.25e8 / (4 * math.Pi * freqLya)

// WaveGrid returns a fresh copy of the emitted wavelength grid.
func WaveGrid() []float64 {
	return floats.Span(make([]float64, NWave), WaveMin, WaveMax)
}

// ObservedRedshifts returns, for a source at redshift zs, the redshift at
// which each emitted wavelength in wave passes through Lyman-alpha
// resonance.
func ObservedRedshifts(wave []float64, zs float64) []float64 {
	zs1 := 1 + zs
	out := make([]float64, len(wave))
	for i, wv := range wave {
		out[i] = wv/1216.0*zs1 - 1
	}
	return out
}

// TauGP returns the Gunn-Peterson optical depth of a fully neutral medium
// at redshift zs.
func TauGP(zs float64) float64 {
	return 7.16e5 * math.Pow((1+zs)/10, 1.5)
}

// tauPrefactor is the scale of one analytic damping-wing segment,
// tau_GP * R_alpha / pi.
func tauPrefactor(zs float64) float64 {
	return TauGP(zs) * rAlpha / math.Pi
}

// DampingWingI evaluates the Miralda-Escude damping-wing integral
//
//	I(x) = x^(9/2)/(1-x) + 9/7 x^(7/2) + 9/5 x^(5/2) + 3 x^(3/2)
//	       + 9 x^(1/2) - 9/2 ln((1+sqrt(x))/(1-sqrt(x)))
//
// for 0 <= x < 1. The optical depth of a neutral segment is proportional to
// the difference of I at the segment's two frequency ratios.
func DampingWingI(x float64) float64 {
	if x <= 0 {
		return 0
	}
	s := math.Sqrt(x)
	return math.Pow(x, 4.5)/(1-x) +
		9.0/7.0*math.Pow(x, 3.5) +
		9.0/5.0*math.Pow(x, 2.5) +
		3*math.Pow(x, 1.5) +
		9*s -
		4.5*math.Log((1+s)/(1-s))
}

// segmentTau accumulates into tau the damping-wing optical depth of one
// neutral segment spanning redshifts [zEnd, zBegin] (zBegin on the source
// side), for a sightline toward a source at redshift zs with mean neutral
// fraction xD inside the segment. zObs holds the per-wavelength resonance
// redshifts and pref the tau_GP R_alpha / pi prefactor.
//
// A frequency ratio at or above 1 means the photon redshifts through
// resonance inside the segment; the segment is then opaque at that
// wavelength.
func segmentTau(tau, zObs []float64, pref, xD, zBegin, zEnd float64) {
	zb1 := 1 + zBegin
	ze1 := 1 + zEnd
	for i, z := range zObs {
		x1 := zb1 / (1 + z)
		x2 := ze1 / (1 + z)
		if x1 >= 1 {
			tau[i] = math.Inf(1)
			continue
		}
		tau[i] += pref * xD * math.Pow(x1, 1.5) *
			(DampingWingI(x1) - DampingWingI(x2))
	}
}
