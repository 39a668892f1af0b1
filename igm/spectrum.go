package igm

import (
	"math"

	"gonum.org/v1/gonum/integrate"
)

// IntegratedTransmission integrates e^-tau through the CGM transmission
// curve and a normalized intrinsic emission profile j over the emitted
// wavelength grid. This is the scalar "transmission" observable of the
// analysis.
func IntegratedTransmission(tau, cgm, j, wave []float64) float64 {
	norm := integrate.Trapezoidal(wave, j)
	y := make([]float64, len(wave))
	for i := range y {
		y[i] = math.Exp(-tau[i]) * cgm[i] * j[i] / norm
	}
	return integrate.Trapezoidal(wave, y)
}

// SpectralBins maps the emitted wavelength grid onto resolution-matched
// observed-frame bins (R = 2700 at observed Lyman-alpha).
type SpectralBins struct {
	// Edges are the left edges of the observed-frame bins in Angstrom.
	Edges []float64
	// Res is the bin width in Angstrom.
	Res float64

	obsWave []float64
	lo, hi  []int // half-open sample range per bin
}

// NewSpectralBins builds the binning for a source at redshift z over the
// emitted wavelength grid wave.
func NewSpectralBins(wave []float64, z float64) *SpectralBins {
	res := WaveLya * (1 + z) / 2700
	obs := make([]float64, len(wave))
	for i, wv := range wave {
		obs[i] = wv * (1 + z)
	}

	b := &SpectralBins{Res: res, obsWave: obs}
	for e := obs[0]; e < obs[len(obs)-1]; e += res {
		b.Edges = append(b.Edges, e)
	}

	b.lo = make([]int, len(b.Edges))
	b.hi = make([]int, len(b.Edges))
	s := 0
	for i, e := range b.Edges {
		for s < len(obs) && obs[s] < e {
			s++
		}
		b.lo[i] = s
		end := e + res
		t := s
		for t < len(obs) && obs[t] < end {
			t++
		}
		b.hi[i] = t
		s = t
	}
	// The last bin also collects samples at or beyond its right edge, so
	// that the grid's final point is not dropped.
	b.hi[len(b.hi)-1] = len(obs)
	return b
}

// N returns the number of bins.
func (b *SpectralBins) N() int { return len(b.Edges) }

// Bin integrates the per-wavelength flux density vals into each observed
// bin with the trapezoid rule. Bins covering fewer than two grid samples
// integrate to zero.
func (b *SpectralBins) Bin(vals []float64) []float64 {
	out := make([]float64, b.N())
	for i := range out {
		lo, hi := b.lo[i], b.hi[i]
		if hi-lo < 2 {
			continue
		}
		out[i] = integrate.Trapezoidal(b.obsWave[lo:hi], vals[lo:hi])
	}
	return out
}
