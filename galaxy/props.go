package galaxy

import (
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

// The galaxy-property collaborators. The likelihood engine only depends on
// these interfaces; the concrete models below are defaults calibrated to
// z ~ 7-8 observations and can be swapped out wholesale.

// MuvSampler draws absolute UV magnitudes from a luminosity function.
type MuvSampler interface {
	Sample(gen *rand.Generator, n int) []float64
}

// CGMModel returns the circumgalactic transmission curve of a galaxy over
// the emitted wavelength grid. It depends on the UV magnitude only.
type CGMModel interface {
	Transmission(muv float64, wave []float64) []float64
}

// EmissionSampler draws realizations of a galaxy's intrinsic Lyman-alpha
// emission profile over the emitted wavelength grid. The profiles carry an
// arbitrary normalization; consumers divide by the profile's own integral.
type EmissionSampler interface {
	Profiles(muv float64, n int, src exprand.Source) [][]float64
}

// EWModel is the probabilistic equivalent-width / Lyman-alpha luminosity
// model. Draw returns one realization of the intrinsic rest-frame
// equivalent width and the matching line luminosity in erg/s; Mean returns
// their expectation values.
type EWModel interface {
	Draw(muv, beta float64, src exprand.Source) (ew, lum float64)
	Mean(muv, beta float64) (ew, lum float64)
}

// Collaborators bundles one implementation of each galaxy-property model.
type Collaborators struct {
	Muv      MuvSampler
	CGM      CGMModel
	Emission EmissionSampler
	EW       EWModel
}

// DefaultCollaborators returns the default property models at the given
// UV magnitude cut.
func DefaultCollaborators(muvCut float64) Collaborators {
	return Collaborators{
		Muv:      NewSchechterSampler(muvCut),
		CGM:      &SigmoidCGM{},
		Emission: &GaussianEmission{},
		EW:       &ExponentialEW{},
	}
}

///////////////////////
// UV magnitudes     //
///////////////////////

// SchechterSampler draws UV magnitudes from a Schechter luminosity
// function by inverse-CDF sampling down to a limiting magnitude.
type SchechterSampler struct {
	// MStar and Alpha are the Schechter parameters; the defaults are the
	// z ~ 7.5 UV luminosity function.
	MStar, Alpha float64
	// MuvCut is the faint-end survey limit.
	MuvCut float64

	grid []float64
	cdf  []float64
}

const (
	schechterBright = -24.0
	schechterN      = 2000
)

// NewSchechterSampler builds a sampler with the fiducial z ~ 7.5 Schechter
// parameters and the given faint-end cut.
func NewSchechterSampler(muvCut float64) *SchechterSampler {
	s := &SchechterSampler{MStar: -20.87, Alpha: -2.06, MuvCut: muvCut}
	s.build()
	return s
}

func (s *SchechterSampler) build() {
	s.grid = make([]float64, schechterN)
	s.cdf = make([]float64, schechterN)
	dm := (s.MuvCut - schechterBright) / float64(schechterN-1)
	phi := func(m float64) float64 {
		x := math.Pow(10, -0.4*(m-s.MStar))
		return math.Pow(x, s.Alpha+1) * math.Exp(-x)
	}
	for i := range s.grid {
		s.grid[i] = schechterBright + float64(i)*dm
	}
	for i := 1; i < schechterN; i++ {
		s.cdf[i] = s.cdf[i-1] +
			dm*(phi(s.grid[i])+phi(s.grid[i-1]))/2
	}
	norm := s.cdf[schechterN-1]
	for i := range s.cdf {
		s.cdf[i] /= norm
	}
}

// Sample draws n magnitudes brighter than MuvCut.
func (s *SchechterSampler) Sample(gen *rand.Generator, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		u := gen.Uniform(0, 1)
		lo, hi := 0, schechterN-1
		for hi-lo > 1 {
			mid := (lo + hi) / 2
			if s.cdf[mid] <= u {
				lo = mid
			} else {
				hi = mid
			}
		}
		c1, c2 := s.cdf[lo], s.cdf[hi]
		if c2 == c1 {
			out[i] = s.grid[lo]
			continue
		}
		out[i] = s.grid[lo] + (s.grid[hi]-s.grid[lo])*(u-c1)/(c2-c1)
	}
	return out
}

// FixedMuvSampler returns the same magnitude for every galaxy, for runs
// that switch off magnitude diversity.
type FixedMuvSampler struct {
	Muv float64
}

func (s *FixedMuvSampler) Sample(gen *rand.Generator, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Muv
	}
	return out
}

///////////////////////
// CGM transmission  //
///////////////////////

// SigmoidCGM is a smooth blue-side absorber: transmission rises from zero
// blueward of a velocity cutoff set by the galaxy's circular velocity to
// unity redward of it. Brighter galaxies sit in more massive halos and
// absorb further into the red wing.
type SigmoidCGM struct{}

// circularVelocity is a rough halo circular velocity in km/s for a galaxy
// of the given UV magnitude at z ~ 7.5.
func circularVelocity(muv float64) float64 {
	v := 150 - 12*(muv+20)
	if v < 50 {
		v = 50
	}
	return v
}

func (c *SigmoidCGM) Transmission(muv float64, wave []float64) []float64 {
	vCut := circularVelocity(muv)
	const vWidth = 30.0 // km/s

	out := make([]float64, len(wave))
	for i, wv := range wave {
		v := (wv/igm.WaveLya - 1) * 299792.458
		t := 0.5 * (1 + math.Tanh((v-vCut)/vWidth))
		out[i] = t
	}
	return out
}

///////////////////////
// Emission profiles //
///////////////////////

// GaussianEmission draws red-peaked Gaussian emission lines whose velocity
// offset scales with the galaxy's circular velocity and scatters from draw
// to draw.
type GaussianEmission struct {
	// MuvScatter, when positive, perturbs the magnitude before each draw
	// to propagate magnitude uncertainty into the profiles.
	MuvScatter float64
}

func (e *GaussianEmission) Profiles(
	muv float64, n int, src exprand.Source,
) [][]float64 {
	wave := igm.WaveGrid()
	offsetScatter := distuv.Normal{Mu: 0, Sigma: 60, Src: src}
	widthScatter := distuv.Normal{Mu: 0, Sigma: 20, Src: src}
	magScatter := distuv.Normal{Mu: 0, Sigma: e.MuvScatter, Src: src}

	out := make([][]float64, n)
	for k := range out {
		m := muv
		if e.MuvScatter > 0 {
			m += magScatter.Rand()
		}
		dv := 0.8*circularVelocity(m) + offsetScatter.Rand()
		sigma := 80 + math.Abs(widthScatter.Rand())

		j := make([]float64, len(wave))
		for i, wv := range wave {
			v := (wv/igm.WaveLya - 1) * 299792.458
			j[i] = math.Exp(-(v - dv) * (v - dv) / (2 * sigma * sigma))
		}
		out[k] = j
	}
	return out
}

///////////////////////
// EW / luminosity   //
///////////////////////

// ExponentialEW draws rest-frame equivalent widths from an exponential
// distribution whose scale falls with UV luminosity, and converts them to
// Lyman-alpha luminosities through the UV continuum.
type ExponentialEW struct{}

// ewScale is the mean rest-frame equivalent width in Angstrom for a galaxy
// of the given magnitude.
func ewScale(muv float64) float64 {
	return 31 + 12*math.Tanh(4*(muv+20.25))
}

// continuumLum is the UV continuum luminosity density at rest-frame
// Lyman-alpha, in erg/s/A, for magnitude muv and continuum slope beta.
func continuumLum(muv, beta float64) float64 {
	// Absolute magnitude to L_nu at 1500 A, then to L_lambda, then slide
	// down the power-law continuum to 1216 A.
	lNu := math.Pow(10, -0.4*(muv-51.6))
	lLambda1500 := lNu * 2.99792458e18 / (1500 * 1500)
	return lLambda1500 * math.Pow(igm.WaveLya/1500, beta)
}

func (m *ExponentialEW) Draw(
	muv, beta float64, src exprand.Source,
) (float64, float64) {
	w0 := ewScale(muv)
	ew := distuv.Exponential{Rate: 1 / w0, Src: src}.Rand()
	return ew, ew * continuumLum(muv, beta)
}

func (m *ExponentialEW) Mean(muv, beta float64) (float64, float64) {
	w0 := ewScale(muv)
	return w0, w0 * continuumLum(muv, beta)
}
