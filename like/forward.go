package like

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cosmo"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

// maxSaneTransmission guards against numerical blow-ups in a single
// Monte Carlo draw. Draws above it are counted and excluded from the
// distributions handed to the density estimate.
const maxSaneTransmission = 1e4

// Candidate is one main-bubble configuration under test: a sphere center
// in comoving Mpc (z along the line of sight) and a radius.
type Candidate struct {
	X, Y, Z, R float64
}

// ForwardConfig fixes the Monte Carlo forward model for one run.
type ForwardConfig struct {
	// NIterBub is the number of independent bubble-field draws per galaxy
	// per candidate.
	NIterBub int
	// NSightlines is the number of sightline and emission-profile draws
	// per bubble field.
	NSightlines int
	// NeutralFraction is the global neutral fraction outside bubbles.
	NeutralFraction float64
	// RedrawNeutralFraction redraws the neutral fraction per bubble-field
	// iteration from the fiducial reionization history, propagating its
	// uncertainty into the simulated distributions.
	RedrawNeutralFraction bool
	// Depth is the line-of-sight extent of each random field in Mpc.
	Depth float64
	// MaxOffset bounds the random transverse sightline offsets around each
	// galaxy, in Mpc.
	MaxOffset float64
	// WithSpectra also accumulates resolution-matched binned spectra.
	WithSpectra bool
	// NoiseSigma is the Gaussian instrument noise added per spectral bin.
	NoiseSigma float64
	// NewField builds the random-field sampler for a given neutral
	// fraction. Left nil, the built-in toy size distribution is used.
	NewField func(xH float64) igm.FieldSampler
}

func (cfg *ForwardConfig) fieldSampler(xH float64) igm.FieldSampler {
	if cfg.NewField != nil {
		return cfg.NewField(xH)
	}
	return igm.NewToySampler(xH, cfg.Depth, 2*cfg.MaxOffset)
}

// Distributions holds the empirical forward-model draws for one galaxy
// and one candidate. Each slice has up to NIterBub * NSightlines entries;
// Spectra is empty unless spectra were requested.
type Distributions struct {
	Transmission []float64
	Flux         []float64
	Spectra      [][]float64
	// Discarded counts draws rejected by the blow-up guard.
	Discarded int
}

// SimulateGalaxy runs the forward model for one galaxy against one
// candidate bubble: NIterBub random bubble fields, NSightlines random
// sightlines through each, every optical-depth curve convolved with a
// fresh intrinsic emission profile and the galaxy's CGM transmission.
// Every kept draw also redraws the intrinsic line luminosity from the
// equivalent-width model, so the simulated flux and spectrum
// distributions carry its scatter.
//
// Errors out of the sightline calculator are fatal: a bubble behind the
// galaxy means the candidate geometry and galaxy placement contradict
// each other, and no amount of redrawing fixes that.
func SimulateGalaxy(
	cfg ForwardConfig, cand Candidate, g *galaxy.Galaxy,
	zCentral float64, collab galaxy.Collaborators,
	gen *rand.Generator, src exprand.Source,
) (*Distributions, error) {
	wave := igm.WaveGrid()
	redS := g.Redshift(zCentral)
	zEdge, dist := galaxy.BubbleEdge(g, cand.X, cand.Y, cand.Z, cand.R, zCentral)
	cgm := collab.CGM.Transmission(g.Muv, wave)

	dl := cosmo.LuminosityDistanceCm(redS)
	fluxArea := 4 * math.Pi * dl * dl

	var bins *igm.SpectralBins
	if cfg.WithSpectra {
		bins = igm.NewSpectralBins(wave, zCentral)
	}

	n := cfg.NIterBub * cfg.NSightlines
	out := &Distributions{
		Transmission: make([]float64, 0, n),
		Flux:         make([]float64, 0, n),
	}

	for it := 0; it < cfg.NIterBub; it++ {
		xH := cfg.NeutralFraction
		if cfg.RedrawNeutralFraction {
			xH = igm.DrawNeutralFraction(zCentral, src)
		}
		field := cfg.fieldSampler(xH).Sample(gen)
		profiles := collab.Emission.Profiles(g.Muv, cfg.NSightlines, src)

		for s := 0; s < cfg.NSightlines; s++ {
			x := g.X + gen.Uniform(-cfg.MaxOffset, cfg.MaxOffset)
			y := g.Y + gen.Uniform(-cfg.MaxOffset, cfg.MaxOffset)

			tau, err := igm.Sightline(igm.TauConfig{
				ZCentral:        zCentral,
				ZSource:         redS,
				ZEdge:           zEdge,
				ZEnd:            igm.ZEndReionization,
				NeutralFraction: xH,
				FrontOffset:     cand.R,
				Dist:            dist,
			}, field, x, y, wave)
			if err != nil {
				return nil, fmt.Errorf(
					"candidate (%g, %g, %g, r=%g): %w",
					cand.X, cand.Y, cand.Z, cand.R, err)
			}

			trans := igm.IntegratedTransmission(tau, cgm, profiles[s], wave)
			if math.IsNaN(trans) || trans > maxSaneTransmission {
				out.Discarded++
				continue
			}
			_, lum := collab.EW.Draw(g.Muv, g.Beta, src)
			out.Transmission = append(out.Transmission, trans)
			out.Flux = append(out.Flux, lum*trans/fluxArea)

			if cfg.WithSpectra {
				spec := binnedSpectrum(
					lum, tau, cgm, profiles[s], wave, bins, fluxArea)
				if cfg.NoiseSigma > 0 {
					noise := distuv.Normal{
						Mu: 0, Sigma: cfg.NoiseSigma, Src: src,
					}
					for k := range spec {
						spec[k] += noise.Rand()
					}
				}
				out.Spectra = append(out.Spectra, spec)
			}
		}
	}
	return out, nil
}

// binnedSpectrum integrates the transmitted flux density of a line with
// intrinsic luminosity lum into the observed-frame resolution bins.
func binnedSpectrum(
	lum float64, tau, cgm, j, wave []float64,
	bins *igm.SpectralBins, area float64,
) []float64 {
	norm := integrate.Trapezoidal(wave, j)
	vals := make([]float64, len(wave))
	for i := range vals {
		vals[i] = lum * j[i] * math.Exp(-tau[i]) * cgm[i] / area / norm
	}
	return bins.Bin(vals)
}
