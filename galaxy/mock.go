package galaxy

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cosmo"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

// MockConfig drives the mock-dataset bootstrap: a "true" main bubble of
// radius RBubble at the center of the survey volume, a random background
// bubble field, and NGal galaxies observed through both.
type MockConfig struct {
	NGal     int
	ZCentral float64
	// RBubble is the radius of the true main bubble in Mpc.
	RBubble float64
	// MaxDist is the half extent of the galaxy placement box in Mpc.
	MaxDist float64
	// NeutralFraction is the global neutral fraction of the background
	// field.
	NeutralFraction float64
	// FieldDepth is the line-of-sight extent of the background field.
	FieldDepth float64
	// PreferIonized biases galaxy placement toward the ionized interior of
	// the main bubble, mimicking the clustering of early galaxies.
	PreferIonized bool
	// WithSpectra also produces noisy resolution-matched mock spectra.
	WithSpectra bool
	// NoiseSigma is the Gaussian instrument noise per spectral bin, in
	// erg/s/cm^2/A units of the binned flux.
	NoiseSigma float64
}

// Generate builds a mock dataset. The galaxies' "observed" transmissions
// are computed through the same sightline calculator the likelihood engine
// uses, in data mode: one sightline per galaxy, fixed at the galaxy's own
// transverse position. The generated background field is returned so the
// driver can persist it next to the catalog.
func Generate(
	cfg MockConfig, collab Collaborators,
	gen *rand.Generator, src exprand.Source,
) (*Dataset, igm.Field, error) {
	wave := igm.WaveGrid()

	sampler := igm.NewToySampler(
		cfg.NeutralFraction, cfg.FieldDepth, 2*cfg.MaxDist)
	// Keep the random field from eating into the true bubble.
	sampler.MinFrontZ = 5
	field := sampler.Sample(gen)

	muvs := collab.Muv.Sample(gen, cfg.NGal)
	noise := distuv.Normal{Mu: 0, Sigma: cfg.NoiseSigma, Src: src}

	var bins *igm.SpectralBins
	if cfg.WithSpectra {
		bins = igm.NewSpectralBins(wave, cfg.ZCentral)
	}

	ds := &Dataset{ZCentral: cfg.ZCentral}
	for i := 0; i < cfg.NGal; i++ {
		g := Galaxy{Muv: muvs[i], Beta: -2.0}
		g.X, g.Y, g.Z = placeGalaxy(cfg, gen)

		redS := g.Redshift(cfg.ZCentral)
		zEdge, dist := BubbleEdge(&g, 0, 0, 0, cfg.RBubble, cfg.ZCentral)

		tau, err := igm.Sightline(igm.TauConfig{
			ZCentral:        cfg.ZCentral,
			ZSource:         redS,
			ZEdge:           zEdge,
			ZEnd:            igm.ZEndReionization,
			NeutralFraction: cfg.NeutralFraction,
			FrontOffset:     cfg.RBubble,
			Dist:            dist,
		}, field, g.X, g.Y, wave)
		if err != nil {
			return nil, igm.Field{}, fmt.Errorf("mock galaxy %d: %w", i, err)
		}

		j := collab.Emission.Profiles(g.Muv, 1, src)[0]
		cgm := collab.CGM.Transmission(g.Muv, wave)
		g.TauData = igm.IntegratedTransmission(tau, cgm, j, wave)

		_, g.LyaLum = collab.EW.Draw(g.Muv, g.Beta, src)
		g.FluxInt = g.Flux(cfg.ZCentral, g.TauData)

		if cfg.WithSpectra {
			g.Spectrum = mockSpectrum(&g, tau, cgm, j, wave, bins, redS)
			for k := range g.Spectrum {
				g.Spectrum[k] += noise.Rand()
			}
		}

		ds.Galaxies = append(ds.Galaxies, g)
	}
	return ds, field, nil
}

// placeGalaxy draws a galaxy position in the survey box. With
// PreferIonized set, positions outside the true bubble are kept only a
// third of the time.
func placeGalaxy(cfg MockConfig, gen *rand.Generator) (x, y, z float64) {
	for {
		x = gen.Uniform(-cfg.MaxDist, cfg.MaxDist)
		y = gen.Uniform(-cfg.MaxDist, cfg.MaxDist)
		z = gen.Uniform(-cfg.MaxDist, cfg.MaxDist)
		if !cfg.PreferIonized {
			return x, y, z
		}
		inside := x*x+y*y+z*z < cfg.RBubble*cfg.RBubble
		if inside || gen.Uniform(0, 1) < 1.0/3.0 {
			return x, y, z
		}
	}
}

// BubbleEdge computes where a candidate bubble's ionized interior ends
// along a galaxy's sightline. If the galaxy sits inside the sphere
// (xb, yb, zb, rb), the line-of-sight exit distance follows from the
// sphere equation and the edge redshift from a proper-distance inversion
// anchored at the central redshift; otherwise the galaxy sees the bubble
// from outside and the edge coincides with the galaxy itself.
func BubbleEdge(
	g *Galaxy, xb, yb, zb, rb, zCentral float64,
) (zEdge, dist float64) {
	dx, dy, dz := g.X-xb, g.Y-yb, g.Z-zb
	if dx*dx+dy*dy+dz*dz >= rb*rb {
		return g.Redshift(zCentral), 0
	}
	dist = dz + math.Sqrt(rb*rb-dx*dx-dy*dy)
	return cosmo.RedshiftAtOffset(zCentral, -dist), dist
}

// mockSpectrum bins the galaxy's transmitted flux density and returns the
// per-bin integrals.
func mockSpectrum(
	g *Galaxy, tau, cgm, j, wave []float64,
	bins *igm.SpectralBins, redS float64,
) []float64 {
	norm := integrate.Trapezoidal(wave, j)
	dl := cosmo.LuminosityDistanceCm(redS)
	area := 4 * math.Pi * dl * dl

	vals := make([]float64, len(wave))
	for i := range vals {
		vals[i] = g.LyaLum * j[i] * math.Exp(-tau[i]) * cgm[i] / area / norm
	}
	return bins.Bin(vals)
}
