package like

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	exprand "golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

// Observable selects which forward-model distribution the likelihood is
// evaluated on. The choice is made once per run.
type Observable int

const (
	// ObserveTransmission compares integrated IGM transmissions.
	ObserveTransmission Observable = iota
	// ObserveFlux compares integrated Lyman-alpha fluxes.
	ObserveFlux
	// ObserveSpectrum compares noisy binned spectra bin by bin.
	ObserveSpectrum
)

// Default detection floors. An observed value below the floor is treated
// as a non-detection and contributes the probability mass below the floor
// instead of a point density.
const (
	DefaultTransmissionFloor = 3.0
	DefaultFluxLimit         = 1e-18
	DefaultSpectrumFloor     = 1e-19
)

// GridConfig describes one likelihood-grid evaluation.
type GridConfig struct {
	// XS, YS, ZS, RS are the candidate-bubble grid axes in Mpc.
	XS, YS, ZS, RS []float64
	// NIter repeats the whole grid to expose run-to-run Monte Carlo
	// scatter. Zero means one pass.
	NIter int
	// Workers bounds the number of concurrent grid-point tasks. Zero
	// means GOMAXPROCS.
	Workers int
	// Seed fixes every grid point's random stream. Point i of iteration
	// it draws from Seed + it*nPoints + i, so a rerun reproduces the grid
	// exactly regardless of completion order.
	Seed uint64

	Observable        Observable
	TransmissionFloor float64
	FluxLimit         float64
	SpectrumFloor     float64

	Forward ForwardConfig
	Collab  galaxy.Collaborators

	// Cache, when non-nil, persists each galaxy's simulated distributions
	// keyed by the full candidate + galaxy + draw-count + iteration tuple,
	// and serves them back on repeat evaluations.
	Cache DistCache
}

// DistCache persists simulated distributions between runs. Implementations
// must be safe for concurrent use from grid workers. The iteration index
// is part of the key: repeat grid passes exist to expose Monte Carlo
// scatter, so they must not recall each other's draws.
type DistCache interface {
	Key(cand Candidate, g *galaxy.Galaxy, cfg ForwardConfig, it int) string
	Get(key string) (*Distributions, bool, error)
	Put(key string, d *Distributions) error
}

func (cfg *GridConfig) floor() float64 {
	switch cfg.Observable {
	case ObserveTransmission:
		return cfg.TransmissionFloor
	case ObserveFlux:
		return cfg.FluxLimit
	case ObserveSpectrum:
		return cfg.SpectrumFloor
	}
	panic("Impossible")
}

// DefaultGridAxes returns the standard search grid: the bubble center
// pinned to the sightline axis, n points of line-of-sight offset in
// [-5, 5] Mpc and n radii in [5, 15] Mpc.
func DefaultGridAxes(n int) (xs, ys, zs, rs []float64) {
	xs = []float64{0}
	ys = []float64{0}
	zs = floats.Span(make([]float64, n), -5, 5)
	rs = floats.Span(make([]float64, n), 5, 15)
	return xs, ys, zs, rs
}

// Grid is a dense likelihood grid. LogL[it] is one full grid pass stored
// flat in (x, y, z, r) order, slowest axis first.
type Grid struct {
	XS, YS, ZS, RS []float64
	LogL           [][]float64
}

// At returns the summed log-likelihood at iteration it and grid indices
// (ix, iy, iz, ir).
func (g *Grid) At(it, ix, iy, iz, ir int) float64 {
	i := ((ix*len(g.YS)+iy)*len(g.ZS)+iz)*len(g.RS) + ir
	return g.LogL[it][i]
}

// NPoints returns the number of grid points in one pass.
func (g *Grid) NPoints() int {
	return len(g.XS) * len(g.YS) * len(g.ZS) * len(g.RS)
}

// Evaluate maps the forward model over the full candidate grid. Each grid
// point is an independent task with its own seeded random streams; tasks
// write their result at their own flat index, so the returned grid does
// not depend on completion order. The first fatal error cancels every
// outstanding task and fails the whole batch.
func Evaluate(
	ctx context.Context, cfg GridConfig, ds *galaxy.Dataset,
) (*Grid, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	nIter := cfg.NIter
	if nIter <= 0 {
		nIter = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cands := gridPoints(&cfg)
	out := &Grid{
		XS: cfg.XS, YS: cfg.YS, ZS: cfg.ZS, RS: cfg.RS,
		LogL: make([][]float64, nIter),
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for it := 0; it < nIter; it++ {
		out.LogL[it] = make([]float64, len(cands))
		logL := out.LogL[it]
		base := cfg.Seed + uint64(it*len(cands))

		for i, cand := range cands {
			i, cand, it := i, cand, it
			group.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				gen := rand.New(rand.Xorshift, base+uint64(i))
				src := exprand.NewSource(base + uint64(i))
				v, err := pointLogLike(cfg, cand, ds, it, gen, src)
				if err != nil {
					return err
				}
				logL[i] = v
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(cfg *GridConfig) error {
	for _, ax := range [][]float64{cfg.XS, cfg.YS, cfg.ZS, cfg.RS} {
		if len(ax) == 0 {
			return errors.New("every grid axis needs at least one point")
		}
	}
	if cfg.Forward.NIterBub <= 0 || cfg.Forward.NSightlines <= 0 {
		return errors.New("the forward model needs positive draw counts")
	}
	if cfg.Observable == ObserveSpectrum && !cfg.Forward.WithSpectra {
		return errors.New(
			"a spectral likelihood needs the forward model to bin spectra")
	}
	if cfg.floor() <= 0 {
		return fmt.Errorf("detection floor %g must be positive", cfg.floor())
	}
	return nil
}

func gridPoints(cfg *GridConfig) []Candidate {
	cands := make([]Candidate, 0,
		len(cfg.XS)*len(cfg.YS)*len(cfg.ZS)*len(cfg.RS))
	for _, x := range cfg.XS {
		for _, y := range cfg.YS {
			for _, z := range cfg.ZS {
				for _, r := range cfg.RS {
					cands = append(cands, Candidate{X: x, Y: y, Z: z, R: r})
				}
			}
		}
	}
	return cands
}

// pointLogLike sums the per-galaxy log-likelihood contributions for one
// candidate. Galaxies are independent, so their log contributions add.
func pointLogLike(
	cfg GridConfig, cand Candidate, ds *galaxy.Dataset, it int,
	gen *rand.Generator, src exprand.Source,
) (float64, error) {
	total := 0.0
	for i := range ds.Galaxies {
		g := &ds.Galaxies[i]
		dists, err := simulateOrRecall(&cfg, cand, g, ds.ZCentral, it, gen, src)
		if err != nil {
			return 0, err
		}
		contrib, err := galaxyLogLike(&cfg, dists, g)
		if err != nil {
			return 0, err
		}
		total += contrib
	}
	return total, nil
}

// simulateOrRecall serves one galaxy's distributions from the cache when
// one is configured and the tuple has been simulated before, and runs the
// forward model otherwise.
func simulateOrRecall(
	cfg *GridConfig, cand Candidate, g *galaxy.Galaxy,
	zCentral float64, it int, gen *rand.Generator, src exprand.Source,
) (*Distributions, error) {
	if cfg.Cache == nil {
		return SimulateGalaxy(
			cfg.Forward, cand, g, zCentral, cfg.Collab, gen, src)
	}

	key := cfg.Cache.Key(cand, g, cfg.Forward, it)
	if d, ok, err := cfg.Cache.Get(key); err != nil {
		return nil, err
	} else if ok {
		return d, nil
	}

	d, err := SimulateGalaxy(
		cfg.Forward, cand, g, zCentral, cfg.Collab, gen, src)
	if err != nil {
		return nil, err
	}
	if err = cfg.Cache.Put(key, d); err != nil {
		return nil, err
	}
	return d, nil
}

// galaxyLogLike converts one galaxy's simulated distributions into its
// log-likelihood contribution. A degenerate density estimate zeroes out
// the candidate for this galaxy rather than failing the batch.
func galaxyLogLike(
	cfg *GridConfig, dists *Distributions, g *galaxy.Galaxy,
) (float64, error) {
	switch cfg.Observable {
	case ObserveTransmission:
		return scalarLogLike(dists.Transmission, g.TauData, cfg.floor())
	case ObserveFlux:
		return scalarLogLike(dists.Flux, g.FluxInt, cfg.floor())
	case ObserveSpectrum:
		return spectrumLogLike(dists.Spectra, g.Spectrum, cfg.floor())
	}
	panic("Impossible")
}

func scalarLogLike(samples []float64, obs, floor float64) (float64, error) {
	kde, err := NewKDE(samples)
	if errors.Is(err, ErrDegenerateKDE) {
		return math.Inf(-1), nil
	} else if err != nil {
		return 0, err
	}
	if obs < floor {
		return math.Log(kde.IntegrateBox(0, floor)), nil
	}
	return math.Log(kde.Eval(obs)), nil
}

// spectrumLogLike treats the bins as independent: one density estimate
// per bin, contributions added in log space.
func spectrumLogLike(
	spectra [][]float64, obs []float64, floor float64,
) (float64, error) {
	if len(spectra) == 0 {
		return math.Inf(-1), nil
	}
	if len(obs) != len(spectra[0]) {
		return 0, fmt.Errorf(
			"observed spectrum has %d bins, simulated spectra have %d",
			len(obs), len(spectra[0]))
	}

	total := 0.0
	col := make([]float64, len(spectra))
	for b := range obs {
		for i, spec := range spectra {
			col[i] = spec[b]
		}
		contrib, err := scalarLogLike(col, obs[b], floor)
		if err != nil {
			return 0, err
		}
		total += contrib
	}
	return total, nil
}
