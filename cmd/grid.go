package cmd

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cmd/catalog"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/like"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/logging"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/memo"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/parse"
)

// GridConfig drives the grid mode, which maps the Monte Carlo likelihood
// over a grid of candidate main bubbles and writes the resulting surface.
type GridConfig struct {
	galaxyFile string
	gridFile   string

	nGrid                  int64
	zMin, zMax, rMin, rMax float64

	nIterBub, nSightlines, nIterations int64
	maxOffset, fieldDepth              float64
	redrawNeutralFraction              bool

	observable        string
	fluxLimit         float64
	transmissionFloor float64
	spectrumFloor     float64
	noiseSigma        float64

	muvCut float64
}

var _ Mode = &GridConfig{}

func (config *GridConfig) ExampleConfig() string {
	return `[grid.config]

# Galaxy catalog to fit, relative to OutputDir. The mock mode writes one.
GalaxyFile = galaxies.txt

# File the likelihood grid is written to, relative to OutputDir.
GridFile = likelihood.txt

# Number of grid points per varied axis. The candidate bubble center is
# pinned to the sightline axis; its line-of-sight offset spans
# [ZMin, ZMax] Mpc and its radius [RMin, RMax] Mpc.
NGrid = 10
ZMin = -5
ZMax = 5
RMin = 5
RMax = 15

# Monte Carlo draw counts: bubble fields per galaxy per candidate, and
# sightlines per field.
NIterBub = 50
NSightlines = 20

# Repeat the whole grid this many times to expose Monte Carlo scatter.
NIterations = 1

# Half range of random transverse sightline offsets, in Mpc, and
# line-of-sight extent of each random bubble field.
MaxOffset = 5
FieldDepth = 300

# Redraw the neutral fraction each bubble-field iteration from the
# fiducial reionization history instead of holding it fixed.
RedrawNeutralFraction = false

# Which observable the likelihood compares: one of transmission, flux,
# spectrum. Values below the matching detection floor are treated as
# non-detections.
Observable = transmission
TransmissionFloor = 3.0
FluxLimit = 1e-18
SpectrumFloor = 1e-19

# Per-bin Gaussian instrument noise added to simulated spectra when
# Observable = spectrum.
NoiseSigma = 1e-19

# Faint-end UV magnitude cut of the galaxy-property models. Match the
# MuvCut the mock catalog was generated with.
MuvCut = -19`
}

func (config *GridConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("grid.config")

	vars.String(&config.galaxyFile, "GalaxyFile", "galaxies.txt")
	vars.String(&config.gridFile, "GridFile", "likelihood.txt")
	vars.Int(&config.nGrid, "NGrid", 10)
	vars.Float(&config.zMin, "ZMin", -5)
	vars.Float(&config.zMax, "ZMax", 5)
	vars.Float(&config.rMin, "RMin", 5)
	vars.Float(&config.rMax, "RMax", 15)
	vars.Int(&config.nIterBub, "NIterBub", 50)
	vars.Int(&config.nSightlines, "NSightlines", 20)
	vars.Int(&config.nIterations, "NIterations", 1)
	vars.Float(&config.maxOffset, "MaxOffset", 5)
	vars.Float(&config.fieldDepth, "FieldDepth", 300)
	vars.Bool(&config.redrawNeutralFraction, "RedrawNeutralFraction", false)
	vars.String(&config.observable, "Observable", "transmission")
	vars.Float(&config.transmissionFloor, "TransmissionFloor",
		like.DefaultTransmissionFloor)
	vars.Float(&config.fluxLimit, "FluxLimit", like.DefaultFluxLimit)
	vars.Float(&config.spectrumFloor, "SpectrumFloor",
		like.DefaultSpectrumFloor)
	vars.Float(&config.noiseSigma, "NoiseSigma", 1e-19)
	vars.Float(&config.muvCut, "MuvCut", -19)

	if fname == "" {
		return nil
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *GridConfig) validate() error {
	if config.nGrid <= 0 {
		return fmt.Errorf("The variable 'NGrid' was set to %d.", config.nGrid)
	}
	if config.zMin > config.zMax {
		return fmt.Errorf("The variable 'ZMin' (%g) is greater than "+
			"'ZMax' (%g).", config.zMin, config.zMax)
	}
	if config.rMin <= 0 || config.rMin > config.rMax {
		return fmt.Errorf("The variables 'RMin' (%g) and 'RMax' (%g) "+
			"don't describe a radius range.", config.rMin, config.rMax)
	}
	if config.nIterBub <= 0 || config.nSightlines <= 0 {
		return fmt.Errorf("The Monte Carlo draw counts must be positive, "+
			"but NIterBub = %d and NSightlines = %d.",
			config.nIterBub, config.nSightlines)
	}
	if config.nIterations <= 0 {
		return fmt.Errorf("The variable 'NIterations' was set to %d.",
			config.nIterations)
	}

	switch config.observable {
	case "transmission", "flux", "spectrum":
	default:
		return fmt.Errorf("The 'Observable' variable is set to '%s', "+
			"which I don't recognize.", config.observable)
	}
	return nil
}

func (config *GridConfig) likeObservable() like.Observable {
	switch config.observable {
	case "transmission":
		return like.ObserveTransmission
	case "flux":
		return like.ObserveFlux
	case "spectrum":
		return like.ObserveSpectrum
	}
	panic("Impossible")
}

func (config *GridConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	if logging.Mode != logging.Nil {
		log.Println(`
####################
## lyabubble grid ##
####################`,
		)
		log.Println(logging.MemString())
	}
	defer logging.Timer("grid evaluation")()

	ds, err := catalog.ReadGalaxies(
		path.Join(gConfig.outputDir, config.galaxyFile))
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("The galaxy catalog %s is empty.",
			config.galaxyFile)
	}
	if config.observable == "spectrum" &&
		len(ds.Galaxies[0].Spectrum) == 0 {
		return nil, fmt.Errorf("'Observable' is set to spectrum, but the "+
			"galaxy catalog %s carries no spectra. Generate the mock with "+
			"WithSpectra = true.", config.galaxyFile)
	}

	seed := uint64(gConfig.seed)
	if gConfig.seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	n := int(config.nGrid)
	cfg := like.GridConfig{
		XS: []float64{0},
		YS: []float64{0},
		ZS: floats.Span(make([]float64, n), config.zMin, config.zMax),
		RS: floats.Span(make([]float64, n), config.rMin, config.rMax),

		NIter:   int(config.nIterations),
		Workers: int(gConfig.workers),
		Seed:    seed,

		Observable:        config.likeObservable(),
		TransmissionFloor: config.transmissionFloor,
		FluxLimit:         config.fluxLimit,
		SpectrumFloor:     config.spectrumFloor,

		Forward: like.ForwardConfig{
			NIterBub:              int(config.nIterBub),
			NSightlines:           int(config.nSightlines),
			NeutralFraction:       gConfig.NeutralFraction(),
			RedrawNeutralFraction: config.redrawNeutralFraction,
			Depth:                 config.fieldDepth,
			MaxOffset:             config.maxOffset,
			WithSpectra:           config.observable == "spectrum",
			NoiseSigma:            config.noiseSigma,
		},
		Collab: galaxy.DefaultCollaborators(config.muvCut),
	}

	var cache *memo.Cache
	if gConfig.useCache {
		if cache, err = memo.New(gConfig.cacheDir); err != nil {
			return nil, err
		}
		cfg.Cache = cache
	}

	grid, err := like.Evaluate(context.Background(), cfg, ds)
	if err != nil {
		return nil, err
	}

	gridFile := path.Join(gConfig.outputDir, config.gridFile)
	if err = catalog.WriteGrid(gridFile, grid); err != nil {
		return nil, err
	}

	out := []string{
		fmt.Sprintf("# Wrote a %d x %d likelihood grid to %s",
			n, n, gridFile),
		bestPointString(grid),
	}
	if cache != nil {
		manifest, err := cache.WriteManifest()
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("# Cache manifest: %s", manifest))
	}
	return out, nil
}

// bestPointString reports the maximum-likelihood candidate of the first
// iteration.
func bestPointString(g *like.Grid) string {
	best := floats.MaxIdx(g.LogL[0])
	nR := len(g.RS)
	iz, ir := best/nR%len(g.ZS), best%nR
	return fmt.Sprintf(
		"# Best candidate: z offset = %g Mpc, radius = %g Mpc "+
			"(log likelihood = %g)",
		g.ZS[iz], g.RS[ir], g.LogL[0][best],
	)
}
