package cmd

import (
	"fmt"
	"log"
	"path"
	"time"

	exprand "golang.org/x/exp/rand"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cmd/catalog"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/logging"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/parse"
)

// MockConfig drives the mock mode, which bootstraps a synthetic galaxy
// catalog observed through a known "true" bubble so grid runs have a
// ground truth to recover.
type MockConfig struct {
	nGalaxies     int64
	bubbleRadius  float64
	maxDist       float64
	fieldDepth    float64
	muvCut        float64
	fixedMuv      float64
	sampleMuv     bool
	preferIonized bool
	withSpectra   bool
	noiseSigma    float64

	galaxyFile string
	bubbleFile string
}

var _ Mode = &MockConfig{}

func (config *MockConfig) ExampleConfig() string {
	return `[mock.config]

# Number of galaxies in the mock catalog.
NGalaxies = 20

# Radius of the true main bubble in comoving Mpc, centered on the origin.
BubbleRadius = 10

# Half extent of the box galaxies are placed in, in comoving Mpc.
MaxDist = 15

# Line-of-sight extent of the random background bubble field.
FieldDepth = 300

# Galaxy UV magnitudes. With SampleMuv = true they are drawn from the
# z ~ 7 luminosity function down to MuvCut; otherwise every galaxy gets
# FixedMuv.
SampleMuv = true
MuvCut = -19
FixedMuv = -22

# Bias galaxy placement toward the ionized interior of the true bubble.
PreferIonized = true

# Also produce noisy resolution-matched mock spectra. NoiseSigma is the
# per-bin Gaussian instrument noise.
WithSpectra = false
NoiseSigma = 1e-19

# Output file names, relative to OutputDir.
GalaxyFile = galaxies.txt
BubbleFile = bubbles.txt`
}

func (config *MockConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("mock.config")

	vars.Int(&config.nGalaxies, "NGalaxies", 20)
	vars.Float(&config.bubbleRadius, "BubbleRadius", 10)
	vars.Float(&config.maxDist, "MaxDist", 15)
	vars.Float(&config.fieldDepth, "FieldDepth", 300)
	vars.Bool(&config.sampleMuv, "SampleMuv", true)
	vars.Float(&config.muvCut, "MuvCut", -19)
	vars.Float(&config.fixedMuv, "FixedMuv", -22)
	vars.Bool(&config.preferIonized, "PreferIonized", true)
	vars.Bool(&config.withSpectra, "WithSpectra", false)
	vars.Float(&config.noiseSigma, "NoiseSigma", 1e-19)
	vars.String(&config.galaxyFile, "GalaxyFile", "galaxies.txt")
	vars.String(&config.bubbleFile, "BubbleFile", "bubbles.txt")

	if fname == "" {
		return nil
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *MockConfig) validate() error {
	if config.nGalaxies <= 0 {
		return fmt.Errorf("The variable 'NGalaxies' was set to %d.",
			config.nGalaxies)
	}
	if config.bubbleRadius <= 0 {
		return fmt.Errorf("The variable 'BubbleRadius' was set to %g.",
			config.bubbleRadius)
	}
	if config.maxDist <= 0 {
		return fmt.Errorf("The variable 'MaxDist' was set to %g.",
			config.maxDist)
	}
	if config.withSpectra && config.noiseSigma < 0 {
		return fmt.Errorf("The variable 'NoiseSigma' was set to %g.",
			config.noiseSigma)
	}
	return nil
}

func (config *MockConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	if logging.Mode != logging.Nil {
		log.Println(`
####################
## lyabubble mock ##
####################`,
		)
	}
	defer logging.Timer("mock generation")()

	seed := uint64(gConfig.seed)
	if gConfig.seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := rand.New(rand.Xorshift, seed)
	src := exprand.NewSource(seed)

	collab := galaxy.DefaultCollaborators(config.muvCut)
	if !config.sampleMuv {
		collab.Muv = &galaxy.FixedMuvSampler{Muv: config.fixedMuv}
	}

	ds, field, err := galaxy.Generate(galaxy.MockConfig{
		NGal:            int(config.nGalaxies),
		ZCentral:        gConfig.redshift,
		RBubble:         config.bubbleRadius,
		MaxDist:         config.maxDist,
		NeutralFraction: gConfig.NeutralFraction(),
		FieldDepth:      config.fieldDepth,
		PreferIonized:   config.preferIonized,
		WithSpectra:     config.withSpectra,
		NoiseSigma:      config.noiseSigma,
	}, collab, gen, src)
	if err != nil {
		return nil, err
	}

	galaxyFile := path.Join(gConfig.outputDir, config.galaxyFile)
	if err = catalog.WriteGalaxies(galaxyFile, ds); err != nil {
		return nil, err
	}
	bubbleFile := path.Join(gConfig.outputDir, config.bubbleFile)
	if err = catalog.WriteBubbles(bubbleFile, field); err != nil {
		return nil, err
	}

	return []string{
		fmt.Sprintf("# Wrote %d galaxies at z = %g to %s",
			ds.Len(), ds.ZCentral, galaxyFile),
		fmt.Sprintf("# Wrote %d background bubbles to %s",
			field.Len(), bubbleFile),
	}, nil
}
