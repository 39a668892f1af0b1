/*package cmd contains code for running the bubble search in its various
command line modes */
package cmd

import (
	"fmt"
	"os"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/logging"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/parse"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/version"
)

var ModeNames map[string]Mode = map[string]Mode{
	"mock": &MockConfig{},
	"grid": &GridConfig{},
}

// Mode represents the interface used by the main binary when interacting
// with a given command line mode.
type Mode interface {
	// ReadConfig reads a mode-specific config file and stores its contents
	// within the Mode.
	ReadConfig(fname string) error
	// ExampleConfig returns the text of an example config file of this mode.
	ExampleConfig() string
	// Run executes the mode. It takes a list of tokenized command line
	// flags and an initialized GlobalConfig struct, and returns a slice of
	// lines that should be written to stdout along with an error if one
	// occurs.
	Run(flags []string, gConfig *GlobalConfig) ([]string, error)
}

// GlobalConfig is a config file used by every mode. It pins down the run
// directories, the survey redshift, and the random seed shared by every
// stage of a search.
type GlobalConfig struct {
	version string

	outputDir, cacheDir string
	seed, workers       int64
	redshift            float64
	neutralFraction     float64
	useCache            bool
	logMode             string
}

var _ Mode = &GlobalConfig{}

// ReadConfig reads a config file and returns an error, if applicable.
func (config *GlobalConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("config")
	vars.String(&config.version, "Version", version.SourceVersion)
	vars.String(&config.outputDir, "OutputDir", "")
	vars.String(&config.cacheDir, "CacheDir", "")
	vars.Int(&config.seed, "Seed", 0)
	vars.Int(&config.workers, "Workers", 0)
	vars.Float(&config.redshift, "Redshift", 7.5)
	vars.Float(&config.neutralFraction, "NeutralFraction", -1)
	vars.Bool(&config.useCache, "UseCache", false)
	vars.String(&config.logMode, "LogMode", "nil")

	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

// validate checks that all the user-generated fields of GlobalConfig are
// properly set.
func (config *GlobalConfig) validate() error {
	major, minor, patch, err := version.Parse(config.version)
	if err != nil {
		return fmt.Errorf("I couldn't parse the 'Version' variable: %s",
			err.Error())
	}
	smajor, sminor, spatch, _ := version.Parse(version.SourceVersion)
	if major != smajor || minor != sminor || patch != spatch {
		return fmt.Errorf("The 'Version' variable is set to %s, but the "+
			"version of the source is %s",
			config.version, version.SourceVersion)
	}

	if config.outputDir == "" {
		return fmt.Errorf("The 'OutputDir' variable isn't set.")
	} else if err = validateDir(config.outputDir); err != nil {
		return fmt.Errorf("The 'OutputDir' variable is set to '%s', but %s",
			config.outputDir, err.Error())
	}

	if config.useCache {
		if config.cacheDir == "" {
			return fmt.Errorf("The 'UseCache' variable is set, but the " +
				"'CacheDir' variable isn't.")
		}
	}

	if config.redshift <= 0 {
		return fmt.Errorf("The 'Redshift' variable is set to %g, which "+
			"isn't a redshift I can work at.", config.redshift)
	}
	if config.neutralFraction > 1 {
		return fmt.Errorf("The 'NeutralFraction' variable is set to %g, "+
			"but a volume fraction can't exceed 1.", config.neutralFraction)
	}
	if config.workers < 0 {
		return fmt.Errorf("The 'Workers' variable is set to the negative "+
			"value %d.", config.workers)
	}

	switch config.logMode {
	case "nil":
		logging.Mode = logging.Nil
	case "performance":
		logging.Mode = logging.Performance
	case "debug":
		logging.Mode = logging.Debug
	default:
		return fmt.Errorf("The 'LogMode' variable is set to '%s', which I "+
			"don't recognize.", config.logMode)
	}

	return nil
}

// validateDir returns an error if there are any problems with the given
// directory.
func validateDir(name string) error {
	if info, err := os.Stat(name); err != nil {
		return fmt.Errorf("%s does not exist.", name)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory.", name)
	}
	return nil
}

// ExampleConfig returns an example configuration file.
func (config *GlobalConfig) ExampleConfig() string {
	return fmt.Sprintf(`[config]
# Target version of the source. This option merely lets the code notice
# when its source and configuration files are not from the same version.
#
# This variable defaults to the source version if not included.
Version = %s

# Directory that catalogs and likelihood grids are written to. It must
# exist before a run starts.
OutputDir = path/to/output/dir/

# Seed for every random stream in a run. Grid point i draws from
# Seed + i, so reruns with the same Seed reproduce the same grid. A Seed
# of 0 means seed from the wall clock.
Seed = 0

# Number of grid points evaluated concurrently. 0 means one per CPU.
Workers = 0

# Redshift of the reference galaxy the survey volume is centered on.
Redshift = 7.5

# Volume-averaged neutral fraction outside ionized bubbles. A negative
# value means use the fiducial reionization history at the redshift above.
NeutralFraction = -1

# Cache per-galaxy simulated distributions in CacheDir between runs.
UseCache = false
CacheDir = path/to/cache/dir/

# One of nil, performance, debug.
LogMode = nil`, version.SourceVersion)
}

// NeutralFraction resolves the configured neutral fraction, falling back
// to the fiducial reionization history when it is unset.
func (config *GlobalConfig) NeutralFraction() float64 {
	if config.neutralFraction >= 0 {
		return config.neutralFraction
	}
	return igm.MeanNeutralFraction(config.redshift)
}

// Run is a dummy method which allows GlobalConfig to conform to the Mode
// interface for testing purposes.
func (config *GlobalConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	panic("GlobalConfig.Run() should never be executed.")
}
