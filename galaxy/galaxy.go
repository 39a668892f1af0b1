/*package galaxy holds the galaxy data model and the galaxy-property
collaborators of the likelihood analysis: UV magnitudes, circumgalactic
transmission, intrinsic emission profiles, and the equivalent-width /
Lyman-alpha luminosity model. It also generates the mock datasets that the
grid sampler is usually run against.*/
package galaxy

import (
	"math"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cosmo"
)

// Galaxy is one observed (or mock) Lyman-alpha emitter. Positions are
// comoving Mpc offsets from the center of the survey volume, with Z along
// the line of sight (positive away from the observer).
type Galaxy struct {
	X, Y, Z float64

	// Muv is the absolute UV continuum magnitude, Beta the UV continuum
	// slope.
	Muv, Beta float64

	// LyaLum is the intrinsic Lyman-alpha luminosity in erg/s, drawn from
	// the equivalent-width model when the dataset was built.
	LyaLum float64

	// TauData is the observed (or mock) integrated IGM transmission.
	TauData float64
	// FluxInt is the observed (or mock) integrated line flux in
	// erg/s/cm^2.
	FluxInt float64
	// Spectrum is the optional observed binned spectrum, present only when
	// the likelihood is evaluated per spectral bin.
	Spectrum []float64
}

// Redshift returns the galaxy's redshift given the central redshift of the
// survey volume.
func (g *Galaxy) Redshift(zCentral float64) float64 {
	return cosmo.RedshiftAtOffset(zCentral, g.Z)
}

// Flux converts the galaxy's intrinsic luminosity and an IGM transmission
// into an observed flux in erg/s/cm^2.
func (g *Galaxy) Flux(zCentral, transmission float64) float64 {
	dl := cosmo.LuminosityDistanceCm(g.Redshift(zCentral))
	return g.LyaLum * transmission / (4 * math.Pi * dl * dl)
}

// Dataset is the set of galaxies one likelihood grid is evaluated against.
// It is immutable for the duration of a run.
type Dataset struct {
	// ZCentral is the redshift of the center of the survey volume and of
	// the main bubble candidate grid.
	ZCentral float64
	Galaxies []Galaxy
}

// Len returns the number of galaxies in the dataset.
func (d *Dataset) Len() int { return len(d.Galaxies) }
