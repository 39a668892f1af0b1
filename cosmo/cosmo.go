/*package cosmo provides the flat LCDM conversions between redshift and
comoving, proper, and luminosity distance that the sightline calculations
need. All distances are in comoving Mpc unless stated otherwise.

The sightline optical-depth calculator converts bubble-intersection
coordinates to redshifts inside its Monte Carlo loop, so both directions of
the conversion have to be cheap. A cumulative distance table is built once
and both ComovingDistance and ZAtComovingDistance are table lookups.*/
package cosmo

import (
	"math"
	"sort"
	"sync"
)

// Planck 2018 parameters. These are fixed for the whole analysis: the
// bubble geometry is degenerate with much larger modeling uncertainties
// than the cosmology. OmegaL closes the density budget to exact flatness;
// the released Planck value leaves room for radiation and neutrino terms
// this code does not model.
const (
	H0     = 67.66
	OmegaM = 0.30966
	OmegaL = 1 - OmegaM
)

const (
	cKmS  = 299792.458
	MpcCm = 3.0856775814913673e24
)

// HubbleFrac calculates h(z) = H(z)/H0. Here H(z) is from Hubble's Law,
// H(z)**2 = H0**2 (OmegaM (1+z)**3 + OmegaL). Assumes k, r = 0.
func HubbleFrac(omegaM, omegaL, z float64) float64 {
	return math.Sqrt(omegaM*math.Pow(1.0+z, 3.0) + omegaL)
}

const (
	tableZMax  = 30.0
	tableSteps = 60000
)

var (
	tableOnce sync.Once
	tableZs   []float64
	tableDs   []float64
)

// buildTable integrates c/H(z) with the trapezoid rule on a grid fine
// enough (dz = 5e-4) that the error is far below the Mpc-scale geometry
// this code cares about.
func buildTable() {
	dz := tableZMax / float64(tableSteps)
	hubbleDistance := cKmS / H0

	tableZs = make([]float64, tableSteps+1)
	tableDs = make([]float64, tableSteps+1)
	prev := 1.0 // 1/h(0)
	for i := 1; i <= tableSteps; i++ {
		z := float64(i) * dz
		cur := 1 / HubbleFrac(OmegaM, OmegaL, z)
		tableZs[i] = z
		tableDs[i] = tableDs[i-1] + hubbleDistance*dz*(prev+cur)/2
		prev = cur
	}
}

// ComovingDistance calculates the line-of-sight comoving distance from the
// observer to redshift z in Mpc.
func ComovingDistance(z float64) float64 {
	if z <= 0 {
		return 0
	}
	tableOnce.Do(buildTable)
	if z >= tableZMax {
		panic("ComovingDistance: redshift beyond table range")
	}

	i := sort.SearchFloat64s(tableZs, z)
	if tableZs[i] == z {
		return tableDs[i]
	}
	z1, z2 := tableZs[i-1], tableZs[i]
	d1, d2 := tableDs[i-1], tableDs[i]
	return d1 + (d2-d1)*(z-z1)/(z2-z1)
}

// ZAtComovingDistance inverts ComovingDistance. d must be non-negative and
// within the table range.
func ZAtComovingDistance(d float64) float64 {
	if d <= 0 {
		return 0
	}
	tableOnce.Do(buildTable)
	if d >= tableDs[len(tableDs)-1] {
		panic("ZAtComovingDistance: distance beyond table range")
	}

	i := sort.SearchFloat64s(tableDs, d)
	if tableDs[i] == d {
		return tableZs[i]
	}
	d1, d2 := tableDs[i-1], tableDs[i]
	z1, z2 := tableZs[i-1], tableZs[i]
	return z1 + (z2-z1)*(d-d1)/(d2-d1)
}

// RedshiftAtOffset returns the redshift of a point offset along the line of
// sight by dz comoving Mpc from redshift z0. Positive dz moves away from
// the observer (to higher redshift), negative dz toward the observer.
func RedshiftAtOffset(z0, dz float64) float64 {
	d := ComovingDistance(z0) + dz
	if d <= 0 {
		panic("RedshiftAtOffset: offset reaches past the observer")
	}
	return ZAtComovingDistance(d)
}

// LuminosityDistance calculates the luminosity distance to redshift z
// in Mpc.
func LuminosityDistance(z float64) float64 {
	return (1 + z) * ComovingDistance(z)
}

// LuminosityDistanceCm calculates the luminosity distance to redshift z in
// centimeters, which is what cgs flux conversions want.
func LuminosityDistanceCm(z float64) float64 {
	return LuminosityDistance(z) * MpcCm
}
