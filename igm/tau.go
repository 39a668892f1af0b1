package igm

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cosmo"
)

// ErrBubbleBehindGalaxy reports a bubble ensemble that places an ionized
// region entirely behind the source galaxy. The field coordinate system
// starts at the galaxy side, so this means the geometry handed to the
// calculator is inconsistent with the galaxy placement. It is fatal: the
// surrounding likelihood evaluation must abort rather than absorb it.
var ErrBubbleBehindGalaxy = errors.New(
	"bubble intersection lies entirely behind the galaxy")

// TauConfig fixes the geometry of one sightline calculation.
type TauConfig struct {
	// ZCentral is the redshift of the main bubble's center. All field
	// z-coordinates are converted to redshift relative to this anchor.
	ZCentral float64
	// ZSource is the redshift of the galaxy whose spectrum is absorbed.
	ZSource float64
	// ZEdge is the redshift at which the main bubble's ionized interior
	// ends along this sightline. A galaxy outside the main bubble has
	// ZEdge == ZSource.
	ZEdge float64
	// ZEnd is the redshift at which the integration stops, beyond which
	// reionization is complete. The canonical value is 5.3.
	ZEnd float64
	// NeutralFraction is the mean neutral fraction used by the mean-field
	// fallback when a sightline hits no bubble at all.
	NeutralFraction float64
	// FrontOffset is the comoving distance, in Mpc, between the central
	// plane at ZCentral and the front face of the bubble field (the
	// z = 0 plane of a Field).
	FrontOffset float64
	// Dist is the comoving distance from the galaxy to the main bubble's
	// edge along the sightline; the mean-field fallback integrates from
	// that point.
	Dist float64
}

// interval is one ionized stretch along a sightline in redshift space,
// with Entry on the source side (Entry > Exit).
type interval struct {
	entry, exit float64
}

// Sightline computes the damping-wing optical depth along one sightline
// with transverse offset (x, y) through the given bubble field, sampled on
// the emitted wavelength grid wave.
//
// Ionized interiors are transparent (the residual HI opacity at 1e4 K is
// negligible for the damping wing); the optical depth comes from the
// neutral gaps between bubbles, each integrated analytically. A sightline
// that intersects nothing falls back to the closed-form mean-field depth.
// Negative or NaN results, artifacts of overlapping-interval bookkeeping,
// are clamped to +Inf.
func Sightline(cfg TauConfig, f Field, x, y float64, wave []float64) ([]float64, error) {
	ivs, err := intersect(cfg, f, x, y)
	if err != nil {
		return nil, err
	}
	if len(ivs) == 0 {
		return MeanFieldTau(wave, cfg.Dist, cfg.ZSource, cfg.ZEnd,
			cfg.NeutralFraction), nil
	}

	ivs = mergeIntervals(ivs)

	zObs := ObservedRedshifts(wave, cfg.ZSource)
	pref := tauPrefactor(cfg.ZSource)
	tau := make([]float64, len(wave))

	prev := cfg.ZEdge
	for _, iv := range ivs {
		segmentTau(tau, zObs, pref, 1, prev, iv.entry)
		prev = iv.exit
	}
	segmentTau(tau, zObs, pref, 1, prev, cfg.ZEnd)

	for i := range tau {
		if tau[i] < 0 || math.IsNaN(tau[i]) {
			tau[i] = math.Inf(1)
		}
	}
	return tau, nil
}

// intersect finds the redshift intervals over which the (x, y) sightline
// passes through ionized bubbles, sorted source side first.
func intersect(cfg TauConfig, f Field, x, y float64) ([]interval, error) {
	var ivs []interval
	for i := 0; i < f.Len(); i++ {
		rho2 := sq(x-f.X[i]) + sq(y-f.Y[i])
		if rho2 >= sq(f.R[i]) {
			continue
		}
		half := math.Sqrt(sq(f.R[i]) - rho2)
		zEntryC := f.Z[i] - half
		zExitC := f.Z[i] + half

		if zExitC < 0 {
			return nil, fmt.Errorf("bubble %d at z = %.2f Mpc, r = %.2f Mpc: %w",
				i, f.Z[i], f.R[i], ErrBubbleBehindGalaxy)
		}

		var entry float64
		if zEntryC < 0 {
			// The bubble sticks through the front face into the main
			// bubble's interior: the ionized stretch starts right at the
			// main bubble's edge.
			entry = cfg.ZEdge
		} else {
			entry = cosmo.RedshiftAtOffset(
				cfg.ZCentral, -(zEntryC + cfg.FrontOffset))
		}
		exit := cosmo.RedshiftAtOffset(
			cfg.ZCentral, -(zExitC + cfg.FrontOffset))

		// The sightline starts at cfg.ZEdge: ionized gas behind the galaxy
		// absorbs nothing, so an interval ending behind the edge is dropped
		// and one straddling it starts right at the edge.
		if exit >= cfg.ZEdge {
			continue
		}
		if entry > cfg.ZEdge {
			entry = cfg.ZEdge
		}
		if exit < cfg.ZEnd {
			exit = cfg.ZEnd
		}

		ivs = append(ivs, interval{entry, exit})
	}

	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].entry > ivs[j].entry
	})
	return ivs, nil
}

// mergeIntervals unions overlapping ionized intervals. An interval nested
// inside an already-kept one disappears entirely; a partial overlap
// extends the kept interval toward the observer.
func mergeIntervals(ivs []interval) []interval {
	merged := ivs[:1]
	for _, iv := range ivs[1:] {
		cur := &merged[len(merged)-1]
		if iv.entry >= cur.exit {
			if iv.exit < cur.exit {
				cur.exit = iv.exit
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// MeanFieldTau is the closed-form damping-wing optical depth of a uniform
// medium with mean neutral fraction nf between redshift zEnd and the point
// dist Mpc in front of a source at zs, sampled on the emitted wavelength
// grid wave. Sightlines that intersect no bubble reduce to this.
func MeanFieldTau(wave []float64, dist, zs, zEnd, nf float64) []float64 {
	zB1 := cosmo.RedshiftAtOffset(zs, -dist)
	zObs := ObservedRedshifts(wave, zs)
	pref := tauPrefactor(zs)

	tau := make([]float64, len(wave))
	segmentTau(tau, zObs, pref, nf, zB1, zEnd)
	return tau
}
