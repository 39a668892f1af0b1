package igm

import (
	"math"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/interpolate"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

// Field is one random realization of the ionized bubbles surrounding the
// main bubble. X and Y are transverse comoving offsets from the central
// sightline, Z is the comoving depth into the field measured toward the
// observer, starting at the front face of the field, and R is the bubble
// radius. All values are in comoving Mpc.
//
// A Field is generated fresh for every Monte Carlo iteration and discarded
// after the sightline calculation that consumes it.
type Field struct {
	X, Y, Z, R []float64
}

// Len returns the number of bubbles in the field.
func (f *Field) Len() int { return len(f.R) }

// FieldSampler produces random bubble ensembles. Implementations must be
// safe to share across goroutines as long as each call gets its own
// Generator.
type FieldSampler interface {
	Sample(gen *rand.Generator) Field
}

// EmpiricalSampler draws bubble radii by inverse-CDF sampling from an
// empirical size distribution and packs the bubbles into a slab until the
// total ionized volume matches the target set by the neutral fraction.
type EmpiricalSampler struct {
	// NeutralFraction is the volume-weighted fraction of hydrogen outside
	// bubbles. The target ionized volume is
	// (1 - NeutralFraction) * Depth * HalfWidth^2.
	NeutralFraction float64
	// Depth is the line-of-sight extent of the slab in Mpc.
	Depth float64
	// HalfWidth is the transverse half extent of the slab: bubble centers
	// are drawn from [-HalfWidth, HalfWidth) in x and y.
	HalfWidth float64
	// MinFrontZ, when positive, rejects bubbles whose front surface along
	// the central sightline would come closer than this to the front face.
	// Mock datasets use this to keep the random field from eating into the
	// main bubble.
	MinFrontZ float64

	rs  []float64
	cdf []float64
}

const (
	// volumeTolerance is the relative tolerance on the target ionized
	// volume.
	volumeTolerance = 0.01
	// maxRejections is the number of consecutive rejected placements after
	// which sampling gives up and returns the ensemble built so far.
	maxRejections = 5
	// cdfSamples is the resolution of the inverse-CDF radius table.
	cdfSamples = 1000
)

// NewEmpiricalSampler builds a sampler from a tabulated bubble size
// distribution: rHist are radius-bin centers in Mpc and pLogR the
// normalized dP/dlogR values at those centers. The slab half width
// defaults to the largest tabulated radius, matching the convention of the
// size-distribution measurements this sampler is calibrated against.
func NewEmpiricalSampler(xH, depth float64, rHist, pLogR []float64) *EmpiricalSampler {
	if len(rHist) != len(pLogR) {
		panic("Empirical size distribution slices have different lengths.")
	}

	pdf := interpolate.NewLinear(rHist, pLogR)
	rMin, rMax := rHist[0], rHist[len(rHist)-1]

	s := &EmpiricalSampler{
		NeutralFraction: xH,
		Depth:           depth,
		HalfWidth:       rMax,
	}
	// dP/dlogR -> dP/dR needs a 1/r. The CDF is a cumulative trapezoid
	// over a log-spaced radius grid.
	s.buildCDF(rMin, rMax, func(r float64) float64 {
		return pdf.Eval(r) / r
	})
	return s
}

// NewToySampler builds a sampler from the analytic toy size distribution
// exp(-beta r) (gamma r)^alpha, used when no tabulated distribution is
// available.
func NewToySampler(xH, depth, halfWidth float64) *EmpiricalSampler {
	const (
		alpha = 0.1
		beta  = 1.0
		gamma = 0.1
	)
	s := &EmpiricalSampler{
		NeutralFraction: xH,
		Depth:           depth,
		HalfWidth:       halfWidth,
	}
	s.buildCDF(0.1, 1000, func(r float64) float64 {
		return math.Exp(-r*beta) * math.Pow(r*gamma, alpha)
	})
	return s
}

func (s *EmpiricalSampler) buildCDF(rMin, rMax float64, pdf func(float64) float64) {
	logMin, logMax := math.Log10(rMin), math.Log10(rMax)
	dlog := (logMax - logMin) / float64(cdfSamples-1)

	s.rs = make([]float64, cdfSamples)
	s.cdf = make([]float64, cdfSamples)
	for i := range s.rs {
		s.rs[i] = math.Pow(10, logMin+float64(i)*dlog)
	}
	for i := 1; i < cdfSamples; i++ {
		dr := s.rs[i] - s.rs[i-1]
		s.cdf[i] = s.cdf[i-1] + dr*(pdf(s.rs[i])+pdf(s.rs[i-1]))/2
	}
	norm := s.cdf[cdfSamples-1]
	for i := range s.cdf {
		s.cdf[i] /= norm
	}
}

// drawRadius inverts the radius CDF at a uniform deviate u.
func (s *EmpiricalSampler) drawRadius(u float64) float64 {
	// The CDF can have flat stretches where the pdf underflows, so this is
	// a searchsorted rather than an interpolate.Linear over the CDF.
	lo, hi := 0, cdfSamples-1
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
		return s.rs[lo]
	}
	return s.rs[lo] + (s.rs[hi]-s.rs[lo])*(u-c1)/(c2-c1)
}

// Sample draws one bubble ensemble. The total ionized volume, after
// correcting for slab clipping and bubble-bubble overlap, matches
// (1 - xH) * Depth * HalfWidth^2 to within 1%, unless packing stalls for
// five consecutive rejections first.
func (s *EmpiricalSampler) Sample(gen *rand.Generator) Field {
	f := Field{}
	target := (1 - s.NeutralFraction) * s.Depth * s.HalfWidth * s.HalfWidth
	if target <= 0 {
		// A fully neutral medium has no bubbles to place.
		return f
	}
	vTot := 0.0
	rejections := 0

	for math.Abs(vTot-target)/target > volumeTolerance {
		r := s.drawRadius(gen.Uniform(0, 1))
		x := gen.Uniform(-s.HalfWidth, s.HalfWidth)
		y := gen.Uniform(-s.HalfWidth, s.HalfWidth)
		z := gen.Uniform(0, s.Depth)

		if s.MinFrontZ > 0 && r*r > x*x+y*y {
			// The bubble covers the central sightline: keep its front
			// surface clear of the protected region.
			if z-math.Sqrt(r*r-x*x-y*y) < s.MinFrontZ {
				continue
			}
		}

		v := 4 * math.Pi / 3 * r * r * r
		v -= clipVolume(x, -s.HalfWidth, s.HalfWidth, r)
		v -= clipVolume(y, -s.HalfWidth, s.HalfWidth, r)
		v -= clipVolume(z, 0, s.Depth, r)

		nested := false
		for i := range f.R {
			d2 := sq(f.X[i]-x) + sq(f.Y[i]-y) + sq(f.Z[i]-z)
			if d2 >= sq(f.R[i]+r) {
				continue
			}
			d := math.Sqrt(d2)
			big, small := f.R[i], r
			if small > big {
				big, small = small, big
			}
			if d+small < big {
				nested = true
			}
			v -= lensVolume(big, small, d)
		}

		if nested || v < 0 {
			rejections++
			if rejections >= maxRejections {
				break
			}
			continue
		}

		if (vTot+v)/target > 1 {
			// Accept an overshoot only if the overshoot itself is within
			// tolerance; otherwise try a different bubble.
			if math.Abs(vTot+v-target)/(vTot+v) >= volumeTolerance {
				continue
			}
			f.add(x, y, z, r)
			break
		}

		vTot += v
		rejections = 0
		f.add(x, y, z, r)
	}
	return f
}

func (f *Field) add(x, y, z, r float64) {
	f.X = append(f.X, x)
	f.Y = append(f.Y, y)
	f.Z = append(f.Z, z)
	f.R = append(f.R, r)
}

// clipVolume returns the volume of the spherical cap sticking out of the
// slab faces at lo and hi, for a sphere of radius r centered at coordinate
// c along that axis.
func clipVolume(c, lo, hi, r float64) float64 {
	h := 0.0
	if c < lo+r {
		h = lo + r - c
	} else if c > hi-r {
		h = r - (hi - c)
	}
	if h <= 0 {
		return 0
	}
	if h > 2*r {
		h = 2 * r
	}
	return math.Pi * h * h * (3*r - h) / 3
}

// lensVolume returns the volume of the intersection lens of two spheres
// with radii big >= small whose centers are d apart, for d < big + small.
func lensVolume(big, small, d float64) float64 {
	if d <= 0 {
		return 4 * math.Pi / 3 * small * small * small
	}
	return math.Pi * sq(big+small-d) *
		(d*d + 2*d*small - 3*small*small + 2*d*big + 6*big*small - 3*big*big) /
		(12 * d)
}

func sq(x float64) float64 { return x * x }
