package like

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	exprand "golang.org/x/exp/rand"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

func TestNewKDEDegenerate(t *testing.T) {
	table := []struct {
		samples []float64
	}{
		{nil},
		{[]float64{1.0}},
		{[]float64{2.0, 2.0, 2.0, 2.0}},
	}

	for i, test := range table {
		if _, err := NewKDE(test.samples); err != ErrDegenerateKDE {
			t.Errorf("%d) NewKDE(%v) err = %v, want ErrDegenerateKDE",
				i+1, test.samples, err)
		}
	}
}

func TestKDEIntegratesToOne(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.25, 0.3, 0.5, 0.55, 0.7, 0.9}
	kde, err := NewKDE(samples)
	if err != nil {
		t.Fatalf("NewKDE: %v", err)
	}
	if got := kde.IntegrateBox(-100, 100); math.Abs(got-1) > 1e-10 {
		t.Errorf("Full-range mass = %g, want 1", got)
	}
}

func TestKDEFallsOffPastThePeak(t *testing.T) {
	samples := []float64{0.4, 0.45, 0.5, 0.5, 0.52, 0.55, 0.6}
	kde, err := NewKDE(samples)
	if err != nil {
		t.Fatalf("NewKDE: %v", err)
	}

	prev := kde.Eval(0.6)
	for _, x := range []float64{0.8, 1.0, 1.5, 2.0} {
		cur := kde.Eval(x)
		if cur >= prev {
			t.Errorf("Density rose from %g to %g moving from the peak to %g",
				prev, cur, x)
		}
		prev = cur
	}
}

func TestScalarLogLikeFloorRule(t *testing.T) {
	samples := []float64{0.5, 0.6, 0.7, 0.8, 0.9}
	kde, err := NewKDE(samples)
	if err != nil {
		t.Fatalf("NewKDE: %v", err)
	}

	floor := 0.3
	got, err := scalarLogLike(samples, 0.1, floor)
	if err != nil {
		t.Fatalf("scalarLogLike: %v", err)
	}
	if want := math.Log(kde.IntegrateBox(0, floor)); got != want {
		t.Errorf("Below-floor contribution = %g, want exactly %g", got, want)
	}

	got, err = scalarLogLike(samples, 0.7, floor)
	if err != nil {
		t.Fatalf("scalarLogLike: %v", err)
	}
	if want := math.Log(kde.Eval(0.7)); got != want {
		t.Errorf("Above-floor contribution = %g, want exactly %g", got, want)
	}
}

func TestScalarLogLikeDegenerateIsMinusInf(t *testing.T) {
	got, err := scalarLogLike([]float64{1, 1, 1}, 0.5, 0.1)
	if err != nil {
		t.Fatalf("scalarLogLike: %v", err)
	}
	if !math.IsInf(got, -1) {
		t.Errorf("Degenerate distribution gave %g, want -Inf", got)
	}
}

func testDataset() *galaxy.Dataset {
	return &galaxy.Dataset{
		ZCentral: 7.5,
		Galaxies: []galaxy.Galaxy{
			{X: 0, Y: 0, Z: 0, Muv: -21, Beta: -2,
				LyaLum: 1e42, TauData: 0.4},
			{X: 3, Y: -2, Z: 4, Muv: -20, Beta: -2,
				LyaLum: 5e41, TauData: 0.2},
		},
	}
}

func testForwardConfig() ForwardConfig {
	return ForwardConfig{
		NIterBub:        3,
		NSightlines:     3,
		NeutralFraction: 0.65,
		Depth:           150,
		MaxOffset:       5,
	}
}

func TestSimulateGalaxyIsIdempotent(t *testing.T) {
	ds := testDataset()
	cfg := testForwardConfig()
	cand := Candidate{X: 0, Y: 0, Z: 0, R: 10}
	collab := galaxy.DefaultCollaborators(-19)

	run := func() *Distributions {
		gen := rand.New(rand.Xorshift, 42)
		src := exprand.NewSource(42)
		d, err := SimulateGalaxy(
			cfg, cand, &ds.Galaxies[0], ds.ZCentral, collab, gen, src)
		if err != nil {
			t.Fatalf("SimulateGalaxy: %v", err)
		}
		return d
	}

	a, b := run(), run()
	if len(a.Transmission) != len(b.Transmission) {
		t.Fatalf("Same-seed runs drew %d and %d transmissions",
			len(a.Transmission), len(b.Transmission))
	}
	for i := range a.Transmission {
		if a.Transmission[i] != b.Transmission[i] ||
			a.Flux[i] != b.Flux[i] {
			t.Errorf("%d) Same-seed draws differ: (%g, %g) vs (%g, %g)",
				i+1, a.Transmission[i], a.Flux[i],
				b.Transmission[i], b.Flux[i])
		}
	}
}

func TestSimulateGalaxyAtCandidateCenter(t *testing.T) {
	ds := testDataset()
	cfg := testForwardConfig()
	collab := galaxy.DefaultCollaborators(-19)
	gen := rand.New(rand.Xorshift, 7)
	src := exprand.NewSource(7)

	d, err := SimulateGalaxy(cfg, Candidate{X: 0, Y: 0, Z: 0, R: 10},
		&ds.Galaxies[0], ds.ZCentral, collab, gen, src)
	if err != nil {
		t.Fatalf("Galaxy at the bubble center failed: %v", err)
	}
	for i, tr := range d.Transmission {
		if math.IsNaN(tr) || tr < 0 {
			t.Errorf("%d) Transmission = %g", i+1, tr)
		}
	}
}

func testGridConfig() GridConfig {
	return GridConfig{
		XS: []float64{0},
		YS: []float64{0},
		ZS: []float64{-2, 2},
		RS: []float64{8, 12},
		Seed: 1234,

		Observable:        ObserveTransmission,
		TransmissionFloor: DefaultTransmissionFloor,
		FluxLimit:         DefaultFluxLimit,
		SpectrumFloor:     DefaultSpectrumFloor,

		Forward: testForwardConfig(),
		Collab:  galaxy.DefaultCollaborators(-19),
	}
}

func TestEvaluateMatchesSequential(t *testing.T) {
	ds := testDataset()

	cfg := testGridConfig()
	cfg.Workers = 1
	seq, err := Evaluate(context.Background(), cfg, ds)
	if err != nil {
		t.Fatalf("Sequential Evaluate: %v", err)
	}

	cfg = testGridConfig()
	cfg.Workers = 4
	par, err := Evaluate(context.Background(), cfg, ds)
	if err != nil {
		t.Fatalf("Parallel Evaluate: %v", err)
	}

	for i := range seq.LogL[0] {
		if seq.LogL[0][i] != par.LogL[0][i] {
			t.Errorf("%d) Parallel grid point = %g, sequential = %g",
				i+1, par.LogL[0][i], seq.LogL[0][i])
		}
	}
}

// fixedLumEW returns the same line luminosity on every draw and counts
// how often it is asked.
type fixedLumEW struct {
	lum   float64
	draws int
}

func (m *fixedLumEW) Draw(muv, beta float64, src exprand.Source) (float64, float64) {
	m.draws++
	return 1, m.lum
}

func (m *fixedLumEW) Mean(muv, beta float64) (float64, float64) {
	return 1, m.lum
}

func TestSimulatedFluxUsesFreshLuminosityDraws(t *testing.T) {
	ds := testDataset()
	cfg := testForwardConfig()
	collab := galaxy.DefaultCollaborators(-19)
	ew := &fixedLumEW{lum: 0}
	collab.EW = ew

	gen := rand.New(rand.Xorshift, 11)
	src := exprand.NewSource(11)
	d, err := SimulateGalaxy(cfg, Candidate{X: 0, Y: 0, Z: 0, R: 10},
		&ds.Galaxies[0], ds.ZCentral, collab, gen, src)
	if err != nil {
		t.Fatalf("SimulateGalaxy: %v", err)
	}

	if ew.draws != len(d.Flux) {
		t.Errorf("Luminosity drawn %d times for %d kept draws",
			ew.draws, len(d.Flux))
	}
	// The stored luminosity is nonzero, so a nonzero flux means the model
	// ignored the per-draw luminosity.
	for i, f := range d.Flux {
		if f != 0 {
			t.Errorf("%d) Flux = %g despite zero-luminosity draws", i+1, f)
			return
		}
	}
}

func TestEvaluateSpectrumObservable(t *testing.T) {
	bins := igm.NewSpectralBins(igm.WaveGrid(), 7.5)

	ds := testDataset()
	for i := range ds.Galaxies {
		spec := make([]float64, bins.N())
		for b := range spec {
			spec[b] = 1e-19 * float64(b%3)
		}
		ds.Galaxies[i].Spectrum = spec
	}

	cfg := testGridConfig()
	cfg.Observable = ObserveSpectrum
	cfg.Forward.WithSpectra = true
	cfg.Forward.NoiseSigma = 1e-19

	grid, err := Evaluate(context.Background(), cfg, ds)
	if err != nil {
		t.Fatalf("Spectral Evaluate: %v", err)
	}
	for i, v := range grid.LogL[0] {
		if math.IsNaN(v) {
			t.Errorf("%d) Spectral log likelihood is NaN", i+1)
		}
	}
}

// memCache is an in-memory DistCache for exercising the recall path.
type memCache struct {
	mu sync.Mutex
	m  map[string]*Distributions
}

func newMemCache() *memCache {
	return &memCache{m: map[string]*Distributions{}}
}

func (c *memCache) Key(
	cand Candidate, g *galaxy.Galaxy, cfg ForwardConfig, it int,
) string {
	return fmt.Sprintf("%g,%g,%g,%g|%g,%g,%g|%d",
		cand.X, cand.Y, cand.Z, cand.R, g.X, g.Y, g.Z, it)
}

func (c *memCache) Get(key string) (*Distributions, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.m[key]
	return d, ok, nil
}

func (c *memCache) Put(key string, d *Distributions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = d
	return nil
}

func TestRepeatIterationsDifferWithCache(t *testing.T) {
	ds := testDataset()
	cfg := testGridConfig()
	cfg.NIter = 2
	cfg.Cache = newMemCache()
	// Keep the observations above the floor so every point takes the
	// density path, which depends on the iteration's own draws.
	cfg.TransmissionFloor = 0.01

	grid, err := Evaluate(context.Background(), cfg, ds)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// Repeat passes exist to expose Monte Carlo scatter: a cache keyed
	// without the iteration would replay iteration 0 exactly.
	same := true
	for i := range grid.LogL[0] {
		if grid.LogL[0][i] != grid.LogL[1][i] {
			same = false
		}
	}
	if same {
		t.Errorf("Cached repeat iterations replayed iteration 0 exactly")
	}
}

func TestEvaluateRejectsBadConfig(t *testing.T) {
	ds := testDataset()

	cfg := testGridConfig()
	cfg.RS = nil
	if _, err := Evaluate(context.Background(), cfg, ds); err == nil {
		t.Errorf("Empty radius axis was accepted")
	}

	cfg = testGridConfig()
	cfg.Observable = ObserveSpectrum
	if _, err := Evaluate(context.Background(), cfg, ds); err == nil {
		t.Errorf("Spectral likelihood without binned spectra was accepted")
	}
}

func TestDefaultGridAxes(t *testing.T) {
	xs, ys, zs, rs := DefaultGridAxes(5)
	if len(xs) != 1 || xs[0] != 0 || len(ys) != 1 || ys[0] != 0 {
		t.Errorf("Transverse axes = %v, %v, want pinned to 0", xs, ys)
	}
	if zs[0] != -5 || zs[len(zs)-1] != 5 {
		t.Errorf("Offset axis spans [%g, %g], want [-5, 5]",
			zs[0], zs[len(zs)-1])
	}
	if rs[0] != 5 || rs[len(rs)-1] != 15 {
		t.Errorf("Radius axis spans [%g, %g], want [5, 15]",
			rs[0], rs[len(rs)-1])
	}
}

func TestGridAt(t *testing.T) {
	g := &Grid{
		XS: []float64{0}, YS: []float64{0},
		ZS: []float64{-2, 2}, RS: []float64{8, 12},
		LogL: [][]float64{{1, 2, 3, 4}},
	}
	table := []struct {
		iz, ir int
		want   float64
	}{
		{0, 0, 1}, {0, 1, 2}, {1, 0, 3}, {1, 1, 4},
	}
	for i, test := range table {
		if got := g.At(0, 0, 0, test.iz, test.ir); got != test.want {
			t.Errorf("%d) At(0,0,0,%d,%d) = %g, want %g",
				i+1, test.iz, test.ir, got, test.want)
		}
	}
}
