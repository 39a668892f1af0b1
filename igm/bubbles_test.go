package igm

import (
	"math"
	"testing"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/math/rand"
)

func TestToySamplerProducesBubbles(t *testing.T) {
	s := NewToySampler(0.65, 300, 30)
	f := s.Sample(rand.New(rand.Xorshift, 99))
	if f.Len() == 0 {
		t.Fatalf("Sampler produced no bubbles at xH = 0.65")
	}
	for i := 0; i < f.Len(); i++ {
		if f.R[i] <= 0 {
			t.Errorf("Bubble %d has non-positive radius %g", i, f.R[i])
		}
		if f.Z[i] < 0 || f.Z[i] > 300 {
			t.Errorf("Bubble %d outside slab: z = %g", i, f.Z[i])
		}
		if f.X[i] < -30 || f.X[i] >= 30 {
			t.Errorf("Bubble %d outside slab: x = %g", i, f.X[i])
		}
	}
}

func TestNoNestedBubbles(t *testing.T) {
	s := NewToySampler(0.5, 200, 25)
	f := s.Sample(rand.New(rand.Xorshift, 7))
	for i := 0; i < f.Len(); i++ {
		for j := i + 1; j < f.Len(); j++ {
			d := math.Sqrt(sq(f.X[i]-f.X[j]) + sq(f.Y[i]-f.Y[j]) +
				sq(f.Z[i]-f.Z[j]))
			big, small := f.R[i], f.R[j]
			if small > big {
				big, small = small, big
			}
			if d+small < big {
				t.Errorf("Bubbles %d and %d are nested (d = %g, radii %g, %g)",
					i, j, d, f.R[i], f.R[j])
			}
		}
	}
}

func TestSameSeedSameField(t *testing.T) {
	s := NewToySampler(0.65, 300, 30)
	f1 := s.Sample(rand.New(rand.Xorshift, 1234))
	f2 := s.Sample(rand.New(rand.Xorshift, 1234))
	if f1.Len() != f2.Len() {
		t.Fatalf("Same seed produced %d and %d bubbles", f1.Len(), f2.Len())
	}
	for i := 0; i < f1.Len(); i++ {
		if f1.X[i] != f2.X[i] || f1.Y[i] != f2.Y[i] ||
			f1.Z[i] != f2.Z[i] || f1.R[i] != f2.R[i] {
			t.Errorf("Same seed diverged at bubble %d", i)
			return
		}
	}
}

func TestFullyNeutralFieldIsEmpty(t *testing.T) {
	s := NewToySampler(1.0, 300, 30)
	f := s.Sample(rand.New(rand.Xorshift, 5))
	if f.Len() != 0 {
		t.Errorf("xH = 1 should give an empty field, got %d bubbles", f.Len())
	}
}

func TestMinFrontZKeepsCentralSightlineClear(t *testing.T) {
	s := NewToySampler(0.5, 200, 25)
	s.MinFrontZ = 5
	f := s.Sample(rand.New(rand.Xorshift, 11))
	for i := 0; i < f.Len(); i++ {
		if sq(f.R[i]) <= sq(f.X[i])+sq(f.Y[i]) {
			continue // does not cover the central sightline
		}
		front := f.Z[i] - math.Sqrt(sq(f.R[i])-sq(f.X[i])-sq(f.Y[i]))
		if front < 5 {
			t.Errorf("Bubble %d front surface at %g Mpc violates MinFrontZ",
				i, front)
		}
	}
}

func TestEmpiricalSamplerMatchesTabulatedRange(t *testing.T) {
	rHist := []float64{0.5, 1, 2, 4, 8, 16}
	pLogR := []float64{0.05, 0.2, 0.4, 0.25, 0.08, 0.02}
	s := NewEmpiricalSampler(0.65, 300, rHist, pLogR)
	if s.HalfWidth != 16 {
		t.Errorf("HalfWidth should default to max tabulated radius, got %g",
			s.HalfWidth)
	}
	f := s.Sample(rand.New(rand.Xorshift, 3))
	for i := 0; i < f.Len(); i++ {
		if f.R[i] < 0.5 || f.R[i] > 16 {
			t.Errorf("Bubble %d radius %g outside tabulated range", i, f.R[i])
		}
	}
}
