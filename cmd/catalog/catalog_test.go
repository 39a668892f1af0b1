package catalog

import (
	"os"
	"path"
	"testing"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/like"
)

func TestCommentString(t *testing.T) {
	got := CommentString([]string{"x", "y", "r"})
	want := "# Column contents: x(0) y(1) r(2)"
	if got != want {
		t.Errorf("CommentString = %q, want %q", got, want)
	}
}

func TestFormatColsAligns(t *testing.T) {
	lines := FormatCols([][]float64{{1, 10, 100}, {0.5, -0.5, 2.5}})
	if len(lines) != 3 {
		t.Fatalf("FormatCols produced %d lines, want 3", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) != len(lines[0]) {
			t.Errorf("%d) Line %q not aligned with %q",
				i+1, lines[i], lines[0])
		}
	}
}

func TestParseColsErrors(t *testing.T) {
	table := []string{
		"1 2 3\n1 2\n",
		"1 2 elephant\n",
	}
	for i, text := range table {
		if _, err := parseCols(text, 3); err == nil {
			t.Errorf("%d) parseCols accepted %q", i+1, text)
		}
	}
}

func TestGalaxyRoundTrip(t *testing.T) {
	want := &galaxy.Dataset{
		ZCentral: 7.5,
		Galaxies: []galaxy.Galaxy{
			{X: 1, Y: -2, Z: 3.5, Muv: -21.25, Beta: -2,
				LyaLum: 1.5e42, TauData: 0.375, FluxInt: 2.5e-19},
			{X: -4, Y: 0, Z: 0.25, Muv: -19.5, Beta: -2.5,
				LyaLum: 3e41, TauData: 0.125, FluxInt: 1.25e-19},
		},
	}

	fname := path.Join(t.TempDir(), "galaxies.txt")
	if err := WriteGalaxies(fname, want); err != nil {
		t.Fatalf("WriteGalaxies: %v", err)
	}
	got, err := ReadGalaxies(fname)
	if err != nil {
		t.Fatalf("ReadGalaxies: %v", err)
	}

	if got.ZCentral != want.ZCentral {
		t.Errorf("ZCentral = %g, want %g", got.ZCentral, want.ZCentral)
	}
	if got.Len() != want.Len() {
		t.Fatalf("Read %d galaxies, want %d", got.Len(), want.Len())
	}
	for i := range want.Galaxies {
		if !galaxiesEq(&got.Galaxies[i], &want.Galaxies[i]) {
			t.Errorf("%d) Round trip gave %+v, want %+v",
				i+1, got.Galaxies[i], want.Galaxies[i])
		}
	}
}

func galaxiesEq(a, b *galaxy.Galaxy) bool {
	if a.X != b.X || a.Y != b.Y || a.Z != b.Z ||
		a.Muv != b.Muv || a.Beta != b.Beta || a.LyaLum != b.LyaLum ||
		a.TauData != b.TauData || a.FluxInt != b.FluxInt ||
		len(a.Spectrum) != len(b.Spectrum) {
		return false
	}
	for i := range a.Spectrum {
		if a.Spectrum[i] != b.Spectrum[i] {
			return false
		}
	}
	return true
}

func TestGalaxyRoundTripKeepsSpectra(t *testing.T) {
	want := &galaxy.Dataset{
		ZCentral: 7.5,
		Galaxies: []galaxy.Galaxy{
			{X: 1, Y: -2, Z: 3.5, Muv: -21.25, Beta: -2,
				LyaLum: 1.5e42, TauData: 0.375, FluxInt: 2.5e-19,
				Spectrum: []float64{1e-19, 2.5e-19, 0.5e-19}},
			{X: -4, Y: 0, Z: 0.25, Muv: -19.5, Beta: -2.5,
				LyaLum: 3e41, TauData: 0.125, FluxInt: 1.25e-19,
				Spectrum: []float64{0.25e-19, 3e-19, 1.5e-19}},
		},
	}

	fname := path.Join(t.TempDir(), "galaxies.txt")
	if err := WriteGalaxies(fname, want); err != nil {
		t.Fatalf("WriteGalaxies: %v", err)
	}
	got, err := ReadGalaxies(fname)
	if err != nil {
		t.Fatalf("ReadGalaxies: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("Read %d galaxies, want %d", got.Len(), want.Len())
	}
	for i := range want.Galaxies {
		if len(got.Galaxies[i].Spectrum) != 3 {
			t.Fatalf("%d) Read %d spectral bins, want 3",
				i+1, len(got.Galaxies[i].Spectrum))
		}
		if !galaxiesEq(&got.Galaxies[i], &want.Galaxies[i]) {
			t.Errorf("%d) Round trip gave %+v, want %+v",
				i+1, got.Galaxies[i], want.Galaxies[i])
		}
	}
}

func TestWriteGalaxiesRejectsRaggedSpectra(t *testing.T) {
	ds := &galaxy.Dataset{
		ZCentral: 7.5,
		Galaxies: []galaxy.Galaxy{
			{Spectrum: []float64{1, 2}},
			{Spectrum: []float64{1, 2, 3}},
		},
	}
	fname := path.Join(t.TempDir(), "galaxies.txt")
	if err := WriteGalaxies(fname, ds); err == nil {
		t.Errorf("Ragged spectra were accepted")
	}
}

func TestBubbleRoundTrip(t *testing.T) {
	want := igm.Field{
		X: []float64{0, 5.5}, Y: []float64{1, -1.25},
		Z: []float64{10, 42.5}, R: []float64{3, 7.75},
	}

	fname := path.Join(t.TempDir(), "bubbles.txt")
	if err := WriteBubbles(fname, want); err != nil {
		t.Fatalf("WriteBubbles: %v", err)
	}
	got, err := ReadBubbles(fname)
	if err != nil {
		t.Fatalf("ReadBubbles: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("Read %d bubbles, want %d", got.Len(), want.Len())
	}
	for i := 0; i < want.Len(); i++ {
		if got.X[i] != want.X[i] || got.Y[i] != want.Y[i] ||
			got.Z[i] != want.Z[i] || got.R[i] != want.R[i] {
			t.Errorf("%d) Round trip gave (%g, %g, %g, %g)", i+1,
				got.X[i], got.Y[i], got.Z[i], got.R[i])
		}
	}
}

func TestWriteGridRows(t *testing.T) {
	g := &like.Grid{
		XS: []float64{0}, YS: []float64{0},
		ZS: []float64{-2, 2}, RS: []float64{8, 12},
		LogL: [][]float64{{-1, -2, -3, -4}},
	}

	fname := path.Join(t.TempDir(), "grid.txt")
	if err := WriteGrid(fname, g); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	bs, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cols, err := parseCols(string(bs), 5)
	if err != nil {
		t.Fatalf("parseCols: %v", err)
	}

	if len(cols[0]) != 4 {
		t.Fatalf("Grid file has %d rows, want 4", len(cols[0]))
	}
	// Radius cycles fastest, line-of-sight offset next.
	if cols[3][0] != 8 || cols[3][1] != 12 || cols[2][0] != -2 ||
		cols[2][2] != 2 {
		t.Errorf("Grid rows out of order: z = %v, r = %v", cols[2], cols[3])
	}
	for i, want := range []float64{-1, -2, -3, -4} {
		if cols[4][i] != want {
			t.Errorf("%d) log likelihood = %g, want %g", i+1, cols[4][i], want)
		}
	}
}
