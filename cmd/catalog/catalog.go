/*package catalog reads and writes the text catalogs that connect the mock
and grid modes: galaxy datasets, bubble fields, and likelihood grids. The
format is whitespace-separated float columns under '#' comment headers, so
catalogs stay greppable and plottable without special tooling.*/
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/igm"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/like"
)

// CommentString formats the standard column-contents header from column
// names, e.g. "# Column contents: x(0) y(1) z(2)".
func CommentString(names []string) string {
	tokens := []string{"# Column contents:"}
	for i, name := range names {
		tokens = append(tokens, fmt.Sprintf("%s(%d)", name, i))
	}
	return strings.Join(tokens, " ")
}

// FormatCols renders float columns as aligned text rows.
func FormatCols(cols [][]float64) []string {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return []string{}
	}

	formatted := make([][]string, len(cols))
	for i := range cols {
		if len(cols[i]) != len(cols[0]) {
			panic("Columns of unequal height.")
		}
		formatted[i] = formatCol(cols[i])
	}

	lines := make([]string, len(cols[0]))
	tokens := make([]string, len(cols))
	for row := range lines {
		for col := range formatted {
			tokens[col] = formatted[col][row]
		}
		lines[row] = strings.Join(tokens, " ")
	}
	return lines
}

// formatCol renders one column right-aligned to a shared width.
func formatCol(col []float64) []string {
	out := make([]string, len(col))
	width := 0
	for i, x := range col {
		out[i] = strconv.FormatFloat(x, 'g', 10, 64)
		if len(out[i]) > width {
			width = len(out[i])
		}
	}
	for i := range out {
		out[i] = strings.Repeat(" ", width-len(out[i])) + out[i]
	}
	return out
}

// parseCols reads every non-comment line of a catalog body into float
// columns, checking that each row has nCols fields.
func parseCols(text string, nCols int) ([][]float64, error) {
	cols := make([][]float64, nCols)
	for lineNum, line := range strings.Split(text, "\n") {
		if hash := strings.Index(line, "#"); hash != -1 {
			line = line[:hash]
		}
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if len(toks) != nCols {
			return nil, fmt.Errorf(
				"Line %d has %d columns, but I expected %d.",
				lineNum+1, len(toks), nCols,
			)
		}
		for i, tok := range toks {
			x, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf(
					"I could not parse '%s' on line %d as a number.",
					tok, lineNum+1,
				)
			}
			cols[i] = append(cols[i], x)
		}
	}
	return cols, nil
}

// readHeaderFloat scans the comment headers for "# name = value".
func readHeaderFloat(text, name string) (float64, bool) {
	prefix := fmt.Sprintf("# %s =", name)
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		x, err := strconv.ParseFloat(
			strings.TrimSpace(line[len(prefix):]), 64)
		if err != nil {
			return 0, false
		}
		return x, true
	}
	return 0, false
}

var galaxyCols = []string{
	"x", "y", "z", "Muv", "beta", "la_e", "tau_data", "flux",
}

// WriteGalaxies writes a galaxy dataset to fname. Mock spectra, when
// present, are written as one spec_N column per bin under an
// '# n_spec_bins =' header, so a spectral likelihood run can read the
// observed spectra back.
func WriteGalaxies(fname string, ds *galaxy.Dataset) error {
	nBins := 0
	if len(ds.Galaxies) > 0 {
		nBins = len(ds.Galaxies[0].Spectrum)
	}

	names := append([]string{}, galaxyCols...)
	for b := 0; b < nBins; b++ {
		names = append(names, fmt.Sprintf("spec_%d", b))
	}

	cols := make([][]float64, len(names))
	for i, g := range ds.Galaxies {
		if len(g.Spectrum) != nBins {
			return fmt.Errorf(
				"Galaxy %d has %d spectral bins, but galaxy 0 has %d.",
				i, len(g.Spectrum), nBins)
		}
		vals := []float64{
			g.X, g.Y, g.Z, g.Muv, g.Beta, g.LyaLum, g.TauData, g.FluxInt,
		}
		vals = append(vals, g.Spectrum...)
		for j, v := range vals {
			cols[j] = append(cols[j], v)
		}
	}

	lines := []string{
		fmt.Sprintf("# z_central = %g", ds.ZCentral),
		fmt.Sprintf("# n_spec_bins = %d", nBins),
		CommentString(names),
	}
	lines = append(lines, FormatCols(cols)...)
	return os.WriteFile(fname, []byte(strings.Join(lines, "\n")+"\n"), 0666)
}

// ReadGalaxies reads a dataset written by WriteGalaxies. Catalogs without
// an '# n_spec_bins =' header are read as spectrum-free.
func ReadGalaxies(fname string) (*galaxy.Dataset, error) {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	text := string(bs)

	zc, ok := readHeaderFloat(text, "z_central")
	if !ok {
		return nil, fmt.Errorf(
			"The catalog %s has no '# z_central =' header.", fname)
	}
	nBins := 0
	if x, ok := readHeaderFloat(text, "n_spec_bins"); ok {
		nBins = int(x)
	}
	cols, err := parseCols(text, len(galaxyCols)+nBins)
	if err != nil {
		return nil, fmt.Errorf("In the catalog %s: %s", fname, err.Error())
	}

	ds := &galaxy.Dataset{ZCentral: zc}
	for i := range cols[0] {
		g := galaxy.Galaxy{
			X: cols[0][i], Y: cols[1][i], Z: cols[2][i],
			Muv: cols[3][i], Beta: cols[4][i], LyaLum: cols[5][i],
			TauData: cols[6][i], FluxInt: cols[7][i],
		}
		for b := 0; b < nBins; b++ {
			g.Spectrum = append(g.Spectrum, cols[len(galaxyCols)+b][i])
		}
		ds.Galaxies = append(ds.Galaxies, g)
	}
	return ds, nil
}

var bubbleCols = []string{"x", "y", "z", "r"}

// WriteBubbles writes a bubble field to fname.
func WriteBubbles(fname string, f igm.Field) error {
	lines := []string{CommentString(bubbleCols)}
	lines = append(lines, FormatCols([][]float64{f.X, f.Y, f.Z, f.R})...)
	return os.WriteFile(fname, []byte(strings.Join(lines, "\n")+"\n"), 0666)
}

// ReadBubbles reads a field written by WriteBubbles.
func ReadBubbles(fname string) (igm.Field, error) {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return igm.Field{}, err
	}
	cols, err := parseCols(string(bs), len(bubbleCols))
	if err != nil {
		return igm.Field{}, fmt.Errorf(
			"In the catalog %s: %s", fname, err.Error())
	}
	return igm.Field{X: cols[0], Y: cols[1], Z: cols[2], R: cols[3]}, nil
}

// WriteGrid writes a likelihood grid to fname, one row per candidate with
// one log-likelihood column per iteration.
func WriteGrid(fname string, g *like.Grid) error {
	names := []string{"x", "y", "z", "r"}
	for it := range g.LogL {
		names = append(names, fmt.Sprintf("log_like_%d", it))
	}

	n := g.NPoints()
	cols := make([][]float64, 4+len(g.LogL))
	for i := range cols[:4] {
		cols[i] = make([]float64, 0, n)
	}
	for _, x := range g.XS {
		for _, y := range g.YS {
			for _, z := range g.ZS {
				for _, r := range g.RS {
					cols[0] = append(cols[0], x)
					cols[1] = append(cols[1], y)
					cols[2] = append(cols[2], z)
					cols[3] = append(cols[3], r)
				}
			}
		}
	}
	for it := range g.LogL {
		cols[4+it] = g.LogL[it]
	}

	lines := []string{CommentString(names)}
	lines = append(lines, FormatCols(cols)...)
	return os.WriteFile(fname, []byte(strings.Join(lines, "\n")+"\n"), 0666)
}
