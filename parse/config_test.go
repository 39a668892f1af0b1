package parse

import (
	"os"
	"path"
	"strings"
	"testing"
)

type testConfig struct {
	n     int64
	r     float64
	out   string
	flux  bool
	seeds []int64
	radii []float64
}

func testVars(cfg *testConfig) *ConfigVars {
	vars := NewConfigVars("search.config")
	vars.Int(&cfg.n, "NGalaxies", 20)
	vars.Float(&cfg.r, "BubbleRadius", 10)
	vars.String(&cfg.out, "OutputDir", "out")
	vars.Bool(&cfg.flux, "LikeOnFlux", false)
	vars.Ints(&cfg.seeds, "Seeds", []int64{1})
	vars.Floats(&cfg.radii, "BubbleRadii", nil)
	return vars
}

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	fname := path.Join(t.TempDir(), "test.config")
	if err := os.WriteFile(fname, []byte(text), 0666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return fname
}

func TestReadConfig(t *testing.T) {
	text := `[search.config]
# A comment line.
NGalaxies = 40
BubbleRadius = 12.5 # trailing comment
outputdir = runs/search
LikeOnFlux = true
Seeds = 3, 5, 7
BubbleRadii = 5, 7.5, 10
`
	cfg := &testConfig{}
	vars := testVars(cfg)
	if err := ReadConfig(writeConfig(t, text), vars); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	if cfg.n != 40 {
		t.Errorf("NGalaxies = %d, want 40", cfg.n)
	}
	if cfg.r != 12.5 {
		t.Errorf("BubbleRadius = %g, want 12.5", cfg.r)
	}
	if cfg.out != "runs/search" {
		t.Errorf("OutputDir = %q, want %q", cfg.out, "runs/search")
	}
	if !cfg.flux {
		t.Errorf("LikeOnFlux = false, want true")
	}
	if len(cfg.seeds) != 3 || cfg.seeds[0] != 3 || cfg.seeds[2] != 7 {
		t.Errorf("Seeds = %v, want [3 5 7]", cfg.seeds)
	}
	if len(cfg.radii) != 3 || cfg.radii[1] != 7.5 {
		t.Errorf("BubbleRadii = %v, want [5 7.5 10]", cfg.radii)
	}
}

func TestReadConfigKeepsDefaults(t *testing.T) {
	cfg := &testConfig{}
	vars := testVars(cfg)
	if err := ReadConfig(writeConfig(t, "[search.config]\n"), vars); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.n != 20 || cfg.r != 10 || cfg.out != "out" || cfg.flux {
		t.Errorf("Defaults not kept: %+v", cfg)
	}
}

func TestReadConfigErrors(t *testing.T) {
	table := []struct {
		text string
		want string
	}{
		{"NGalaxies = 5\n", "header"},
		{"[wrong.header]\nNGalaxies = 5\n", "header"},
		{"[search.config]\nthis is not an assignment\n", "assignment"},
		{"[search.config]\nNoSuchVar = 5\n", "don't have that variable"},
		{"[search.config]\nNGalaxies = 5\nNGalaxies = 6\n", "both assign"},
		{"[search.config]\nNGalaxies = elephant\n", "converted"},
		{"[search.config]\nSeeds = 1, two, 3\n", "converted"},
	}

	for i, test := range table {
		cfg := &testConfig{}
		err := ReadConfig(writeConfig(t, test.text), testVars(cfg))
		if err == nil {
			t.Errorf("%d) ReadConfig accepted %q", i+1, test.text)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("%d) Error %q doesn't mention %q",
				i+1, err.Error(), test.want)
		}
	}
}

func TestExampleLines(t *testing.T) {
	got := ExampleLines("search.config", [][2]string{
		{"NGalaxies", "20"}, {"BubbleRadius", "10"},
	})
	want := "[search.config]\n\nNGalaxies = 20\nBubbleRadius = 10\n"
	if got != want {
		t.Errorf("ExampleLines = %q, want %q", got, want)
	}
}
