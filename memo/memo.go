/*package memo caches per-galaxy forward-model distributions on disk.
Re-running a grid with the same candidate, galaxy, and draw counts reads
the simulated distributions back instead of recomputing them. Files are
named by a content hash of the full parameter tuple, so concurrent grid
tasks never contend for the same file, and a manifest of everything
written during a run is kept for the storage layer.*/
package memo

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/galaxy"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/like"
)

const (
	distFile     = "dist_%s.dat"
	manifestFile = "manifest_%s.txt"
)

// Cache is an on-disk store of simulated distributions. All methods are
// safe for concurrent use; distinct keys map to distinct files.
type Cache struct {
	dir   string
	runID string

	mu      sync.Mutex
	written []string
}

// New opens a cache rooted at dir, creating the directory if needed, and
// stamps this run with a fresh ID for the manifest.
func New(dir string) (*Cache, error) {
	if _, err := os.Stat(dir); err != nil {
		if err = os.MkdirAll(dir, 0777); err != nil {
			return nil, err
		}
	}
	return &Cache{dir: dir, runID: uuid.NewString()}, nil
}

// RunID returns the unique identifier of this cache session.
func (c *Cache) RunID() string { return c.runID }

// Key hashes the full candidate + galaxy + draw-count + iteration tuple.
// Two evaluations share a file only if every parameter that shapes the
// simulated distributions agrees; the iteration index keeps repeat grid
// passes from recalling each other's draws.
func (c *Cache) Key(
	cand like.Candidate, g *galaxy.Galaxy, cfg like.ForwardConfig, it int,
) string {
	h := sha256.New()
	fields := []float64{
		cand.X, cand.Y, cand.Z, cand.R,
		g.X, g.Y, g.Z, g.Muv, g.Beta, g.LyaLum,
		float64(cfg.NIterBub), float64(cfg.NSightlines),
		cfg.NeutralFraction, cfg.Depth, cfg.MaxOffset,
		float64(it),
	}
	binary.Write(h, binary.LittleEndian, fields)
	binary.Write(h, binary.LittleEndian, cfg.RedrawNeutralFraction)
	binary.Write(h, binary.LittleEndian, cfg.WithSpectra)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get reads the distributions stored under key. The second return value
// is false if the key has never been written.
func (c *Cache) Get(key string) (*like.Distributions, bool, error) {
	file := path.Join(c.dir, fmt.Sprintf(distFile, key))
	f, err := os.Open(file)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	defer f.Close()

	var n [4]int64
	if err = binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, false, err
	}
	d := &like.Distributions{
		Transmission: make([]float64, n[0]),
		Flux:         make([]float64, n[0]),
		Discarded:    int(n[1]),
	}
	if err = binary.Read(f, binary.LittleEndian, d.Transmission); err != nil {
		return nil, false, err
	}
	if err = binary.Read(f, binary.LittleEndian, d.Flux); err != nil {
		return nil, false, err
	}
	if n[2] > 0 {
		d.Spectra = make([][]float64, n[2])
		for i := range d.Spectra {
			d.Spectra[i] = make([]float64, n[3])
			err = binary.Read(f, binary.LittleEndian, d.Spectra[i])
			if err != nil {
				return nil, false, err
			}
		}
	}
	return d, true, nil
}

// Put writes the distributions under key and records the file in the run
// manifest.
func (c *Cache) Put(key string, d *like.Distributions) error {
	name := fmt.Sprintf(distFile, key)
	f, err := os.Create(path.Join(c.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	nCols := int64(0)
	if len(d.Spectra) > 0 {
		nCols = int64(len(d.Spectra[0]))
	}
	n := [4]int64{
		int64(len(d.Transmission)), int64(d.Discarded),
		int64(len(d.Spectra)), nCols,
	}
	if err = binary.Write(f, binary.LittleEndian, n); err != nil {
		return err
	}
	if err = binary.Write(f, binary.LittleEndian, d.Transmission); err != nil {
		return err
	}
	if err = binary.Write(f, binary.LittleEndian, d.Flux); err != nil {
		return err
	}
	for _, spec := range d.Spectra {
		if err = binary.Write(f, binary.LittleEndian, spec); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.written = append(c.written, name)
	c.mu.Unlock()
	return nil
}

// WriteManifest writes the sorted list of files this run produced to
// manifest_<run id>.txt and returns the manifest's path.
func (c *Cache) WriteManifest() (string, error) {
	c.mu.Lock()
	names := make([]string, len(c.written))
	copy(names, c.written)
	c.mu.Unlock()
	sort.Strings(names)

	file := path.Join(c.dir, fmt.Sprintf(manifestFile, c.runID))
	f, err := os.Create(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Fprintf(f, "# run %s\n", c.runID)
	for _, name := range names {
		fmt.Fprintln(f, name)
	}
	return file, nil
}
