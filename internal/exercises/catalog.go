// internal/exercises/catalog.go
//
// Read-only exercise catalog.
//
// Responsibilities:
//   - Load every *.hujson / *.json exercise file from a directory, or fall back
//     to the defaults embedded in the assets package.
//   - Keep a stable order (sorted by file name) so that index-based selection
//     (exercise of the day) is deterministic for a given catalog.
//   - Lookup by ID and summaries for listing.
//
// Constraints:
//   • Exercise IDs must be unique across the directory.
//   • A catalog with zero exercises is an error.

package exercises

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

// ErrNotFound is returned for unknown exercise IDs.
var ErrNotFound = errors.New("exercise not found")

// Summary is the listing form of an exercise.
type Summary struct {
	ID     string          `json:"id"`
	Type   puzzle.TaskType `json:"type"`
	Task   string          `json:"task"`
	Pieces int             `json:"pieces"`
	Links  int             `json:"links"`
	Author string          `json:"author,omitempty"`
}

// Summarize builds the listing form of ex.
func Summarize(ex puzzle.Exercise) Summary {
	return Summary{ID: ex.ID, Type: ex.Type, Task: ex.Task, Pieces: len(ex.Pieces), Links: len(ex.Solution)}
}

// Catalog is an immutable, ordered set of exercises.
type Catalog struct {
	list []puzzle.Exercise
	byID map[string]int
}

// Load reads the catalog from dir, or from the embedded defaults when dir is "".
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return LoadFS(assets.Exercises())
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every exercise file at the root of fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read exercise dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".hujson", ".json", ".jsonc":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c := &Catalog{byID: make(map[string]int, len(names))}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		ex, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := c.byID[ex.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate exercise id %q (first in %s)", name, ex.ID, names[prev])
		}
		c.byID[ex.ID] = len(c.list)
		c.list = append(c.list, ex)
	}
	if len(c.list) == 0 {
		return nil, errors.New("exercises: catalog is empty")
	}
	return c, nil
}

// Len is the number of exercises.
func (c *Catalog) Len() int { return len(c.list) }

// At returns the i-th exercise in catalog order.
func (c *Catalog) At(i int) puzzle.Exercise { return c.list[i] }

// IDs returns the exercise IDs in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.list))
	for i, ex := range c.list {
		out[i] = ex.ID
	}
	return out
}

// Get looks an exercise up by ID.
func (c *Catalog) Get(id string) (puzzle.Exercise, error) {
	i, ok := c.byID[id]
	if !ok {
		return puzzle.Exercise{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.list[i], nil
}

// List returns summaries in catalog order.
func (c *Catalog) List() []Summary {
	out := make([]Summary, len(c.list))
	for i, ex := range c.list {
		out[i] = Summarize(ex)
	}
	return out
}
