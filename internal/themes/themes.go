// internal/themes/themes.go
//
// Theme catalog for the memory game.
//
// Responsibilities:
//   - Load named themes (color + content list) from a JSON file or the embedded default.
//   - Look themes up by name (case-insensitive) or pick one at random.
//   - Build a game.Theme[string] with a requested or random pair count.
//
// Initialization behavior (Init):
//   1. If THEMES_FILE is set, load the catalog from that path.
//   2. Otherwise fall back to the embedded assets/themes.json.
//
// Constraints:
//   • Every theme needs at least game.MinPairs distinct contents.
//   • Names are unique ignoring case.
//   • Initialization is run once (sync.Once).

package themes

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/memorize/assets"
	"github.com/robalobadob/memorize/internal/game"
)

// ErrUnknownTheme is returned by Build for a name not in the catalog.
var ErrUnknownTheme = errors.New("unknown theme")

// Entry is one catalog theme.
type Entry struct {
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Contents []string `json:"contents"`
}

// Factory returns the content factory used by game.New.
func (e Entry) Factory() func(pairIndex int) string {
	return func(i int) string { return e.Contents[i] }
}

// Catalog is an ordered, validated set of themes.
type Catalog struct {
	entries []Entry
	byName  map[string]int
}

// Parse decodes and validates a JSON theme list.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("themes: decode: %w", err)
	}
	c := &Catalog{byName: make(map[string]int, len(entries))}
	for _, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, errors.New("themes: theme without a name")
		}
		key := strings.ToLower(e.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("themes: duplicate theme %q", e.Name)
		}
		if n := distinct(e.Contents); n != len(e.Contents) || n < game.MinPairs {
			return nil, fmt.Errorf("themes: %q needs at least %d distinct contents", e.Name, game.MinPairs)
		}
		c.byName[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	if len(c.entries) == 0 {
		return nil, errors.New("themes: catalog is empty")
	}
	return c, nil
}

// Names lists theme names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name
	}
	return out
}

// Len is the number of themes.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the i-th theme.
func (c *Catalog) At(i int) Entry { return c.entries[i] }

// Lookup finds a theme by name, ignoring case.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Random picks a theme uniformly.
func (c *Catalog) Random() Entry {
	return c.entries[rand.IntN(len(c.entries))]
}

// Build resolves name (empty picks at random) and constructs a game theme.
// pairs <= 0 lets game.NewTheme choose the pair count.
func (c *Catalog) Build(name string, pairs int) (Entry, game.Theme[string], error) {
	e := c.Random()
	if name != "" {
		var ok bool
		if e, ok = c.Lookup(name); !ok {
			return Entry{}, game.Theme[string]{}, ErrUnknownTheme
		}
	}
	th, err := game.NewTheme(e.Name, e.Color, e.Contents, pairs)
	return e, th, err
}

func distinct(list []string) int {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[s] = struct{}{}
	}
	return len(set)
}

// --- package-level catalog ---

var (
	initOnce   sync.Once
	catalog    *Catalog
	initialErr error
)

// Init loads the catalog exactly once.
func Init() error {
	initOnce.Do(func() {
		var data []byte
		if path := os.Getenv("THEMES_FILE"); path != "" {
			data, initialErr = os.ReadFile(path)
		} else {
			data, initialErr = assets.ThemesJSON()
		}
		if initialErr != nil {
			return
		}
		catalog, initialErr = Parse(data)
	})
	return initialErr
}

// Default returns the catalog loaded by Init, loading it on first use.
// It panics if the catalog cannot be loaded.
func Default() *Catalog {
	if err := Init(); err != nil {
		panic(err)
	}
	return catalog
}
