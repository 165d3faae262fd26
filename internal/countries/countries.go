// internal/countries/countries.go
//
// Country catalog management for the quiz engine.
//
// Responsibilities:
//   - Load the catalog from an inline list (YAML config), a file, or the
//     embedded default in assets/countries.txt.
//   - Keep identifiers (image asset names) separate from display names.
//   - Supply lookups: IDs, DisplayName, IsKnown, Len.
//
// Line format:
//   Estonia              identifier only, displayed as "Estonia"
//   UK|United Kingdom    identifier "UK", displayed as "United Kingdom"
//   # comment            ignored, as are blank lines
//
// Load order (first non-empty wins):
//   1. inline entries (e.g. `countries:` in the YAML config)
//   2. file at path (COUNTRIES_FILE)
//   3. embedded default catalog
//
// Duplicated identifiers keep their first occurrence.

package countries

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/robalobadob/guesstheflag/assets"
)

// MinCountries is the smallest catalog that can fill a round.
const MinCountries = 3

// ErrTooFew is returned when a catalog cannot fill a round.
var ErrTooFew = errors.New("countries: catalog needs at least 3 entries")

// Catalog is an ordered, duplicate-free list of country identifiers.
type Catalog struct {
	ids   []string
	names map[string]string // identifier -> display name
}

// Load builds a catalog from inline entries, then path, then the embedded default.
func Load(path string, inline []string) (*Catalog, error) {
	var (
		lines []string
		err   error
	)
	switch {
	case len(inline) > 0:
		lines = inline
	case path != "":
		lines, err = readFile(path)
		if err != nil {
			return nil, fmt.Errorf("countries: read %s: %w", path, err)
		}
	default:
		lines, err = assets.CountriesList()
		if err != nil {
			return nil, fmt.Errorf("countries: embedded list: %w", err)
		}
	}

	c := Parse(lines)
	if c.Len() < MinCountries {
		return nil, ErrTooFew
	}
	return c, nil
}

// Parse converts catalog lines into a Catalog. Blank and comment lines are skipped.
func Parse(lines []string) *Catalog {
	c := &Catalog{names: make(map[string]string, len(lines))}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, name, _ := strings.Cut(line, "|")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if id == "" {
			continue
		}
		if _, dup := c.names[id]; dup {
			continue
		}
		if name == "" {
			name = id
		}
		c.ids = append(c.ids, id)
		c.names[id] = name
	}
	return c
}

// readFile loads raw lines from a catalog file.
func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// IDs returns a copy of the identifiers in catalog order.
func (c *Catalog) IDs() []string { return append([]string(nil), c.ids...) }

// DisplayName returns the display name for id, or id itself if unknown.
func (c *Catalog) DisplayName(id string) string {
	if n, ok := c.names[id]; ok {
		return n
	}
	return id
}

// IsKnown reports whether id is in the catalog.
func (c *Catalog) IsKnown(id string) bool {
	_, ok := c.names[id]
	return ok
}

// Len returns the number of countries.
func (c *Catalog) Len() int { return len(c.ids) }
