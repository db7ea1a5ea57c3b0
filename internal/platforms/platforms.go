// ABOUTME: Catalog of streaming platforms a streamer request may cover.
// ABOUTME: Loaded from an embedded TOML file; enforces the 1-5 selection bound.

package platforms

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Selection bounds for the platform multi-select.
const (
	MinSelect = 1
	MaxSelect = 5
)

// ErrUnknownPlatform is returned for a platform name not in the catalog.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrSelectionBounds is returned when a selection is empty or too large.
var ErrSelectionBounds = errors.New("platform selection out of bounds")

// Platform describes one supported streaming platform.
type Platform struct {
	Name  string `toml:"name"`  // canonical lowercase name, used in tokens
	Label string `toml:"label"` // display label for selects and modal fields
}

type catalog struct {
	Platforms []Platform `toml:"platforms"`
}

//go:embed platforms.toml
var rawCatalog []byte

var (
	all    []Platform
	byName map[string]Platform
)

func init() {
	var c catalog
	if err := toml.Unmarshal(rawCatalog, &c); err != nil {
		panic(fmt.Sprintf("platforms: embedded catalog is invalid: %v", err))
	}
	all = c.Platforms
	byName = make(map[string]Platform, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
}

// List returns every platform in catalog order.
func List() []Platform {
	out := make([]Platform, len(all))
	copy(out, all)
	return out
}

// Get returns the platform with the given canonical name.
func Get(name string) (Platform, error) {
	p, ok := byName[name]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
	return p, nil
}

// ValidateSelection checks a user's platform selection: every name must be
// in the catalog, with no duplicates, and the count must stay within the
// select bounds.
func ValidateSelection(names []string) error {
	if len(names) < MinSelect || len(names) > MaxSelect {
		return fmt.Errorf("%w: got %d, want %d-%d", ErrSelectionBounds, len(names), MinSelect, MaxSelect)
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate %q", ErrSelectionBounds, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
