package colormap

import (
	"maps"
	"slices"
	"sync"

	"gonum.org/v1/plot/palette"

	"github.com/matzehuels/simheat/pkg/errors"
)

// DefaultName is the colour map used when none is requested: the species
// boundary map, centred on the 95% identity threshold.
const DefaultName = "spbnd_BuRd"

// Factory returns a fresh colour map. Maps carry mutable Min/Max state, so
// the registry hands out a new instance per lookup.
type Factory func() palette.ColorMap

var (
	registry   = map[string]Factory{}
	registryMu sync.RWMutex
)

// Register adds or replaces a named colour map.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name != "" && f != nil {
		registry[name] = f
	}
}

// Get returns a new instance of the named map with its range reset to
// [0, 1]. An empty name resolves to DefaultName.
func Get(name string) (palette.ColorMap, error) {
	if name == "" {
		name = DefaultName
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColormap, "unknown colormap %q (see 'simheat colormaps')", name)
	}
	c := f()
	SetRange(c, 0, 1)
	return c, nil
}

// Exists reports whether name is registered. An empty name is the default
// map and always exists.
func Exists(name string) bool {
	if name == "" {
		return true
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Names returns the registered names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}
