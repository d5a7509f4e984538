package cache

import (
	"maps"
	"slices"
)

// Keyer derives cache keys from render inputs.
type Keyer interface {
	// ClusterKey identifies the row and column linkage of a matrix.
	ClusterKey(matrixHash, method string) string

	// ArtifactKey identifies one rendered image.
	ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every option that changes a rendered image.
type ArtifactKeyOpts struct {
	Backend  string            `json:"backend"`
	Colormap string            `json:"colormap"`
	Method   string            `json:"method"`
	Format   string            `json:"format"`
	Title    string            `json:"title,omitempty"`
	VMin     *float64          `json:"vmin,omitempty"`
	VMax     *float64          `json:"vmax,omitempty"`
	Labels   map[string]string `json:"-"`
	Classes  map[string]string `json:"-"`
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ClusterKey implements Keyer.
func (DefaultKeyer) ClusterKey(matrixHash, method string) string {
	return hashKey("cluster", matrixHash, method)
}

// ArtifactKey implements Keyer. Label and class maps are folded in as
// sorted pairs so map iteration order cannot change the key.
func (DefaultKeyer) ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", matrixHash, opts, pairs(opts.Labels), pairs(opts.Classes))
}

func pairs(m map[string]string) [][2]string {
	out := make([][2]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, [2]string{k, m[k]})
	}
	return out
}

var _ Keyer = DefaultKeyer{}
