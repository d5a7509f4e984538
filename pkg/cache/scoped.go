package cache

// ScopedKeyer prefixes every key of an inner Keyer. The render server uses
// it to keep its entries apart from CLI entries in a shared Redis or Mongo
// backend.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "server:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer is
// replaced by the default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ClusterKey implements Keyer.
func (k *ScopedKeyer) ClusterKey(matrixHash, method string) string {
	return k.prefix + k.inner.ClusterKey(matrixHash, method)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(matrixHash, opts)
}
