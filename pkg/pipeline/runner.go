package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simheat/pkg/cache"
	"github.com/matzehuels/simheat/pkg/heatmap"
	"github.com/matzehuels/simheat/pkg/matrix"
	"github.com/matzehuels/simheat/pkg/observability"
)

// Cache kinds reported to observability hooks.
const (
	kindCluster  = "cluster"
	kindArtifact = "artifact"
)

// Runner executes the pipeline with caching.
//
// A Runner holds no per-render state; one Runner may serve concurrent
// renders with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer uses the DefaultKeyer, a nil
// cache disables caching and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs load → cluster → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: Load
	source := opts.MatrixPath
	if opts.Matrix != nil {
		source = "memory"
	}
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	m, err := Load(&opts)
	result.Stats.LoadTime = time.Since(start)
	size := 0
	if m != nil {
		size = m.Len()
	}
	hooks.OnLoadComplete(ctx, source, size, result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Matrix = m
	result.MatrixHash = m.Hash()
	result.Stats.Size = size
	r.Logger.Debug("loaded matrix", "source", source, "size", size, "duration", result.Stats.LoadTime)

	// Stage 2: Cluster
	hooks.OnClusterStart(ctx, opts.Method, size)
	start = time.Now()
	linkage, hit, err := r.ClusterWithCacheInfo(ctx, m, result.MatrixHash, opts)
	result.Stats.ClusterTime = time.Since(start)
	hooks.OnClusterComplete(ctx, opts.Method, result.Stats.ClusterTime, hit, err)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	result.CacheInfo.ClusterHit = hit
	r.Logger.Debug("clustered", "method", opts.Method, "cached", hit, "duration", result.Stats.ClusterTime)

	in := opts.Input(m)
	in.RowMerges, in.ColMerges = linkage.Rows, linkage.Cols

	// Stage 3: Render
	hooks.OnRenderStart(ctx, opts.Backend, opts.Formats)
	start = time.Now()
	fig, artifacts, hit, err := r.RenderWithCacheInfo(ctx, in, result.MatrixHash, opts)
	result.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Backend, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Figure = fig
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	r.Logger.Debug("rendered", "backend", opts.Backend, "formats", opts.Formats, "cached", hit, "duration", result.Stats.RenderTime)

	if fig != nil {
		result.RowOrder, result.ColOrder = fig.RowOrder(), fig.ColOrder()
	} else if result.RowOrder, result.ColOrder, err = orders(linkage, size); err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	return result, nil
}

// ClusterWithCacheInfo returns the linkage of m, reading and writing the
// cache, and reports whether it was a cache hit.
func (r *Runner) ClusterWithCacheInfo(ctx context.Context, m *matrix.Matrix, hash string, opts Options) (Linkage, bool, error) {
	key := r.Keyer.ClusterKey(hash, opts.Method)
	if !opts.Refresh {
		if data, ok := r.get(ctx, kindCluster, key); ok {
			if l, err := UnmarshalLinkage(data, m.Len()); err == nil {
				return l, true, nil
			}
			r.Logger.Debug("discarding cached linkage", "key", key)
		}
	}

	l, err := Cluster(m, opts.ClusterMethod())
	if err != nil {
		return Linkage{}, false, err
	}
	if data, err := MarshalLinkage(l); err == nil {
		r.set(ctx, kindCluster, key, data, cache.ClusterTTL)
	}
	return l, false, nil
}

// RenderWithCacheInfo returns the encoded artifacts. When every format is
// cached the figure is not laid out and the returned figure is nil.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, in heatmap.Input, hash string, opts Options) (*heatmap.Figure, map[string][]byte, bool, error) {
	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, ok := r.get(ctx, kindArtifact, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)))
			if !ok {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			return nil, cached, true, nil
		}
	}

	fig, artifacts, err := Render(in, heatmap.Backend(opts.Backend), opts.Formats)
	if err != nil {
		return nil, nil, false, err
	}
	for format, data := range artifacts {
		r.set(ctx, kindArtifact, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)), data, cache.ArtifactTTL)
	}
	return fig, artifacts, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads key, treating cache errors as misses.
func (r *Runner) get(ctx context.Context, kind, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
		hooks.OnCacheError(ctx, kind, err)
		return nil, false
	}
	if !hit {
		hooks.OnCacheMiss(ctx, kind)
		return nil, false
	}
	hooks.OnCacheHit(ctx, kind)
	return data, true
}

// set writes key, logging failures.
func (r *Runner) set(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		observability.Cache().OnCacheError(ctx, kind, err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}
