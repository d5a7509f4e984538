// Package observability lets applications observe renders without the
// library depending on a metrics or tracing backend.
//
// Hook interfaces cover the three pipeline stages, cache traffic and the
// HTTP render service. Every category defaults to a no-op; the CLI installs
// logging hooks in verbose mode and the server installs request hooks:
//
//	observability.SetPipelineHooks(logHooks{logger})
//
// Library code emits events through the registry:
//
//	observability.Pipeline().OnClusterStart(ctx, "complete", n)
//	tree, err := cluster.Cluster(m.Data, method)
//	observability.Pipeline().OnClusterComplete(ctx, "complete", time.Since(start), false, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the load, cluster and render stages.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, size int, duration time.Duration, err error)

	OnClusterStart(ctx context.Context, method string, size int)
	OnClusterComplete(ctx context.Context, method string, duration time.Duration, cached bool, err error)

	OnRenderStart(ctx context.Context, backend string, formats []string)
	OnRenderComplete(ctx context.Context, backend string, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. kind is "cluster" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
	OnCacheError(ctx context.Context, kind string, err error)
}

// HTTPHooks receives events from the render service.
type HTTPHooks interface {
	OnRequest(ctx context.Context, requestID, method, path string)
	OnResponse(ctx context.Context, requestID, method, path string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores all pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}

func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}

func (NoopPipelineHooks) OnClusterStart(context.Context, string, int) {}

func (NoopPipelineHooks) OnClusterComplete(context.Context, string, time.Duration, bool, error) {}

func (NoopPipelineHooks) OnRenderStart(context.Context, string, []string) {}

func (NoopPipelineHooks) OnRenderComplete(context.Context, string, []string, time.Duration, error) {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

// NoopHTTPHooks ignores all HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
