package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("missing key: hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("png bytes"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "png bytes" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ck1 := k.ClusterKey("abc", "complete")
	ck2 := k.ClusterKey("abc", "single")
	if ck1 == ck2 {
		t.Error("method should change the cluster key")
	}
	if !strings.HasPrefix(ck1, "cluster:") {
		t.Errorf("ClusterKey = %s", ck1)
	}

	base := ArtifactKeyOpts{Backend: "clustermap", Format: "png"}
	ak1 := k.ArtifactKey("abc", base)
	if ak1 != k.ArtifactKey("abc", base) {
		t.Error("ArtifactKey should be deterministic")
	}

	tests := []struct {
		name string
		opts ArtifactKeyOpts
	}{
		{"format", ArtifactKeyOpts{Backend: "clustermap", Format: "svg"}},
		{"backend", ArtifactKeyOpts{Backend: "grid", Format: "png"}},
		{"vmin", ArtifactKeyOpts{Backend: "clustermap", Format: "png", VMin: new(float64)}},
		{"labels", ArtifactKeyOpts{Backend: "clustermap", Format: "png", Labels: map[string]string{"a": "A"}}},
		{"classes", ArtifactKeyOpts{Backend: "clustermap", Format: "png", Classes: map[string]string{"a": "x"}}},
	}
	for _, tt := range tests {
		if k.ArtifactKey("abc", tt.opts) == ak1 {
			t.Errorf("%s should change the artifact key", tt.name)
		}
	}
}

func TestArtifactKeyMapOrder(t *testing.T) {
	k := NewDefaultKeyer()
	a := map[string]string{}
	b := map[string]string{}
	for _, id := range []string{"g1", "g2", "g3", "g4", "g5"} {
		a[id] = "L" + id
	}
	for _, id := range []string{"g5", "g4", "g3", "g2", "g1"} {
		b[id] = "L" + id
	}
	if k.ArtifactKey("h", ArtifactKeyOpts{Labels: a}) != k.ArtifactKey("h", ArtifactKeyOpts{Labels: b}) {
		t.Error("equal maps gave different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "server:")

	if got, want := scoped.ClusterKey("h", "complete"), "server:"+inner.ClusterKey("h", "complete"); got != want {
		t.Errorf("ClusterKey = %s, want %s", got, want)
	}
	opts := ArtifactKeyOpts{Format: "pdf"}
	if got, want := scoped.ArtifactKey("h", opts), "server:"+inner.ArtifactKey("h", opts); got != want {
		t.Errorf("ArtifactKey = %s, want %s", got, want)
	}

	if key := NewScopedKeyer(nil, "p:").ClusterKey("h", "m"); !strings.HasPrefix(key, "p:cluster:") {
		t.Errorf("nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("message not preserved: %s", err.Error())
	}
	if IsRetryable(ErrInvalidURL) {
		t.Error("unwrapped error should not be retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrInvalidURL })
	if err != ErrInvalidURL || calls != 1 {
		t.Errorf("permanent: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("transient: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrUnavailable) })
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrUnavailable) })
	if err != context.Canceled {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}
}

func TestNewMongoCacheInvalidURI(t *testing.T) {
	_, err := NewMongoCache(context.Background(), "bogus://nowhere", "", "")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}
}
