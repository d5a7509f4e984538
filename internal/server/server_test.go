package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/simheat/pkg/cache"
	"github.com/matzehuels/simheat/pkg/colormap"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/observability"
	"github.com/matzehuels/simheat/pkg/pipeline"
)

const sampleTSV = "\ta\tb\tc\td\n" +
	"a\t1\t0.98\t0.8\t0.81\n" +
	"b\t0.98\t1\t0.79\t0.8\n" +
	"c\t0.8\t0.79\t1\t0.97\n" +
	"d\t0.81\t0.8\t0.97\t1\n"

func newTestServer(t *testing.T, c cache.Cache) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, cache.NewScopedKeyer(nil, "server:"), logger)
	ts := httptest.NewServer(New(runner, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, body any, header http.Header) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/render", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestColormaps(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/colormaps")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Default   string   `json:"default"`
		Colormaps []string `json:"colormaps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Default != colormap.DefaultName {
		t.Errorf("default = %q", body.Default)
	}
	if len(body.Colormaps) != len(colormap.Names()) {
		t.Errorf("got %d colormaps, want %d", len(body.Colormaps), len(colormap.Names()))
	}
}

func TestRenderPNG(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := postJSON(t, ts, map[string]any{"matrix": sampleTSV, "title": "ANI"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q is not a uuid", resp.Header.Get(RequestIDHeader))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Errorf("body is not a PNG: % x", body[:min(8, len(body))])
	}
}

func TestRenderSVGCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, c)
	req := map[string]any{"matrix": sampleTSV, "format": "svg", "backend": "grid"}

	first := postJSON(t, ts, req, nil)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", first.StatusCode)
	}
	if got := first.Header.Get(CacheHeader); got != "miss" {
		t.Errorf("first %s = %q", CacheHeader, got)
	}
	if ct := first.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	a, _ := io.ReadAll(first.Body)

	second := postJSON(t, ts, req, nil)
	if got := second.Header.Get(CacheHeader); got != "hit" {
		t.Errorf("second %s = %q", CacheHeader, got)
	}
	b, _ := io.ReadAll(second.Body)
	if !bytes.Equal(a, b) {
		t.Error("cached body differs")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t, nil)
	id := uuid.NewString()
	resp := postJSON(t, ts, map[string]any{"matrix": sampleTSV}, http.Header{RequestIDHeader: {id}})
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	resp = postJSON(t, ts, map[string]any{"matrix": sampleTSV}, http.Header{RequestIDHeader: {"not-a-uuid"}})
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Errorf("malformed request id kept: %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"bad json", "{not json", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", map[string]any{"matrix": sampleTSV, "bogus": 1}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty matrix", map[string]any{"matrix": "  "}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"not square", map[string]any{"matrix": "\ta\tb\na\t1\t0.5\n"}, http.StatusBadRequest, errors.ErrCodeInvalidMatrix},
		{"bad format", map[string]any{"matrix": sampleTSV, "format": "gif"}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"many formats", map[string]any{"matrix": sampleTSV, "formats": []string{"png", "svg"}}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad colormap", map[string]any{"matrix": sampleTSV, "colormap": "nope"}, http.StatusBadRequest, errors.ErrCodeInvalidColormap},
		{"bad backend", map[string]any{"matrix": sampleTSV, "backend": "nope"}, http.StatusBadRequest, errors.ErrCodeInvalidBackend},
		{"bad range", map[string]any{"matrix": sampleTSV, "vmin": 1, "vmax": 0}, http.StatusBadRequest, errors.ErrCodeInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts, tt.body, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decodeError(t, resp); e.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", e.Code, tt.code, e.Message)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/nowhere")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %s", e.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidMatrix, http.StatusBadRequest},
		{errors.ErrCodeInvalidPath, http.StatusBadRequest},
		{errors.ErrCodeFileNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

type recordingHTTP struct {
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (r *recordingHTTP) OnRequest(_ context.Context, id, method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, method+" "+path)
}

func (r *recordingHTTP) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	rec := &recordingHTTP{}
	observability.SetHTTPHooks(rec)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	postJSON(t, ts, "{", nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if want := []string{"GET /healthz", "POST /render"}; strings.Join(rec.requests, ",") != strings.Join(want, ",") {
		t.Errorf("requests = %v, want %v", rec.requests, want)
	}
	if len(rec.responses) != 2 || rec.responses[0] != http.StatusOK || rec.responses[1] != http.StatusBadRequest {
		t.Errorf("responses = %v", rec.responses)
	}
}
