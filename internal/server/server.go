// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz    liveness and build version
//	GET  /colormaps  registered colour map names
//	POST /render     JSON render request; responds with the image bytes
//
// Every response carries an X-Request-ID. Failures are JSON
// {"code": "...", "message": "..."} with a status derived from the code.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/simheat/pkg/buildinfo"
	"github.com/matzehuels/simheat/pkg/colormap"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/heatmap"
	"github.com/matzehuels/simheat/pkg/matrix"
	"github.com/matzehuels/simheat/pkg/observability"
	"github.com/matzehuels/simheat/pkg/pipeline"
)

// MaxBodyBytes bounds render request bodies.
const MaxBodyBytes = 32 << 20

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

// CacheHeader reports "hit" when every artifact came from the cache.
const CacheHeader = "X-Simheat-Cache"

const shutdownTimeout = 10 * time.Second

// Server serves renders from a shared pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/colormaps", s.handleColormaps)
	r.Post("/render", s.handleRender)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleColormaps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   colormap.DefaultName,
		"colormaps": colormap.Names(),
	})
}

// renderRequest is the POST /render body. Format selects a single output;
// the matrix is the TSV text of a matrix file.
type renderRequest struct {
	Matrix string `json:"matrix"`
	Format string `json:"format,omitempty"`
	pipeline.Options
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if strings.TrimSpace(req.Matrix) == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "matrix is required"))
		return
	}
	m, err := matrix.Read(strings.NewReader(req.Matrix))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := req.Options
	opts.Matrix = m
	opts.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))
	if req.Format != "" {
		opts.Formats = []string{req.Format}
	}
	if len(opts.Formats) > 1 {
		writeError(w, errors.New(errors.ErrCodeInvalidFormat, "one format per request, got %d", len(opts.Formats)))
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("Content-Type", heatmap.ContentType(format))
	if result.CacheInfo.RenderHit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestIDFrom returns the request id stored by the server middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a well-formed incoming X-Request-ID or assigns a new
// UUID, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLog logs each request and reports it to the HTTP hooks.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := RequestIDFrom(r.Context())
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), id, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			d := time.Since(start)
			hooks.OnResponse(r.Context(), id, r.Method, r.URL.Path, status, d)
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", d.Round(time.Millisecond),
				"request_id", id)
		}()
		next.ServeHTTP(ww, r)
	})
}
