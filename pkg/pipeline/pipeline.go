// Package pipeline provides the load → cluster → render pipeline for simheat.
//
// The CLI and the HTTP service both run renders through a [Runner], so
// defaults, validation and caching behave the same for every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the matrix and the optional label and class files
//  2. Cluster: compute row and column linkage (cached per matrix and method)
//  3. Render: lay out the heatmap and encode it (cached per format)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    MatrixPath: "ani.tab",
//	    Backend:    "clustermap",
//	    Formats:    []string{"png", "pdf"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simheat/pkg/cache"
	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/colormap"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/heatmap"
	"github.com/matzehuels/simheat/pkg/matrix"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = heatmap.FormatPNG

// Options contains all configuration for a render.
// The JSON form is accepted by the HTTP service.
type Options struct {
	// Input: a file path or an in-memory matrix. Matrix wins when both are set.
	MatrixPath string         `json:"-"`
	Matrix     *matrix.Matrix `json:"-"`

	// Label and class files are merged under the inline maps; inline
	// entries take precedence.
	LabelsPath  string            `json:"-"`
	ClassesPath string            `json:"-"`
	Labels      map[string]string `json:"labels,omitempty"`
	Classes     map[string]string `json:"classes,omitempty"`

	// Render options
	Title    string   `json:"title,omitempty"`
	VMin     *float64 `json:"vmin,omitempty"`
	VMax     *float64 `json:"vmax,omitempty"`
	Colormap string   `json:"colormap,omitempty"`
	Backend  string   `json:"backend,omitempty"`
	Method   string   `json:"method,omitempty"`
	Formats  []string `json:"formats,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Matrix *matrix.Matrix

	// MatrixHash is the content hash used in cache keys.
	MatrixHash string

	// RowOrder and ColOrder are matrix indices in drawing order.
	RowOrder, ColOrder []int

	// Figure is nil when every artifact came from the cache.
	Figure *heatmap.Figure

	// Artifacts contains encoded images keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Size        int
	LoadTime    time.Duration
	ClusterTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	ClusterHit bool // linkage came from the cache
	RenderHit  bool // every artifact came from the cache
}

// ValidateFormat checks that a format can be encoded.
func ValidateFormat(format string) error {
	if !heatmap.ValidFormat(format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(heatmap.Formats(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Matrix == nil && o.MatrixPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "matrix or matrix path is required")
	}

	backend, err := heatmap.ParseBackend(o.Backend)
	if err != nil {
		return err
	}
	o.Backend = string(backend)

	method, err := cluster.ParseMethod(o.Method)
	if err != nil {
		return err
	}
	o.Method = method.String()

	if o.Colormap == "" {
		o.Colormap = colormap.DefaultName
	}
	if !colormap.Exists(o.Colormap) {
		return errors.New(errors.ErrCodeInvalidColormap, "unknown colormap %q", o.Colormap)
	}

	if err := errors.ValidateRange(o.VMin, o.VMax); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	if err := ValidateFormats(formats); err != nil {
		return err
	}
	o.Formats = formats

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ClusterMethod returns the parsed linkage method.
func (o *Options) ClusterMethod() cluster.Method {
	m, _ := cluster.ParseMethod(o.Method)
	return m
}

// ArtifactKeyOpts returns cache key options for one encoded format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Backend:  o.Backend,
		Colormap: o.Colormap,
		Method:   o.Method,
		Format:   format,
		Title:    o.Title,
		VMin:     o.VMin,
		VMax:     o.VMax,
		Labels:   o.Labels,
		Classes:  o.Classes,
	}
}

// Input builds the heatmap input for m from the options.
func (o *Options) Input(m *matrix.Matrix) heatmap.Input {
	return heatmap.Input{
		Matrix:   m,
		Title:    o.Title,
		VMin:     o.VMin,
		VMax:     o.VMax,
		Colormap: o.Colormap,
		Labels:   o.Labels,
		Classes:  o.Classes,
		Method:   o.ClusterMethod(),
	}
}
