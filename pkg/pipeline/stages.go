package pipeline

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/heatmap"
	"github.com/matzehuels/simheat/pkg/matrix"
)

// Load returns the options' matrix, reading it from MatrixPath when no
// in-memory matrix is set. Label and class files are merged into
// opts.Labels and opts.Classes.
func Load(opts *Options) (*matrix.Matrix, error) {
	m := opts.Matrix
	if m == nil {
		var err error
		if m, err = matrix.ReadFile(opts.MatrixPath); err != nil {
			return nil, err
		}
	}
	var err error
	if opts.Labels, err = mergeMapping(opts.LabelsPath, opts.Labels); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if opts.Classes, err = mergeMapping(opts.ClassesPath, opts.Classes); err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	return m, nil
}

func mergeMapping(path string, inline map[string]string) (map[string]string, error) {
	if path == "" {
		return inline, nil
	}
	out, err := matrix.ReadMappingFile(path)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, inline)
	return out, nil
}

// Linkage is the cached form of a clustering: the merges for both axes.
type Linkage struct {
	Rows []cluster.Merge `json:"rows"`
	Cols []cluster.Merge `json:"cols"`
}

// MarshalLinkage serializes a linkage for caching.
func MarshalLinkage(l Linkage) ([]byte, error) {
	return json.Marshal(l)
}

// UnmarshalLinkage restores a cached linkage for an n×n matrix.
func UnmarshalLinkage(data []byte, n int) (Linkage, error) {
	var l Linkage
	if err := json.Unmarshal(data, &l); err != nil {
		return Linkage{}, err
	}
	want := max(n-1, 0)
	if len(l.Rows) != want || len(l.Cols) != want {
		return Linkage{}, fmt.Errorf("cached linkage has %d/%d merges, want %d", len(l.Rows), len(l.Cols), want)
	}
	return l, nil
}

// Cluster computes row and column linkage of m.
func Cluster(m *matrix.Matrix, method cluster.Method) (Linkage, error) {
	rows, err := cluster.Cluster(m.Data, method)
	if err != nil {
		return Linkage{}, fmt.Errorf("rows: %w", err)
	}
	cols, err := cluster.Cluster(m.Data.T(), method)
	if err != nil {
		return Linkage{}, fmt.Errorf("columns: %w", err)
	}
	return Linkage{Rows: nonNil(rows.Merges), Cols: nonNil(cols.Merges)}, nil
}

// nonNil keeps a single-observation linkage distinguishable from "not
// computed" in heatmap.Input.
func nonNil(m []cluster.Merge) []cluster.Merge {
	if m == nil {
		return []cluster.Merge{}
	}
	return m
}

// Render lays out the figure and encodes it in every requested format.
func Render(in heatmap.Input, backend heatmap.Backend, formats []string) (*heatmap.Figure, map[string][]byte, error) {
	f, err := heatmap.Render(backend, in, "")
	if err != nil {
		return nil, nil, err
	}
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, err := f.Encode(format)
		if err != nil {
			return nil, nil, err
		}
		artifacts[format] = data
	}
	return f, artifacts, nil
}

// orders returns the leaf orders of a linkage over n observations.
func orders(l Linkage, n int) (rows, cols []int, err error) {
	rt, err := cluster.Dendrogram(l.Rows, n)
	if err != nil {
		return nil, nil, err
	}
	ct, err := cluster.Dendrogram(l.Cols, n)
	if err != nil {
		return nil, nil, err
	}
	return rt.Leaves, ct.Leaves, nil
}
