// Package cluster implements agglomerative hierarchical clustering for
// score matrices.
//
// The output mirrors the conventional linkage matrix: merge k joins clusters
// A and B (A < B) at distance Dist and creates cluster id n+k, where n is the
// number of observations. [Dendrogram] turns merges into a leaf order and
// drawable U-shaped links.
//
// # Usage
//
//	tree, err := cluster.Cluster(m.Data, cluster.Complete)
//	if err != nil {
//	    return err
//	}
//	ordered := m.IDsAt(tree.Leaves)
package cluster

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/simheat/pkg/errors"
)

// Method selects how the distance between two clusters is aggregated from
// the pairwise distances of their members.
type Method int

const (
	// Complete is the maximum-distance (farthest point) linkage. It is the
	// zero value.
	Complete Method = iota
	// Single is the minimum-distance (nearest point) linkage.
	Single
	// Average is the unweighted mean-distance (UPGMA) linkage.
	Average
)

// DefaultMethod is the linkage used by both heatmap renderers.
const DefaultMethod = Complete

var methodNames = map[Method]string{
	Single:   "single",
	Complete: "complete",
	Average:  "average",
}

// String returns the method name.
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMethod converts a name into a Method. An empty name yields DefaultMethod.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return DefaultMethod, nil
	}
	for m, name := range methodNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidMethod, "invalid linkage method: %q (must be one of: single, complete, average)", s)
}

// Merge is one agglomeration step.
type Merge struct {
	A, B int     // merged cluster ids, A < B
	Dist float64 // linkage distance at which they merge
	Size int     // number of observations in the new cluster
}

// Distances returns pairwise Euclidean distances between the rows of m.
// Use m.T() for column distances.
func Distances(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	if r == 0 {
		return nil
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = finite(m.At(i, j))
		}
	}
	d := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			d.SetSym(i, j, floats.Distance(rows[i], rows[j], 2))
		}
	}
	return d
}

// finite maps missing values to zero so they do not poison distances.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Linkage clusters observations given their pairwise distances.
//
// Each step merges the closest pair of active clusters; ties are broken by
// taking the first pair in active-cluster order, so equal inputs always give
// equal output. Cluster distances are updated with the Lance-Williams form
// of the chosen method.
func Linkage(dist *mat.SymDense, method Method) ([]Merge, error) {
	if dist == nil {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "distance matrix is nil")
	}
	if _, ok := methodNames[method]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidMethod, "invalid linkage method %d", int(method))
	}
	n := dist.SymmetricDim()
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "distance matrix is empty")
	}

	// Working copy indexed by slot; slot i holds cluster ids[i].
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d[i][j] = dist.At(i, j)
		}
	}
	ids := make([]int, n)
	sizes := make([]int, n)
	active := make([]bool, n)
	for i := range ids {
		ids[i] = i
		sizes[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	for k := 0; k < n-1; k++ {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if v := d[i][j]; v < best || bi < 0 {
					best, bi, bj = v, i, j
				}
			}
		}

		a, b := ids[bi], ids[bj]
		if a > b {
			a, b = b, a
		}
		size := sizes[bi] + sizes[bj]
		merges = append(merges, Merge{A: a, B: b, Dist: best, Size: size})

		// The merged cluster takes slot bi; slot bj retires.
		for x := 0; x < n; x++ {
			if !active[x] || x == bi || x == bj {
				continue
			}
			nd := update(method, d[bi][x], d[bj][x], sizes[bi], sizes[bj])
			d[bi][x], d[x][bi] = nd, nd
		}
		active[bj] = false
		ids[bi] = n + k
		sizes[bi] = size
	}
	return merges, nil
}

func update(method Method, dik, djk float64, ni, nj int) float64 {
	switch method {
	case Single:
		return math.Min(dik, djk)
	case Average:
		return (float64(ni)*dik + float64(nj)*djk) / float64(ni+nj)
	default:
		return math.Max(dik, djk)
	}
}
