package cluster

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/simheat/pkg/errors"
)

// LeafSpacing is the distance between adjacent leaves in dendrogram
// coordinates. Leaf i is drawn at LeafSpacing*i + LeafSpacing/2.
const LeafSpacing = 10.0

// Link is the U-shaped segment joining two children of a merge.
// X and Y hold the four corner points: down to the left child, across,
// and down to the right child.
type Link struct {
	X [4]float64
	Y [4]float64
}

// Tree is a clustered ordering of n observations.
type Tree struct {
	N       int
	Merges  []Merge
	Leaves  []int   // observation indices in dendrogram order
	Links   []Link  // one per merge, in merge order
	MaxDist float64 // height of the root
}

// Dendrogram computes the leaf order and drawing links for merges over n
// observations. The left child of every merge is traversed first.
func Dendrogram(merges []Merge, n int) (*Tree, error) {
	if n <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "dendrogram needs at least one observation")
	}
	if len(merges) != n-1 {
		return nil, errors.New(errors.ErrCodeInternal, "got %d merges for %d observations, want %d", len(merges), n, n-1)
	}
	t := &Tree{N: n, Merges: merges}
	if n == 1 {
		t.Leaves = []int{0}
		return t, nil
	}

	// Iterative traversal; recursion depth would equal n on chained merges.
	root := n + len(merges) - 1
	stack := []int{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < n {
			t.Leaves = append(t.Leaves, id)
			continue
		}
		m := merges[id-n]
		stack = append(stack, m.B, m.A)
	}

	pos := make([]float64, n+len(merges))
	height := make([]float64, n+len(merges))
	for i, leaf := range t.Leaves {
		pos[leaf] = LeafSpacing*float64(i) + LeafSpacing/2
	}
	t.Links = make([]Link, len(merges))
	for k, m := range merges {
		id := n + k
		pos[id] = (pos[m.A] + pos[m.B]) / 2
		height[id] = m.Dist
		t.Links[k] = Link{
			X: [4]float64{pos[m.A], pos[m.A], pos[m.B], pos[m.B]},
			Y: [4]float64{height[m.A], m.Dist, m.Dist, height[m.B]},
		}
		if m.Dist > t.MaxDist {
			t.MaxDist = m.Dist
		}
	}
	return t, nil
}

// Cluster computes row distances, linkage and dendrogram for m in one call.
func Cluster(m mat.Matrix, method Method) (*Tree, error) {
	r, _ := m.Dims()
	if r == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "cannot cluster an empty matrix")
	}
	if r == 1 {
		return Dendrogram(nil, 1)
	}
	merges, err := Linkage(Distances(m), method)
	if err != nil {
		return nil, err
	}
	return Dendrogram(merges, r)
}

// Span returns the coordinate extent of the leaf axis.
func (t *Tree) Span() float64 {
	return LeafSpacing * float64(t.N)
}

// Newick serializes the tree with branch lengths, naming leaves by names.
func Newick(t *Tree, names []string) (string, error) {
	if len(names) != t.N {
		return "", errors.New(errors.ErrCodeInvalidInput, "got %d names for %d leaves", len(names), t.N)
	}
	if t.N == 1 {
		return quoteNewick(names[0]) + ";", nil
	}
	height := func(id int) float64 {
		if id < t.N {
			return 0
		}
		return t.Merges[id-t.N].Dist
	}
	var b strings.Builder
	var write func(id int, parent float64)
	write = func(id int, parent float64) {
		if id < t.N {
			b.WriteString(quoteNewick(names[id]))
		} else {
			m := t.Merges[id-t.N]
			b.WriteByte('(')
			write(m.A, m.Dist)
			b.WriteByte(',')
			write(m.B, m.Dist)
			b.WriteByte(')')
		}
		fmt.Fprintf(&b, ":%s", strconv.FormatFloat(parent-height(id), 'g', 6, 64))
	}
	root := t.Merges[len(t.Merges)-1]
	b.WriteByte('(')
	write(root.A, root.Dist)
	b.WriteByte(',')
	write(root.B, root.Dist)
	b.WriteString(");")
	return b.String(), nil
}

func quoteNewick(s string) string {
	if strings.ContainsAny(s, " ():;,[]'") {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}
