// Package matrix holds labelled square score matrices.
//
// A [Matrix] pairs a gonum dense matrix with the identifiers that key both
// its rows and its columns, as produced by pairwise genome comparison tools.
// Symmetry is assumed by the renderers but not enforced here.
package matrix

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/simheat/pkg/errors"
)

// Matrix is a square table of scores keyed by identical row and column ids.
type Matrix struct {
	IDs  []string
	Data *mat.Dense
}

// New validates ids against data and returns a Matrix.
// data must be square with one row per id, and ids must be unique.
func New(ids []string, data *mat.Dense) (*Matrix, error) {
	if data == nil || data.IsEmpty() {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix is empty")
	}
	r, c := data.Dims()
	if r != c {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix is %dx%d, want square", r, c)
	}
	if len(ids) != r {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "got %d identifiers for %d rows", len(ids), r)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := errors.ValidateIdentifier(id); err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "duplicate identifier %q", id)
		}
		seen[id] = true
	}
	return &Matrix{IDs: append([]string(nil), ids...), Data: data}, nil
}

// FromRows builds a Matrix from a row-major slice of slices.
func FromRows(ids []string, rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix is empty")
	}
	n := len(rows)
	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "row %d has %d values, want %d", i, len(row), n)
		}
		flat = append(flat, row...)
	}
	return New(ids, mat.NewDense(n, n, flat))
}

// Len returns the number of rows (and columns).
func (m *Matrix) Len() int {
	return len(m.IDs)
}

// Index returns the position of id, or -1 if absent.
func (m *Matrix) Index(id string) int {
	for i, v := range m.IDs {
		if v == id {
			return i
		}
	}
	return -1
}

// Range returns the minimum and maximum finite values in the matrix.
// A matrix with no finite values reports (0, 0).
func (m *Matrix) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	r, c := m.Data.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.Data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// IsSymmetric reports whether |m[i][j] - m[j][i]| <= tol for all i, j.
func (m *Matrix) IsSymmetric(tol float64) bool {
	n := m.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.Data.At(i, j)-m.Data.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// Permute returns a copy of the data with rows and columns reordered.
// Entry (i, j) of the result is m[rows[i]][cols[j]].
func (m *Matrix) Permute(rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, ri := range rows {
		for j, cj := range cols {
			out.Set(i, j, m.Data.At(ri, cj))
		}
	}
	return out
}

// IDsAt returns the identifiers at the given positions.
func (m *Matrix) IDsAt(order []int) []string {
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = m.IDs[idx]
	}
	return out
}

// Hash returns a SHA-256 content hash over ids and values.
// Equal matrices always hash equally; it is used for cache keys.
func (m *Matrix) Hash() string {
	h := sha256.New()
	var buf [8]byte
	for _, id := range m.IDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	r, c := m.Data.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.Data.At(i, j)))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
