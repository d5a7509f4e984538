package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/simheat/pkg/errors"
)

// Read parses a labelled matrix.
//
// The expected layout is a header line of column identifiers followed by one
// line per row, each starting with the row identifier:
//
//	        genome_A  genome_B
//	genome_A  1.0     0.93
//	genome_B  0.93    1.0
//
// Fields are tab-separated; lines without tabs are split on whitespace.
// The header may carry a leading corner cell (empty when tab-separated).
// Blank lines and lines starting with '#' are skipped.
func Read(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		header []string
		ids    []string
		rows   [][]float64
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		fields := splitFields(line)

		if header == nil {
			header = fields
			continue
		}
		if len(fields) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "line %d: expected identifier and values", lineNo)
		}

		row := make([]float64, len(fields)-1)
		for i, field := range fields[1:] {
			v, err := parseValue(field)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidMatrix, err,
					"line %d, column %d: parse value %q", lineNo, i+2, field)
			}
			row[i] = v
		}
		ids = append(ids, strings.TrimSpace(fields[0]))
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMatrix, err, "read matrix")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix has no data rows")
	}

	cols, err := columnIDs(header, len(rows))
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		if cols[i] != id {
			return nil, errors.New(errors.ErrCodeInvalidMatrix,
				"row %d identifier %q does not match column identifier %q", i, id, cols[i])
		}
	}

	n := len(rows)
	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.New(errors.ErrCodeInvalidMatrix,
				"row %q has %d values, want %d", ids[i], len(row), n)
		}
		flat = append(flat, row...)
	}
	return New(ids, mat.NewDense(n, n, flat))
}

// ReadFile opens path and parses it with [Read].
func ReadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "matrix file %s", path)
		}
		return nil, fmt.Errorf("open matrix: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write emits m in the tab-separated layout accepted by [Read].
func (m *Matrix) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("\t" + strings.Join(m.IDs, "\t") + "\n")
	n := m.Len()
	for i := 0; i < n; i++ {
		bw.WriteString(m.IDs[i])
		for j := 0; j < n; j++ {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(m.Data.At(i, j), 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func splitFields(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

// columnIDs strips the optional corner cell from the header.
func columnIDs(header []string, n int) ([]string, error) {
	cols := make([]string, 0, len(header))
	for _, h := range header {
		cols = append(cols, strings.TrimSpace(h))
	}
	switch len(cols) {
	case n:
		return cols, nil
	case n + 1:
		return cols[1:], nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidMatrix,
			"header has %d identifiers for %d rows", len(cols), n)
	}
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na":
		return strconv.ParseFloat("NaN", 64)
	}
	return strconv.ParseFloat(s, 64)
}
